package service

import (
	"context"
	"encoding/json"
	"errors"

	"academia/internal/docstore"
	"academia/internal/identity"
	"academia/internal/models"

	"github.com/google/uuid"
)

// PostService manages post documents. Like toggling lives in the engagement
// package.
type PostService struct {
	store docstore.Store
}

func NewPostService(store docstore.Store) *PostService {
	return &PostService{store: store}
}

type CreatePostInput struct {
	AcademyID string
	AuthorRef any
	Title     string
	Caption   string
	MediaURL  string
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	authorID := identity.Normalize(in.AuthorRef)
	if authorID == identity.Absent {
		return nil, models.NewValidationError("author reference is required")
	}
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	const maxTitleLen = 200
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}

	var academy models.Academy
	if err := s.store.Get(ctx, docstore.CollectionAcademies, in.AcademyID, &academy); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, models.NewNotFoundError("academy", in.AcademyID)
		}
		return nil, models.NewStoreUnavailableError(err)
	}
	if !academy.HasMember(authorID) && !academy.IsCreator(authorID) {
		return nil, models.NewPermissionDeniedError("Only members can post in an academy")
	}

	post := &models.Post{
		ID:        uuid.NewString(),
		AcademyID: in.AcademyID,
		AuthorID:  authorID,
		Title:     in.Title,
		Caption:   in.Caption,
		MediaURL:  in.MediaURL,
		LikedBy:   []identity.Ref{},
	}
	if err := s.store.Put(ctx, docstore.CollectionPosts, post.ID, post); err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.store.Get(ctx, docstore.CollectionPosts, id, &post); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, models.NewNotFoundError("post", id)
		}
		return nil, models.NewStoreUnavailableError(err)
	}
	return &post, nil
}

// ListPostsByAcademy returns every post in the academy. Ordering is
// unspecified.
func (s *PostService) ListPostsByAcademy(ctx context.Context, academyID string) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.store.List(ctx, docstore.CollectionPosts, func(data []byte) error {
		var p models.Post
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.AcademyID == academyID {
			posts = append(posts, &p)
		}
		return nil
	})
	if err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

type DeletePostInput struct {
	PostID string
	UserID string
}

// DeletePost removes the post and its comments. Only the author or the
// academy creator may delete.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.GetPost(ctx, in.PostID)
	if err != nil {
		return err
	}

	allowed := identity.Equal(post.AuthorID, in.UserID)
	if !allowed {
		var academy models.Academy
		if err := s.store.Get(ctx, docstore.CollectionAcademies, post.AcademyID, &academy); err == nil {
			allowed = academy.IsCreator(in.UserID)
		}
	}
	if !allowed {
		return models.NewPermissionDeniedError("You can only delete your own posts")
	}

	var commentIDs []string
	err = s.store.List(ctx, docstore.CollectionComments, func(data []byte) error {
		var c models.Comment
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		if c.PostID == in.PostID {
			commentIDs = append(commentIDs, c.ID)
		}
		return nil
	})
	if err != nil {
		return models.NewStoreUnavailableError(err)
	}
	for _, commentID := range commentIDs {
		if err := s.store.Delete(ctx, docstore.CollectionComments, commentID); err != nil {
			return models.NewStoreUnavailableError(err)
		}
	}

	if err := s.store.Delete(ctx, docstore.CollectionPosts, in.PostID); err != nil {
		return models.NewStoreUnavailableError(err)
	}
	return nil
}

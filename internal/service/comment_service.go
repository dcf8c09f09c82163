package service

import (
	"context"
	"encoding/json"
	"errors"

	"academia/internal/docstore"
	"academia/internal/engagement"
	"academia/internal/identity"
	"academia/internal/middleware"
	"academia/internal/models"

	"github.com/google/uuid"
)

// CommentService manages comment documents and keeps the parent post's
// denormalized comment counter paired with creation and deletion.
type CommentService struct {
	store      docstore.Store
	engagement *engagement.Service
}

func NewCommentService(store docstore.Store, eng *engagement.Service) *CommentService {
	return &CommentService{store: store, engagement: eng}
}

type CreateCommentInput struct {
	PostID    string
	AuthorRef any
	Text      string
}

type DeleteCommentInput struct {
	CommentID string
	UserID    string
}

// CreateComment writes the comment document, then increments the parent
// post's counter. The two writes are not atomic: a crash between them leaves
// the counter one low until the next paired operation. The window is
// accepted and logged rather than closed.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	authorID := identity.Normalize(in.AuthorRef)
	if authorID == identity.Absent {
		return nil, models.NewValidationError("author reference is required")
	}
	if in.Text == "" {
		return nil, models.NewValidationError("Text is required")
	}
	const maxCommentLen = 10000
	if len(in.Text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	var post models.Post
	if err := s.store.Get(ctx, docstore.CollectionPosts, in.PostID, &post); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, models.NewNotFoundError("post", in.PostID)
		}
		return nil, models.NewStoreUnavailableError(err)
	}

	comment := &models.Comment{
		ID:       uuid.NewString(),
		PostID:   in.PostID,
		AuthorID: authorID,
		Text:     in.Text,
	}
	if err := s.store.Put(ctx, docstore.CollectionComments, comment.ID, comment); err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}

	if _, err := s.engagement.IncrementCommentCount(ctx, in.PostID); err != nil {
		middleware.Logger.WarnContext(ctx, "comment counter increment failed after create",
			"post_id", in.PostID, "comment_id", comment.ID, "error", err.Error())
	}
	return comment, nil
}

// ListComments returns every comment under the post. Ordering is unspecified.
func (s *CommentService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return nil, err
	}

	var comments []*models.Comment
	err := s.store.List(ctx, docstore.CollectionComments, func(data []byte) error {
		var c models.Comment
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		if c.PostID == postID {
			comments = append(comments, &c)
		}
		return nil
	})
	if err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

// DeleteComment removes the comment, then decrements the parent post's
// counter. Only the author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	var comment models.Comment
	if err := s.store.Get(ctx, docstore.CollectionComments, in.CommentID, &comment); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, models.NewNotFoundError("comment", in.CommentID)
		}
		return nil, models.NewStoreUnavailableError(err)
	}
	if !identity.Equal(comment.AuthorID, in.UserID) {
		return nil, models.NewPermissionDeniedError("You can only delete your own comments")
	}

	if err := s.store.Delete(ctx, docstore.CollectionComments, in.CommentID); err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}

	if _, err := s.engagement.DecrementCommentCount(ctx, comment.PostID); err != nil {
		middleware.Logger.WarnContext(ctx, "comment counter decrement failed after delete",
			"post_id", comment.PostID, "comment_id", in.CommentID, "error", err.Error())
	}
	return &comment, nil
}

func (s *CommentService) getPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	if err := s.store.Get(ctx, docstore.CollectionPosts, postID, &post); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, models.NewNotFoundError("post", postID)
		}
		return nil, models.NewStoreUnavailableError(err)
	}
	return &post, nil
}

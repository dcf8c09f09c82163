// Package engagement implements like toggles and denormalized comment counts
// on posts.
package engagement

import (
	"context"
	"errors"
	"time"

	"academia/internal/docstore"
	"academia/internal/identity"
	"academia/internal/models"
	"academia/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Service toggles likes and maintains the comment counter on posts.
//
// Like the membership toggle, every mutation here is read-modify-write on
// the whole post document. LikedBy and Likes are always written together so
// they agree under sequential operations; concurrent toggles race and the
// last write wins.
type Service struct {
	store docstore.Store
	log   *observability.ToggleLogger
	now   func() time.Time
}

// NewService creates an engagement Service backed by the given store.
func NewService(store docstore.Store) *Service {
	return &Service{
		store: store,
		log:   observability.NewToggleLogger("like"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ToggleLikeInput carries the parameters for a like toggle. UserRef is the
// raw user reference as decoded from the request.
type ToggleLikeInput struct {
	PostID  string
	UserRef any
}

// ToggleLike flips the user's like on the post and returns the updated post
// along with whether the user now likes it.
func (s *Service) ToggleLike(ctx context.Context, input ToggleLikeInput) (*models.Post, bool, error) {
	span, ctx := observability.NewSpan(ctx, "engagement.ToggleLike")
	defer span.End()

	if input.PostID == "" {
		err := models.NewValidationError("post id is required")
		span.SetError(err)
		return nil, false, err
	}
	userID := identity.Normalize(input.UserRef)
	if userID == identity.Absent {
		err := models.NewValidationError("user reference is required")
		span.SetError(err)
		return nil, false, err
	}
	span.AddAttributes(
		attribute.String("post.id", input.PostID),
		attribute.String("user.id", userID),
	)

	var post models.Post
	if err := s.store.Get(ctx, docstore.CollectionPosts, input.PostID, &post); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			nf := models.NewNotFoundError("post", input.PostID)
			span.SetError(nf)
			return nil, false, nf
		}
		s.log.LogError(ctx, input.PostID, err)
		span.SetError(err)
		observability.RecordToggleFailure("like", models.CodeStoreUnavailable)
		return nil, false, models.NewStoreUnavailableError(err)
	}

	liking := !post.LikedByUser(userID)

	// Rewrite LikedBy and Likes together from this snapshot.
	likedBy := make([]identity.Ref, 0, len(post.LikedBy)+1)
	for _, ref := range post.LikedBy {
		if identity.Equal(ref, userID) {
			continue
		}
		likedBy = append(likedBy, ref)
	}
	if liking {
		likedBy = append(likedBy, identity.Bare(userID))
	}
	post.LikedBy = likedBy
	post.Likes = len(likedBy)

	if err := s.store.Put(ctx, docstore.CollectionPosts, input.PostID, &post); err != nil {
		s.log.LogError(ctx, input.PostID, err)
		span.SetError(err)
		observability.RecordToggleFailure("like", models.CodeStoreUnavailable)
		return nil, false, models.NewStoreUnavailableError(err)
	}

	var updated models.Post
	if err := s.store.Get(ctx, docstore.CollectionPosts, input.PostID, &updated); err != nil {
		s.log.LogError(ctx, input.PostID, err)
		span.SetError(err)
		return nil, false, models.NewStoreUnavailableError(err)
	}

	s.log.LogToggle(ctx, input.PostID, userID, liking)
	observability.RecordToggle("like", liking)
	return &updated, liking, nil
}

// IncrementCommentCount raises the post's comment counter by one. Called
// alongside every comment creation.
func (s *Service) IncrementCommentCount(ctx context.Context, postID string) (*models.Post, error) {
	return s.adjustCommentCount(ctx, postID, 1)
}

// DecrementCommentCount lowers the post's comment counter by one, never
// below zero. Called alongside every comment deletion.
func (s *Service) DecrementCommentCount(ctx context.Context, postID string) (*models.Post, error) {
	return s.adjustCommentCount(ctx, postID, -1)
}

func (s *Service) adjustCommentCount(ctx context.Context, postID string, delta int) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "engagement.adjustCommentCount")
	defer span.End()
	span.AddAttributes(
		attribute.String("post.id", postID),
		attribute.Int("delta", delta),
	)

	if postID == "" {
		err := models.NewValidationError("post id is required")
		span.SetError(err)
		return nil, err
	}

	var post models.Post
	if err := s.store.Get(ctx, docstore.CollectionPosts, postID, &post); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			nf := models.NewNotFoundError("post", postID)
			span.SetError(nf)
			return nil, nf
		}
		span.SetError(err)
		return nil, models.NewStoreUnavailableError(err)
	}

	post.Comments += delta
	if post.Comments < 0 {
		post.Comments = 0
	}

	if err := s.store.Put(ctx, docstore.CollectionPosts, postID, &post); err != nil {
		s.log.LogError(ctx, postID, err)
		span.SetError(err)
		return nil, models.NewStoreUnavailableError(err)
	}
	return &post, nil
}

package engagement

import (
	"context"
	"testing"

	"academia/internal/docstore"
	"academia/internal/identity"
	"academia/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) docstore.Store {
	t.Helper()
	store, err := docstore.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedPost(t *testing.T, store docstore.Store, id string, likedBy ...string) {
	t.Helper()
	post := &models.Post{
		ID:        id,
		AcademyID: "a1",
		AuthorID:  "author-1",
		Title:     "Generics in practice",
	}
	for _, u := range likedBy {
		post.LikedBy = append(post.LikedBy, identity.Bare(u))
	}
	post.Likes = len(post.LikedBy)
	require.NoError(t, store.Put(context.Background(), docstore.CollectionPosts, id, post))
}

func TestToggleLike_LikeThenUnlike(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	seedPost(t, store, "p1")

	post, liked, err := svc.ToggleLike(context.Background(), ToggleLikeInput{PostID: "p1", UserRef: "u1"})
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, post.Likes)
	assert.True(t, post.LikedByUser("u1"))

	post, liked, err = svc.ToggleLike(context.Background(), ToggleLikeInput{PostID: "p1", UserRef: "u1"})
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, post.Likes)
	assert.False(t, post.LikedByUser("u1"))
}

// Likes must track len(LikedBy) through any sequential mix of likes and
// unlikes from any mix of reference shapes.
func TestToggleLike_CounterTracksSet(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	seedPost(t, store, "p1")

	refs := []any{
		"u1",
		map[string]any{"userId": "u2"},
		map[string]any{"userId": map[string]any{"id": "u3"}},
		"u1", // unlike
		"u2", // unlike, same user as the embedded shape
	}

	var post *models.Post
	var err error
	for _, ref := range refs {
		post, _, err = svc.ToggleLike(context.Background(), ToggleLikeInput{PostID: "p1", UserRef: ref})
		require.NoError(t, err)
		assert.Equal(t, len(post.LikedBy), post.Likes)
	}

	assert.Equal(t, 1, post.Likes)
	assert.True(t, post.LikedByUser("u3"))
}

func TestToggleLike_Errors(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)

	tests := []struct {
		name  string
		input ToggleLikeInput
		code  string
	}{
		{"missing post id", ToggleLikeInput{UserRef: "u1"}, models.CodeValidation},
		{"absent user", ToggleLikeInput{PostID: "p1"}, models.CodeValidation},
		{"unknown post", ToggleLikeInput{PostID: "missing", UserRef: "u1"}, models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.ToggleLike(context.Background(), tt.input)
			require.Error(t, err)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestCommentCount_FloorsAtZero(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)
	seedPost(t, store, "p1")

	post, err := svc.IncrementCommentCount(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, post.Comments)

	post, err = svc.DecrementCommentCount(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, post.Comments)

	// Decrementing an already-zero counter stays at zero.
	post, err = svc.DecrementCommentCount(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, post.Comments)
}

func TestCommentCount_UnknownPost(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store)

	_, err := svc.IncrementCommentCount(context.Background(), "missing")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

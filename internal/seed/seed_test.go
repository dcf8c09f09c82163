package seed

import (
	"context"
	"encoding/json"
	"testing"

	"academia/internal/docstore"
	"academia/internal/models"
	"academia/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ProducesConsistentData(t *testing.T) {
	store, err := docstore.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	opts := Options{
		Users:           6,
		Academies:       2,
		PostsPerAcademy: 3,
		CommentsPerPost: 2,
		LikeRatio:       0.5,
		JoinRatio:       0.5,
		Password:        "passw0rd123",
	}
	f := NewFactory(store, "seed-test-secret", opts)
	require.NoError(t, f.Run(context.Background()))

	ctx := context.Background()

	var academies []models.Academy
	require.NoError(t, store.List(ctx, docstore.CollectionAcademies, func(data []byte) error {
		var a models.Academy
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		academies = append(academies, a)
		return nil
	}))
	require.Len(t, academies, opts.Academies)

	commentsByPost := map[string]int{}
	require.NoError(t, store.List(ctx, docstore.CollectionComments, func(data []byte) error {
		var c models.Comment
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		commentsByPost[c.PostID]++
		return nil
	}))

	posts := 0
	require.NoError(t, store.List(ctx, docstore.CollectionPosts, func(data []byte) error {
		var p models.Post
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		posts++
		// The like counter always equals the size of the likedBy set.
		assert.Equal(t, len(p.LikedBy), p.Likes)
		// The comment counter tracks the comment collection.
		assert.Equal(t, commentsByPost[p.ID], p.Comments)
		return nil
	}))
	assert.Equal(t, opts.Academies*opts.PostsPerAcademy, posts)
}

func TestAcademyNamePassesValidation(t *testing.T) {
	store, err := docstore.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := NewFactory(store, "seed-test-secret", DefaultOptions())
	for i := 0; i < 50; i++ {
		name := f.academyName()
		assert.NoError(t, validation.ValidateAcademyName(name), "generated name %q", name)
	}
}

package service

import (
	"context"
	"testing"

	"academia/internal/docstore"
	"academia/internal/engagement"
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

func TestAcademyService_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	svc := NewAcademyService(store)

	academy, err := svc.CreateAcademy(context.Background(), CreateAcademyInput{
		Name:      "Go Study Group",
		Category:  "engineering",
		CreatedBy: "u1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, academy.ID)
	assert.Equal(t, "u1", academy.CreatedBy)
	assert.Empty(t, academy.Members)

	got, err := svc.GetAcademy(context.Background(), academy.ID)
	require.NoError(t, err)
	assert.Equal(t, academy.Name, got.Name)
	assert.True(t, got.IsCreator("u1"))
}

func TestAcademyService_CreateValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewAcademyService(store)

	tests := []struct {
		name  string
		input CreateAcademyInput
	}{
		{"missing name", CreateAcademyInput{Category: "eng", CreatedBy: "u1"}},
		{"reserved name", CreateAcademyInput{Name: "admin", Category: "eng", CreatedBy: "u1"}},
		{"missing creator", CreateAcademyInput{Name: "Go Study Group", Category: "eng"}},
		{"missing category", CreateAcademyInput{Name: "Go Study Group", CreatedBy: "u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAcademy(context.Background(), tt.input)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
		})
	}
}

func TestAcademyService_UpdateRequiresCreator(t *testing.T) {
	store := newTestStore(t)
	svc := NewAcademyService(store)

	academy, err := svc.CreateAcademy(context.Background(), CreateAcademyInput{
		Name: "Go Study Group", Category: "engineering", CreatedBy: "u1",
	})
	require.NoError(t, err)

	_, err = svc.UpdateAcademy(context.Background(), UpdateAcademyInput{
		AcademyID: academy.ID, UserID: "u2", Description: "taken over",
	})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodePermissionDenied, appErr.Code)

	updated, err := svc.UpdateAcademy(context.Background(), UpdateAcademyInput{
		AcademyID: academy.ID, UserID: "u1", Description: "weekly sessions",
	})
	require.NoError(t, err)
	assert.Equal(t, "weekly sessions", updated.Description)
}

func TestAcademyService_DeleteCascades(t *testing.T) {
	store := newTestStore(t)
	academySvc := NewAcademyService(store)
	postSvc := NewPostService(store)
	commentSvc := NewCommentService(store, engagement.NewService(store))

	academy, err := academySvc.CreateAcademy(context.Background(), CreateAcademyInput{
		Name: "Go Study Group", Category: "engineering", CreatedBy: "u1",
	})
	require.NoError(t, err)

	post, err := postSvc.CreatePost(context.Background(), CreatePostInput{
		AcademyID: academy.ID, AuthorRef: "u1", Title: "Channels",
	})
	require.NoError(t, err)

	comment, err := commentSvc.CreateComment(context.Background(), CreateCommentInput{
		PostID: post.ID, AuthorRef: "u1", Text: "nice",
	})
	require.NoError(t, err)

	require.NoError(t, academySvc.DeleteAcademy(context.Background(), academy.ID, "u1"))

	_, err = academySvc.GetAcademy(context.Background(), academy.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	_, err = postSvc.GetPost(context.Background(), post.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	err = store.Get(context.Background(), docstore.CollectionComments, comment.ID, &models.Comment{})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestAcademyService_DeleteRequiresCreator(t *testing.T) {
	store := newTestStore(t)
	svc := NewAcademyService(store)

	academy, err := svc.CreateAcademy(context.Background(), CreateAcademyInput{
		Name: "Go Study Group", Category: "engineering", CreatedBy: "u1",
	})
	require.NoError(t, err)

	err = svc.DeleteAcademy(context.Background(), academy.ID, "u2")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodePermissionDenied, appErr.Code)
}

func TestAcademyService_ListReturnsEmptySlice(t *testing.T) {
	store := newTestStore(t)
	svc := NewAcademyService(store)

	academies, err := svc.ListAcademies(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, academies)
	assert.Empty(t, academies)
}

// Package service contains the application services above the document store.
package service

import (
	"context"
	"encoding/json"
	"errors"

	"academia/internal/docstore"
	"academia/internal/identity"
	"academia/internal/models"
	"academia/internal/validation"

	"github.com/google/uuid"
)

// AcademyService manages academy documents. Membership toggling lives in the
// membership package; this service covers the CRUD surface around it.
type AcademyService struct {
	store docstore.Store
}

func NewAcademyService(store docstore.Store) *AcademyService {
	return &AcademyService{store: store}
}

type CreateAcademyInput struct {
	Name        string
	Category    string
	Description string
	LogoURL     string
	BannerURL   string
	CreatedBy   string
}

type UpdateAcademyInput struct {
	AcademyID   string
	UserID      string
	Name        string
	Category    string
	Description string
	LogoURL     string
	BannerURL   string
}

func (s *AcademyService) CreateAcademy(ctx context.Context, in CreateAcademyInput) (*models.Academy, error) {
	if err := validation.ValidateAcademyName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.CreatedBy == "" {
		return nil, models.NewValidationError("creator is required")
	}
	if in.Category == "" {
		return nil, models.NewValidationError("category is required")
	}

	academy := &models.Academy{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		LogoURL:     in.LogoURL,
		BannerURL:   in.BannerURL,
		CreatedBy:   identity.Normalize(in.CreatedBy),
		Members:     []models.Member{},
	}
	if err := s.store.Put(ctx, docstore.CollectionAcademies, academy.ID, academy); err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	return academy, nil
}

func (s *AcademyService) GetAcademy(ctx context.Context, id string) (*models.Academy, error) {
	var academy models.Academy
	if err := s.store.Get(ctx, docstore.CollectionAcademies, id, &academy); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, models.NewNotFoundError("academy", id)
		}
		return nil, models.NewStoreUnavailableError(err)
	}
	return &academy, nil
}

// ListAcademies returns every academy document. Ordering is unspecified.
func (s *AcademyService) ListAcademies(ctx context.Context) ([]*models.Academy, error) {
	var academies []*models.Academy
	err := s.store.List(ctx, docstore.CollectionAcademies, func(data []byte) error {
		var a models.Academy
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		academies = append(academies, &a)
		return nil
	})
	if err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	if academies == nil {
		academies = []*models.Academy{}
	}
	return academies, nil
}

func (s *AcademyService) UpdateAcademy(ctx context.Context, in UpdateAcademyInput) (*models.Academy, error) {
	academy, err := s.GetAcademy(ctx, in.AcademyID)
	if err != nil {
		return nil, err
	}
	if !academy.IsCreator(in.UserID) {
		return nil, models.NewPermissionDeniedError("Only the creator can update an academy")
	}

	if in.Name != "" {
		if err := validation.ValidateAcademyName(in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		academy.Name = in.Name
	}
	if in.Category != "" {
		academy.Category = in.Category
	}
	if in.Description != "" {
		academy.Description = in.Description
	}
	if in.LogoURL != "" {
		academy.LogoURL = in.LogoURL
	}
	if in.BannerURL != "" {
		academy.BannerURL = in.BannerURL
	}

	if err := s.store.Put(ctx, docstore.CollectionAcademies, academy.ID, academy); err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	return academy, nil
}

// DeleteAcademy removes the academy and cascades to its posts and their
// comments. The cascade is a sequence of independent deletes; a failure
// partway leaves earlier deletes in place.
func (s *AcademyService) DeleteAcademy(ctx context.Context, academyID, userID string) error {
	academy, err := s.GetAcademy(ctx, academyID)
	if err != nil {
		return err
	}
	if !academy.IsCreator(userID) {
		return models.NewPermissionDeniedError("Only the creator can delete an academy")
	}

	var postIDs []string
	err = s.store.List(ctx, docstore.CollectionPosts, func(data []byte) error {
		var p models.Post
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.AcademyID == academyID {
			postIDs = append(postIDs, p.ID)
		}
		return nil
	})
	if err != nil {
		return models.NewStoreUnavailableError(err)
	}

	for _, postID := range postIDs {
		var commentIDs []string
		err = s.store.List(ctx, docstore.CollectionComments, func(data []byte) error {
			var c models.Comment
			if err := json.Unmarshal(data, &c); err != nil {
				return err
			}
			if c.PostID == postID {
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
		if err := s.store.Delete(ctx, docstore.CollectionPosts, postID); err != nil {
			return models.NewStoreUnavailableError(err)
		}
	}

	if err := s.store.Delete(ctx, docstore.CollectionAcademies, academyID); err != nil {
		return models.NewStoreUnavailableError(err)
	}
	return nil
}

// Package membership implements the academy join/leave toggle.
package membership

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

// Service toggles a user's membership in an academy.
//
// A toggle is read-modify-write on the whole academy document: the members
// array is rebuilt from the snapshot read at the start of the operation and
// written back in full. Two concurrent toggles on the same academy therefore
// race, and the last write wins; membership is not an atomic set operation.
type Service struct {
	store docstore.Store
	log   *observability.ToggleLogger
	now   func() time.Time
}

// NewService creates a membership Service backed by the given store.
func NewService(store docstore.Store) *Service {
	return &Service{
		store: store,
		log:   observability.NewToggleLogger("membership"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ToggleInput carries the parameters for a membership toggle. UserRef is the
// raw user reference as decoded from the request and may be a bare string or
// an object embedding one.
type ToggleInput struct {
	AcademyID string
	UserRef   any
}

// Toggle flips the user's membership in the academy and returns the updated
// document along with whether the user is now a member.
func (s *Service) Toggle(ctx context.Context, input ToggleInput) (*models.Academy, bool, error) {
	span, ctx := observability.NewSpan(ctx, "membership.Toggle")
	defer span.End()

	if input.AcademyID == "" {
		err := models.NewValidationError("academy id is required")
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
		attribute.String("academy.id", input.AcademyID),
		attribute.String("user.id", userID),
	)

	var academy models.Academy
	if err := s.store.Get(ctx, docstore.CollectionAcademies, input.AcademyID, &academy); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			nf := models.NewNotFoundError("academy", input.AcademyID)
			span.SetError(nf)
			return nil, false, nf
		}
		s.log.LogError(ctx, input.AcademyID, err)
		span.SetError(err)
		observability.RecordToggleFailure("membership", models.CodeStoreUnavailable)
		return nil, false, models.NewStoreUnavailableError(err)
	}

	joining := !academy.HasMember(userID)

	// Rebuild the whole members array from this snapshot. Existing rows keep
	// their JoinedAt verbatim; only this user's row is added or dropped.
	members := make([]models.Member, 0, len(academy.Members)+1)
	for _, m := range academy.Members {
		if identity.Equal(m.UserID, userID) {
			continue
		}
		members = append(members, m)
	}
	if joining {
		members = append(members, models.Member{
			UserID:   identity.Bare(userID),
			JoinedAt: s.now(),
		})
	}
	academy.Members = members

	if err := s.store.Put(ctx, docstore.CollectionAcademies, input.AcademyID, &academy); err != nil {
		s.log.LogError(ctx, input.AcademyID, err)
		span.SetError(err)
		observability.RecordToggleFailure("membership", models.CodeStoreUnavailable)
		return nil, false, models.NewStoreUnavailableError(err)
	}

	// Return the document as the store now holds it, so the caller can
	// replace its copy wholesale.
	var updated models.Academy
	if err := s.store.Get(ctx, docstore.CollectionAcademies, input.AcademyID, &updated); err != nil {
		s.log.LogError(ctx, input.AcademyID, err)
		span.SetError(err)
		return nil, false, models.NewStoreUnavailableError(err)
	}

	s.log.LogToggle(ctx, input.AcademyID, userID, joining)
	observability.RecordToggle("membership", joining)
	return &updated, joining, nil
}

// IsMember reports whether the user currently holds membership in the
// academy, either explicitly or as its creator.
func (s *Service) IsMember(ctx context.Context, academyID string, userRef any) (bool, error) {
	userID := identity.Normalize(userRef)
	if userID == identity.Absent {
		return false, nil
	}

	var academy models.Academy
	if err := s.store.Get(ctx, docstore.CollectionAcademies, academyID, &academy); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return false, models.NewNotFoundError("academy", academyID)
		}
		return false, models.NewStoreUnavailableError(err)
	}
	return academy.HasMember(userID) || academy.IsCreator(userID), nil
}

package server

import (
	"context"
	"encoding/json"

	"academia/internal/bus"
	"academia/internal/cache"
	"academia/internal/membership"
	"academia/internal/models"
	"academia/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateAcademy handles academy creation
// @Summary Create academy
// @Tags academies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /academies [post]
func (s *Server) CreateAcademy(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Category    string `json:"category"`
		Description string `json:"description"`
		LogoURL     string `json:"logoUrl"`
		BannerURL   string `json:"bannerUrl"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	academy, err := s.academyService.CreateAcademy(c.Context(), service.CreateAcademyInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		BannerURL:   req.BannerURL,
		CreatedBy:   currentUserID(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	// New academy must show up in the next listing read.
	cache.Invalidate(c.Context(), cache.AcademyListingKey)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": academy})
}

// GetAcademies lists all academies, served from cache unless refresh=true
// @Summary List academies
// @Tags academies
// @Produce json
// @Param refresh query bool false "Bypass the cache and re-read from the store"
// @Success 200 {object} map[string]interface{}
// @Router /academies [get]
func (s *Server) GetAcademies(c *fiber.Ctx) error {
	force := c.QueryBool("refresh", false)
	// With the flag off every read goes straight to the store.
	if !s.featureFlags.Enabled("listing_cache", currentUserID(c), true) {
		force = true
	}

	data, err := cache.ListingAside(c.Context(), force, func(ctx context.Context) (json.RawMessage, error) {
		academies, err := s.academyService.ListAcademies(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(academies)
		if err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

// GetAcademy fetches a single academy by ID
// @Summary Get academy
// @Tags academies
// @Produce json
// @Param id path string true "Academy ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Router /academies/{id} [get]
func (s *Server) GetAcademy(c *fiber.Ctx) error {
	id, err := requireParam(c, "id", "academy ID")
	if err != nil {
		return nil
	}

	var cached models.Academy
	if cache.GetJSON(c.Context(), cache.AcademyKey(id), &cached) {
		return c.JSON(fiber.Map{"success": true, "data": cached})
	}

	academy, err := s.academyService.GetAcademy(c.Context(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	cache.SetJSON(c.Context(), cache.AcademyKey(id), academy, cache.AcademyTTL)

	return c.JSON(fiber.Map{"success": true, "data": academy})
}

// UpdateAcademy applies partial updates to an academy. Creator only.
// @Summary Update academy
// @Tags academies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Academy ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} models.ErrorResponse
// @Router /academies/{id} [put]
func (s *Server) UpdateAcademy(c *fiber.Ctx) error {
	id, err := requireParam(c, "id", "academy ID")
	if err != nil {
		return nil
	}

	var req struct {
		Name        string `json:"name"`
		Category    string `json:"category"`
		Description string `json:"description"`
		LogoURL     string `json:"logoUrl"`
		BannerURL   string `json:"bannerUrl"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	academy, err := s.academyService.UpdateAcademy(c.Context(), service.UpdateAcademyInput{
		AcademyID:   id,
		UserID:      currentUserID(c),
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		BannerURL:   req.BannerURL,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	cache.InvalidateAcademy(c.Context(), id)

	return c.JSON(fiber.Map{"success": true, "data": academy})
}

// DeleteAcademy removes an academy and its posts and comments. Creator only.
// @Summary Delete academy
// @Tags academies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Academy ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} models.ErrorResponse
// @Router /academies/{id} [delete]
func (s *Server) DeleteAcademy(c *fiber.Ctx) error {
	id, err := requireParam(c, "id", "academy ID")
	if err != nil {
		return nil
	}

	if err := s.academyService.DeleteAcademy(c.Context(), id, currentUserID(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}

	cache.InvalidateAcademy(c.Context(), id)

	return c.JSON(fiber.Map{"success": true, "message": "Academy deleted"})
}

// ToggleMembership flips the authenticated user's membership in the academy.
// The full updated academy document is returned so clients can replace their
// local copy wholesale.
// @Summary Toggle membership
// @Tags academies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Academy ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Router /academies/{id}/membership [post]
func (s *Server) ToggleMembership(c *fiber.Ctx) error {
	academyID, err := requireParam(c, "id", "academy ID")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	updated, joining, err := s.membershipService.Toggle(c.Context(), membership.ToggleInput{
		AcademyID: academyID,
		UserRef:   userID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	// Member counts are embedded in both the entity and the listing.
	cache.InvalidateAcademy(c.Context(), academyID)

	s.bus.Publish(c.UserContext(), bus.MembershipEvent{
		AcademyID: academyID,
		Academy:   updated,
		IsJoining: joining,
		UserID:    userID,
	})

	return c.JSON(fiber.Map{
		"success":   true,
		"data":      updated,
		"isJoining": joining,
	})
}

package server

import (
	"encoding/json"
	"log"

	"academia/internal/cache"
	"academia/internal/engagement"
	"academia/internal/models"
	"academia/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost creates a post inside an academy. Members only.
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Academy ID"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} models.ErrorResponse
// @Router /academies/{id}/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	academyID, err := requireParam(c, "id", "academy ID")
	if err != nil {
		return nil
	}

	var req struct {
		Title    string `json:"title"`
		Caption  string `json:"caption"`
		MediaURL string `json:"mediaUrl"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		AcademyID: academyID,
		AuthorRef: currentUserID(c),
		Title:     req.Title,
		Caption:   req.Caption,
		MediaURL:  req.MediaURL,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": post})
}

// GetAcademyPosts lists the posts of an academy
// @Summary List academy posts
// @Tags posts
// @Produce json
// @Param id path string true "Academy ID"
// @Success 200 {object} map[string]interface{}
// @Router /academies/{id}/posts [get]
func (s *Server) GetAcademyPosts(c *fiber.Ctx) error {
	academyID, err := requireParam(c, "id", "academy ID")
	if err != nil {
		return nil
	}

	posts, err := s.postService.ListPostsByAcademy(c.Context(), academyID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": posts})
}

// GetPost fetches a single post by ID
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := requireParam(c, "id", "post ID")
	if err != nil {
		return nil
	}

	var cached models.Post
	if cache.GetJSON(c.Context(), cache.PostKey(id), &cached) {
		return c.JSON(fiber.Map{"success": true, "data": cached})
	}

	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	cache.SetJSON(c.Context(), cache.PostKey(id), post, cache.PostTTL)

	return c.JSON(fiber.Map{"success": true, "data": post})
}

// DeletePost removes a post. Author or academy creator only.
// @Summary Delete post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := requireParam(c, "id", "post ID")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), service.DeletePostInput{
		PostID: id,
		UserID: currentUserID(c),
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}

	cache.InvalidatePost(c.Context(), id)

	return c.JSON(fiber.Map{"success": true, "message": "Post deleted"})
}

// ToggleLike flips the authenticated user's like on the post. The updated
// post is returned whole; the like count always equals the size of the
// likedBy set.
// @Summary Toggle like
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := requireParam(c, "id", "post ID")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	post, liked, err := s.engagementService.ToggleLike(c.Context(), engagement.ToggleLikeInput{
		PostID:  postID,
		UserRef: userID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	cache.InvalidatePost(c.Context(), postID)
	s.publishLikeChange(c, post, liked, userID)

	message := "Post unliked"
	if liked {
		message = "Post liked"
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    post,
		"liked":   liked,
		"likes":   post.Likes,
		"message": message,
	})
}

// publishLikeChange pushes the like event to connected clients, through
// Redis when available and straight into the local hub otherwise.
func (s *Server) publishLikeChange(c *fiber.Ctx, post *models.Post, liked bool, userID string) {
	if !s.featureFlags.Enabled("realtime", userID, true) {
		return
	}
	ctx := c.UserContext()
	if s.redis != nil {
		if err := s.notifier.PublishLikeChange(ctx, post.AcademyID, post.ID, post.Likes, liked, userID); err != nil {
			log.Printf("publish like event: %v", err)
		}
		return
	}
	data, err := json.Marshal(wsFrame{Type: EventLikeChanged, Payload: fiber.Map{
		"postId": post.ID,
		"likes":  post.Likes,
		"liked":  liked,
		"userId": userID,
	}})
	if err != nil {
		return
	}
	s.hub.BroadcastAll(string(data))
}

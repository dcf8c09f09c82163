package server

import (
	"academia/internal/cache"
	"academia/internal/models"
	"academia/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment adds a comment to a post and bumps its comment counter.
// @Summary Create comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := requireParam(c, "id", "post ID")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		PostID:    postID,
		AuthorRef: currentUserID(c),
		Text:      req.Text,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	// The cached post embeds the comment counter.
	cache.InvalidatePost(c.Context(), postID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": comment})
}

// GetComments lists the comments of a post
// @Summary List comments
// @Tags comments
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]interface{}
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := requireParam(c, "id", "post ID")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.Context(), postID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": comments})
}

// DeleteComment removes a comment and decrements the post's counter. Author only.
// @Summary Delete comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := requireParam(c, "id", "post ID")
	if err != nil {
		return nil
	}
	commentID, err := requireParam(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	if _, err := s.commentService.DeleteComment(c.Context(), service.DeleteCommentInput{
		CommentID: commentID,
		UserID:    currentUserID(c),
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}

	cache.InvalidatePost(c.Context(), postID)

	return c.JSON(fiber.Map{"success": true, "message": "Comment deleted"})
}

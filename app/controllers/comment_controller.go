package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chatico/mapper/app/models"
	"github.com/chatico/mapper/app/repository"
)

// CommentController exposes stored comments for operators checking whether
// a specific delivery was processed.
type CommentController struct {
	repo repository.CommentRepository
}

func NewCommentController(repo repository.CommentRepository) *CommentController {
	return &CommentController{repo: repo}
}

// commentResponse decorates a stored comment with derived fields.
type commentResponse struct {
	models.Comment
	IsReply     bool      `json:"is_reply"`
	CommentTime time.Time `json:"comment_time"`
}

// HandleGet returns one stored comment by its platform comment ID.
func (cc *CommentController) HandleGet(c *fiber.Ctx) error {
	commentID := c.Params("id")
	if commentID == "" {
		return badRequest(c, "Missing comment ID")
	}

	comment, err := cc.repo.GetByCommentID(c.UserContext(), commentID)
	if err != nil {
		log.Printf("failed to load comment %s: %v", commentID, err)
		return internalError(c)
	}
	if comment == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "Comment not found",
		})
	}

	return c.JSON(commentResponse{
		Comment:     *comment,
		IsReply:     comment.IsReply(),
		CommentTime: comment.CommentTime(),
	})
}

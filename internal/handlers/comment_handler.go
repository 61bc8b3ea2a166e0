package handlers

import (
	"net/http"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to tip comments and replies
type CommentHandler struct {
	commentRepository repositories.TipCommentRepository
	contentRepository repositories.ContentRepository // To check tips and update comment counts
	notifier          services.NotificationAggregator
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.TipCommentRepository, contentRepo repositories.ContentRepository, notifier services.NotificationAggregator) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		contentRepository: contentRepo,
		notifier:          notifier,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/tips/:tip_id/comments", h.CreateComment)
	g.GET("/tips/:tip_id/comments", h.GetCommentsByTipID)
	g.DELETE("/tip-comments/:id", h.DeleteComment)
}

// CreateComment creates a comment on a tip, or a reply when parent_id is set.
// Comments notify the tip owner; replies notify the parent comment's author.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}
	tipID := c.Param("tip_id")
	ctx := c.Request().Context()

	var req models.CreateTipCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tip, err := h.contentRepository.GetTipByID(ctx, tipID)
	if err != nil {
		return lookupError(err, "Tip not found")
	}

	recipientID, kind := tip.UserID, models.KindTipComment
	if req.ParentID != nil {
		parent, err := h.commentRepository.GetCommentByID(ctx, *req.ParentID)
		if err != nil {
			return lookupError(err, "Parent comment not found")
		}
		if parent.TipID != tipID {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment belongs to another tip")
		}
		recipientID, kind = parent.UserID, models.KindTipReply
	}

	comment := &models.TipComment{
		TipID:    tipID,
		UserID:   uid,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	err = h.contentRepository.IncrementTipCounter(ctx, tipID, repositories.CounterComments, 1)
	logCounterError(c, err, tipID, repositories.CounterComments)

	h.notifier.AddEngagement(ctx, recipientID, uid, kind, tipID, tip.Display(req.Content))

	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsByTipID retrieves all comments for a specific tip
func (h *CommentHandler) GetCommentsByTipID(c echo.Context) error {
	tipID := c.Param("tip_id")

	if _, err := h.contentRepository.GetTipByID(c.Request().Context(), tipID); err != nil {
		return lookupError(err, "Tip not found")
	}

	comments, err := h.commentRepository.GetCommentsByTipID(c.Request().Context(), tipID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, comments)
}

// DeleteComment deletes the authenticated user's comment. Its notification is
// withdrawn once the user has nothing left in the same thread.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return lookupError(err, "Comment not found")
	}
	// Ensure the user deleting the comment is the owner
	if comment.UserID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	// Resolve the recipient before the delete so a reply's parent is still readable.
	var recipientID, parentAuthorID string
	kind := models.KindTipComment
	if comment.ParentID != nil {
		if parent, err := h.commentRepository.GetCommentByID(ctx, *comment.ParentID); err == nil {
			recipientID, parentAuthorID, kind = parent.UserID, parent.UserID, models.KindTipReply
		}
	} else if tip, err := h.contentRepository.GetTipByID(ctx, comment.TipID); err == nil {
		recipientID = tip.UserID
	}

	if err := h.commentRepository.DeleteComment(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	err = h.contentRepository.IncrementTipCounter(ctx, comment.TipID, repositories.CounterComments, -1)
	logCounterError(c, err, comment.TipID, repositories.CounterComments)

	if recipientID != "" {
		remaining, err := h.commentRepository.CountUserComments(ctx, comment.TipID, uid, parentAuthorID)
		if err == nil && remaining == 0 {
			h.notifier.RemoveEngagement(ctx, recipientID, uid, kind, comment.TipID)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ReviewHandler handles HTTP requests related to recipe reviews
type ReviewHandler struct {
	reviewRepository  repositories.ReviewRepository
	contentRepository repositories.ContentRepository
	notifier          services.NotificationAggregator
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewRepo repositories.ReviewRepository, contentRepo repositories.ContentRepository, notifier services.NotificationAggregator) *ReviewHandler {
	return &ReviewHandler{
		reviewRepository:  reviewRepo,
		contentRepository: contentRepo,
		notifier:          notifier,
	}
}

// RegisterReviewRoutes registers review-related routes
func (h *ReviewHandler) RegisterReviewRoutes(g *echo.Group) {
	g.POST("/recipes/:recipe_id/reviews", h.CreateReview)
	g.DELETE("/reviews/:id", h.DeleteReview)
}

// CreateReview handles reviewing a recipe
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}
	recipeID := c.Param("recipe_id")
	ctx := c.Request().Context()

	recipe, err := h.contentRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return lookupError(err, "Recipe not found")
	}

	var req models.CreateReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	review := &models.Review{RecipeID: recipeID, UserID: uid, Rating: req.Rating, Content: req.Content}
	if err := h.reviewRepository.CreateReview(ctx, review); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	err = h.contentRepository.IncrementRecipeCounter(ctx, recipeID, repositories.CounterReviews, 1)
	logCounterError(c, err, recipeID, repositories.CounterReviews)

	h.notifier.AddEngagement(ctx, recipe.UserID, uid, models.KindReview, recipeID, recipe.Display())

	return c.JSON(http.StatusCreated, review)
}

// DeleteReview deletes the authenticated user's review. The review
// notification is withdrawn once the user has no review left on the recipe.
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	review, err := h.reviewRepository.GetReviewByID(ctx, id)
	if err != nil {
		return lookupError(err, "Review not found")
	}
	if review.UserID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own reviews")
	}

	if err := h.reviewRepository.DeleteReview(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	err = h.contentRepository.IncrementRecipeCounter(ctx, review.RecipeID, repositories.CounterReviews, -1)
	logCounterError(c, err, review.RecipeID, repositories.CounterReviews)

	remaining, err := h.reviewRepository.CountUserReviews(ctx, review.RecipeID, uid)
	if err == nil && remaining == 0 {
		if recipe, err := h.contentRepository.GetRecipeByID(ctx, review.RecipeID); err == nil {
			h.notifier.RemoveEngagement(ctx, recipe.UserID, uid, models.KindReview, review.RecipeID)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to recipe and tip likes
type LikeHandler struct {
	likeRepository    repositories.LikeRepository
	contentRepository repositories.ContentRepository // To check targets and update like counts
	notifier          services.NotificationAggregator
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, contentRepo repositories.ContentRepository, notifier services.NotificationAggregator) *LikeHandler {
	return &LikeHandler{
		likeRepository:    likeRepo,
		contentRepository: contentRepo,
		notifier:          notifier,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/recipes/:recipe_id/likes", h.LikeRecipe)
	g.DELETE("/recipes/:recipe_id/likes", h.UnlikeRecipe)
	g.GET("/recipes/:recipe_id/likes/status", h.GetRecipeLikeStatus)
	g.POST("/tips/:tip_id/likes", h.LikeTip)
	g.DELETE("/tips/:tip_id/likes", h.UnlikeTip)
}

// likeTarget is the resolved owner and display of a likeable item
type likeTarget struct {
	ownerID string
	kind    models.NotificationKind
	display models.Display
	counter func(delta int) error
}

func (h *LikeHandler) resolve(c echo.Context, targetType, id string) (*likeTarget, error) {
	ctx := c.Request().Context()
	if targetType == models.LikeTargetTip {
		tip, err := h.contentRepository.GetTipByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, "Tip not found")
		}
		return &likeTarget{
			ownerID: tip.UserID,
			kind:    models.KindTipLike,
			display: tip.Display(""),
			counter: func(delta int) error {
				return h.contentRepository.IncrementTipCounter(ctx, id, repositories.CounterLikes, delta)
			},
		}, nil
	}

	recipe, err := h.contentRepository.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Recipe not found")
	}
	return &likeTarget{
		ownerID: recipe.UserID,
		kind:    models.KindLike,
		display: recipe.Display(),
		counter: func(delta int) error {
			return h.contentRepository.IncrementRecipeCounter(ctx, id, repositories.CounterLikes, delta)
		},
	}, nil
}

// LikeRecipe handles liking a recipe
func (h *LikeHandler) LikeRecipe(c echo.Context) error {
	return h.like(c, models.LikeTargetRecipe, c.Param("recipe_id"))
}

// UnlikeRecipe handles unliking a recipe
func (h *LikeHandler) UnlikeRecipe(c echo.Context) error {
	return h.unlike(c, models.LikeTargetRecipe, c.Param("recipe_id"))
}

// LikeTip handles liking a tip
func (h *LikeHandler) LikeTip(c echo.Context) error {
	return h.like(c, models.LikeTargetTip, c.Param("tip_id"))
}

// UnlikeTip handles unliking a tip
func (h *LikeHandler) UnlikeTip(c echo.Context) error {
	return h.unlike(c, models.LikeTargetTip, c.Param("tip_id"))
}

func (h *LikeHandler) like(c echo.Context, targetType, id string) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}
	target, err := h.resolve(c, targetType, id)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	hasLiked, err := h.likeRepository.HasUserLiked(ctx, targetType, id, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasLiked {
		return echo.NewHTTPError(http.StatusConflict, "Already liked by this user")
	}

	like := &models.Like{TargetType: targetType, TargetID: id, UserID: uid}
	if err := h.likeRepository.CreateLike(ctx, like); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	logCounterError(c, target.counter(1), id, repositories.CounterLikes)

	h.notifier.AddEngagement(ctx, target.ownerID, uid, target.kind, id, target.display)

	return c.JSON(http.StatusCreated, like)
}

func (h *LikeHandler) unlike(c echo.Context, targetType, id string) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}
	target, err := h.resolve(c, targetType, id)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.likeRepository.DeleteLike(ctx, targetType, id, uid); err != nil {
		return lookupError(err, "Like not found")
	}
	logCounterError(c, target.counter(-1), id, repositories.CounterLikes)

	h.notifier.RemoveEngagement(ctx, target.ownerID, uid, target.kind, id)

	return c.NoContent(http.StatusNoContent)
}

// GetRecipeLikeStatus checks if the authenticated user has liked a recipe
func (h *LikeHandler) GetRecipeLikeStatus(c echo.Context) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}
	recipeID := c.Param("recipe_id")
	ctx := c.Request().Context()

	hasLiked, err := h.likeRepository.HasUserLiked(ctx, models.LikeTargetRecipe, recipeID, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	count, err := h.likeRepository.CountLikes(ctx, models.LikeTargetRecipe, recipeID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"recipe_id": recipeID, "has_liked": hasLiked, "likes_count": count})
}

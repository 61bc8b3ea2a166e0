package handlers

import (
	"net/http"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AchievementHandler grants achievement titles
type AchievementHandler struct {
	titleRepository repositories.TitleRepository
	notifier        services.NotificationAggregator
}

// NewAchievementHandler creates a new AchievementHandler
func NewAchievementHandler(titleRepo repositories.TitleRepository, notifier services.NotificationAggregator) *AchievementHandler {
	return &AchievementHandler{titleRepository: titleRepo, notifier: notifier}
}

// RegisterAchievementRoutes registers achievement routes
func (h *AchievementHandler) RegisterAchievementRoutes(g *echo.Group) {
	g.POST("/me/titles", h.GrantTitle)
	g.GET("/me/titles", h.GetTitles)
}

// GrantTitle records a title earned by the authenticated user and notifies them
func (h *AchievementHandler) GrantTitle(c echo.Context) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.GrantTitleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	has, err := h.titleRepository.HasTitle(ctx, uid, req.TitleName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if has {
		return echo.NewHTTPError(http.StatusConflict, "Title already granted")
	}

	title := &models.UserTitle{UserID: uid, TitleName: req.TitleName}
	if err := h.titleRepository.GrantTitle(ctx, title); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.notifier.CreateAchievementNotification(ctx, uid, title.TitleName)

	return c.JSON(http.StatusCreated, title)
}

// GetTitles lists the authenticated user's titles, newest first
func (h *AchievementHandler) GetTitles(c echo.Context) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}
	titles, err := h.titleRepository.GetTitles(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, titles)
}

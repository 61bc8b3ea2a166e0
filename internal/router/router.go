package router

import (
	"fmt"
	"time"

	"github.com/anonto42/nano-recipe/backend/internal/handlers"
	"github.com/anonto42/nano-recipe/backend/internal/middleware"
	"github.com/anonto42/nano-recipe/backend/internal/models"
	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/internal/services"
	"github.com/anonto42/nano-recipe/backend/pkg/logging"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Dependencies are the connections and clients the routes are built from
type Dependencies struct {
	Postgres      *gorm.DB
	Content       repositories.ContentRepository
	Notifications repositories.NotificationStore
	TokenVerifier middleware.TokenVerifier
	GroupWindow   time.Duration
}

// Migrate runs the PostgreSQL auto-migrations for all models
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Like{},
		&models.Follow{},
		&models.Review{},
		&models.TipComment{},
		&models.UserTitle{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate models: %w", err)
	}
	return nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	log := logging.Logger()

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)
	reviewRepo := repositories.NewPostgresReviewRepository(deps.Postgres)
	commentRepo := repositories.NewPostgresTipCommentRepository(deps.Postgres)
	titleRepo := repositories.NewPostgresTitleRepository(deps.Postgres)

	// --- Notification engine ---
	aggregator := services.NewAggregator(
		deps.Notifications,
		services.NewUserProfileLookup(userRepo),
		services.WithGroupWindow(deps.GroupWindow),
	)
	feed := services.NewNotificationFeed(deps.Notifications)

	// --- Protected routes (require a Firebase ID token) ---
	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(deps.TokenVerifier))

	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(api)
	handlers.NewLikeHandler(likeRepo, deps.Content, aggregator).RegisterLikeRoutes(api)
	handlers.NewReviewHandler(reviewRepo, deps.Content, aggregator).RegisterReviewRoutes(api)
	handlers.NewCommentHandler(commentRepo, deps.Content, aggregator).RegisterCommentRoutes(api)
	handlers.NewFollowHandler(followRepo, userRepo, aggregator).RegisterFollowRoutes(api)
	handlers.NewAchievementHandler(titleRepo, aggregator).RegisterAchievementRoutes(api)
	handlers.NewNotificationHandler(feed).RegisterNotificationRoutes(api)

	log.Info().Int("routes", len(e.Routes())).Msg("All routes configured")
}

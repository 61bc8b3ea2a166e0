package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-recipe/backend/internal/repositories"
	"github.com/anonto42/nano-recipe/backend/internal/router"
	"github.com/anonto42/nano-recipe/backend/internal/validators"
	"github.com/anonto42/nano-recipe/backend/pkg/config"
	"github.com/anonto42/nano-recipe/backend/pkg/firebase"
	"github.com/anonto42/nano-recipe/backend/pkg/logging"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Logger().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize databases")
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate PostgreSQL models")
	}

	// Initialize Firebase

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseProjectID, cfg.NotificationStore == config.StoreFirestore)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Firebase")
	}
	defer firebaseApp.Close()

	mongoDB := db.Mongo.Database(cfg.MongoDatabase)
	store, err := notificationStore(ctx, cfg, firebaseApp, mongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize notification store")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	config.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Dependencies{
		Postgres:      db.Postgres,
		Content:       repositories.NewMongoContentRepository(mongoDB),
		Notifications: store,
		TokenVerifier: firebaseApp.AuthClient,
		GroupWindow:   cfg.GroupWindow,
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	// Start server
	go func() {
		log.Info().Str("port", cfg.Port).Str("notification_store", cfg.NotificationStore).Msg("Server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}
}

// notificationStore selects the backend holding notification records
func notificationStore(ctx context.Context, cfg *config.Config, app *firebase.App, mongoDB *mongo.Database) (repositories.NotificationStore, error) {
	switch cfg.NotificationStore {
	case config.StoreMongo:
		store := repositories.NewMongoNotificationStore(mongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMemory:
		logging.Logger().Warn().Msg("Notifications are kept in memory and lost on restart")
		return repositories.NewMemoryNotificationStore(), nil
	default:
		return repositories.NewFirestoreNotificationStore(app.Firestore), nil
	}
}

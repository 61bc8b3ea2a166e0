package config

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-recipe/backend/pkg/logging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connections
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
}

// InitDB opens PostgreSQL (engagement rows, profiles) and MongoDB (recipes,
// tips). Both are pinged before returning.
func InitDB(ctx context.Context, cfg *Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()

	pg, err := openPostgres(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	client, err := openMongo(ctx, cfg.MongoURI)
	if err != nil {
		db := &DB{Postgres: pg}
		db.CloseDB()
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	return &DB{Postgres: pg, Mongo: client}, nil
}

func openPostgres(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	gormLog := logger.New(logging.Logger(), logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
	db, err := gorm.Open(postgres.Open(cfg.PostgresConnStr), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.PostgresMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.PostgresMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.PostgresConnLifetime)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logging.Logger().Info().Int("max_open_conns", cfg.PostgresMaxOpenConns).Msg("PostgreSQL ready")
	return db, nil
}

func openMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("nano-recipe"))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logging.Logger().Info().Msg("MongoDB ready")
	return client, nil
}

// CloseDB closes whichever connections are open
func (db *DB) CloseDB() {
	log := logging.Logger()
	if db.Postgres != nil {
		if sqlDB, err := db.Postgres.DB(); err != nil {
			log.Error().Err(err).Msg("PostgreSQL handle unavailable")
		} else if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("PostgreSQL close failed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("MongoDB disconnect failed")
		}
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Notification store backends
const (
	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
	StoreMemory    = "memory"
)

type Config struct {
	Port                    string `env:"PORT" envDefault:"8080"`
	Env                     string `env:"ENV" envDefault:"development"`
	MetricsPort             string `env:"METRICS_PORT" envDefault:"9090"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH" envDefault:"./firebase_credentials.json"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	PostgresConnStr         string `env:"POSTGRES_CONN_STR"`
	MongoURI                string `env:"MONGO_URI"`
	MongoDatabase           string `env:"MONGO_DATABASE" envDefault:"recipes"`

	PostgresMaxOpenConns int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
	PostgresMaxIdleConns int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	PostgresConnLifetime time.Duration `env:"POSTGRES_CONN_LIFETIME" envDefault:"5m"`
	DBConnectTimeout     time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`

	// NotificationStore selects where notification records live
	NotificationStore string        `env:"NOTIFICATION_STORE" envDefault:"firestore"`
	GroupWindow       time.Duration `env:"NOTIFICATION_GROUP_WINDOW" envDefault:"1h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file, then the process environment
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	switch c.NotificationStore {
	case StoreFirestore, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("NOTIFICATION_STORE must be one of %s, %s, %s; got %q",
			StoreFirestore, StoreMongo, StoreMemory, c.NotificationStore)
	}
	if c.GroupWindow <= 0 {
		return fmt.Errorf("NOTIFICATION_GROUP_WINDOW must be positive, got %s", c.GroupWindow)
	}
	if c.PostgresConnStr == "" {
		return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI environment variable not set")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

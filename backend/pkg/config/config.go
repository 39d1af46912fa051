package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	apperrors "circle-media/backend/pkg/errors"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendNeo4j  = "neo4j"
)

// Post storage shapes
const (
	ShapeStandalone = "standalone"
	ShapeEmbedded   = "embedded"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Storage
	StoreBackend string
	PostShape    string // badger only: one document per post, or posts embedded per author
	BadgerPath   string
	SQLitePath   string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Observability
	MetricsEnabled bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		StoreBackend:   getEnv("STORE_BACKEND", BackendMemory),
		PostShape:      getEnv("POST_SHAPE", ShapeStandalone),
		BadgerPath:     getEnv("BADGER_PATH", "data/badger"),
		SQLitePath:     getEnv("SQLITE_PATH", "data/circle.db"),
		Neo4jURI:       getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:      getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:  getEnv("NEO4J_PASSWORD", ""),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return apperrors.NewConfigMissingRequired("PORT")
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendBadger:
		if c.BadgerPath == "" {
			return apperrors.NewConfigMissingRequired("BADGER_PATH")
		}
		if c.PostShape != ShapeStandalone && c.PostShape != ShapeEmbedded {
			return apperrors.NewConfigValidationFailed("POST_SHAPE", fmt.Sprintf("unknown shape %q", c.PostShape))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return apperrors.NewConfigMissingRequired("SQLITE_PATH")
		}
	case BackendNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	default:
		return apperrors.NewConfigValidationFailed("STORE_BACKEND", fmt.Sprintf("unknown backend %q", c.StoreBackend))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

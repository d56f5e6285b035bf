package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Database drivers understood by database.New
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Image storage backends
const (
	ImageBackendDatabase = "database"
	ImageBackendS3       = "s3"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment `env:"-"`

	// Server configuration
	ServerHost      string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	LogMode         string        `env:"LOG_MODE" envDefault:"development"`

	// Database configuration
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"foodgram"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"foodgram"`
	DBSSLMode   string `env:"DB_SSL_MODE" envDefault:"disable"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"foodgram.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Redis configuration. Redis is optional: without it tokens cannot be
	// revoked and recipe creation is not rate limited.
	RedisURL      string `env:"REDIS_URL"`
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// JWT configuration
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Recipe creation rate limit, per user
	RecipeCreateLimit  int           `env:"RECIPE_CREATE_LIMIT" envDefault:"30"`
	RecipeCreateWindow time.Duration `env:"RECIPE_CREATE_WINDOW" envDefault:"1h"`

	// Image storage
	ImageBackend       string `env:"IMAGE_BACKEND" envDefault:"database"`
	MediaBaseURL       string `env:"MEDIA_BASE_URL" envDefault:"/media"`
	S3BucketName       string `env:"S3_BUCKET_NAME"`
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Endpoint         string `env:"S3_ENDPOINT"`
}

// LoadConfig reads the configuration from environment variables, overlays
// Docker secrets and validates the result for the current environment
func LoadConfig() (*Config, error) {
	cfg := &Config{Environment: GetEnvironment()}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	loadSecrets(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// URL returns the postgres connection string in URL form, as lib/pq expects it
func (c *Config) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the address the HTTP server listens on
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// RedisEnabled reports whether a Redis server is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// loadSecrets fills sensitive fields from Docker secrets. A secret file wins
// over the environment variable of the same value.
func loadSecrets(cfg *Config) {
	if v := readSecret("db_password"); v != "" {
		cfg.DBPassword = v
	}
	if v := readSecret("jwt_secret"); v != "" {
		cfg.JWTSecret = v
	}
	if v := readSecret("redis_password"); v != "" {
		cfg.RedisPassword = v
	}
	if v := readSecret("aws_secret_access_key"); v != "" {
		cfg.AWSSecretAccessKey = v
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	data, err := os.ReadFile(filepath.Join(secretsDir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

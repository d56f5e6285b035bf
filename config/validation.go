package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DBHost == "" {
			errs = append(errs, ValidationError{"DB_HOST", "is required for the postgres driver"})
		}
		if cfg.DBName == "" {
			errs = append(errs, ValidationError{"DB_NAME", "is required for the postgres driver"})
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for the sqlite driver"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unknown driver %q", cfg.DBDriver)})
	}

	switch cfg.ImageBackend {
	case ImageBackendDatabase:
	case ImageBackendS3:
		if cfg.S3BucketName == "" {
			errs = append(errs, ValidationError{"S3_BUCKET_NAME", "is required for the s3 image backend"})
		}
	default:
		errs = append(errs, ValidationError{"IMAGE_BACKEND", fmt.Sprintf("unknown backend %q", cfg.ImageBackend)})
	}

	if cfg.RecipeCreateLimit < 1 {
		errs = append(errs, ValidationError{"RECIPE_CREATE_LIMIT", "must be positive"})
	}

	// Sensitive values come from Docker secrets outside CI, from the
	// environment in CI.
	switch cfg.Environment {
	case Production:
		if cfg.JWTSecret == "" {
			errs = append(errs, ValidationError{"jwt_secret", "secret is required in production"})
		}
		if cfg.DBDriver == DriverPostgres && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"db_password", "secret is required in production"})
		}
	case CI:
		if cfg.JWTSecret == "" {
			errs = append(errs, ValidationError{"JWT_SECRET", "environment variable is required in CI"})
		}
	default:
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev-insecure-secret"
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("DB_NAME", "foodgram_test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("TOKEN_TTL", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Environment)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, "5433", cfg.DBPort)
	assert.Equal(t, "foodgram_test", cfg.DBName)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, "host=db port=5433 user=postgres password=postgres dbname=foodgram_test sslmode=disable", cfg.DSN())
}

func TestLoadConfigWithDefaults(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "development")
	t.Setenv("SECRETS_DIR", t.TempDir())
	for _, key := range []string{"DB_HOST", "DB_DRIVER", "JWT_SECRET", "REDIS_URL", "REDIS_HOST", "IMAGE_BACKEND"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, ImageBackendDatabase, cfg.ImageBackend)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfigSecretsOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("pg-secret"), 0o600))

	t.Setenv("CI", "")
	t.Setenv("ENV", "production")
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Production, cfg.Environment)
	assert.Equal(t, "from-secret", cfg.JWTSecret)
	assert.Equal(t, "pg-secret", cfg.DBPassword)
}

func TestValidateConfig(t *testing.T) {
	cfg := &Config{
		Environment:       Production,
		DBDriver:          "mysql",
		ImageBackend:      ImageBackendS3,
		RecipeCreateLimit: 0,
	}

	err := ValidateConfig(cfg)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"DB_DRIVER", "S3_BUCKET_NAME", "RECIPE_CREATE_LIMIT", "jwt_secret"}, fields)
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())

	t.Setenv("CI", "")
	t.Setenv("ENV", "production")
	assert.Equal(t, Production, GetEnvironment())
	assert.True(t, IsProduction())

	t.Setenv("ENV", "")
	assert.Equal(t, Development, GetEnvironment())
}

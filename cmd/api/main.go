package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server error", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()

	db, err := database.New(cfg, log)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db, log); err != nil {
			return err
		}
	}

	var (
		redisClient *redis.Client
		revoker     service.TokenRevoker
		limiter     *middleware.RateLimiter
	)
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		revoker = service.NewRedisTokenRevoker(redisClient)
		limiter = middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreateLimit, cfg.RecipeCreateWindow, log)
	} else {
		log.Warn("redis is not configured: logout will not revoke tokens and recipe creation is not rate limited")
	}

	svcs := api.Services{
		Auth:          service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, revoker, log),
		Users:         service.NewUserService(db, log),
		Subscriptions: service.NewSubscriptionService(db, log),
		Catalog:       service.NewCatalogService(db, log),
		Favorites:     service.NewFavoriteService(db, log),
		Cart:          service.NewCartService(db, log),
		RecipeLimiter: limiter,
	}

	var images service.ImageStore
	switch cfg.ImageBackend {
	case config.ImageBackendS3:
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to configure S3: %w", err)
		}
		images = service.NewS3ImageStore(s3cfg, log)
	default:
		media := service.NewDatabaseImageStore(db, cfg.MediaBaseURL, log)
		svcs.Media = media
		images = media
	}
	svcs.Recipes = service.NewRecipeService(db, images, log)

	engine := router.New(log, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     middleware.NewMetrics(),
	}, svcs)
	srv := server.New(cfg, engine, log)

	errChan := make(chan error, 1)
	go func() {
		log.Info("starting server", "env", cfg.Environment, "addr", cfg.Addr())
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Info("received signal", "signal", sig.String())
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

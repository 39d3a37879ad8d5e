package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/logger"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/server"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/storage"
)

func main() {
	env := config.GetEnvironment()
	log := logger.New(env == config.Production)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	db, err := database.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir, log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	var files storage.FileStore
	if cfg.S3Bucket != "" {
		s3cfg, err := config.NewS3Config(context.Background(), cfg)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize S3")
		}
		files = storage.NewS3Store(s3cfg.Client, s3cfg.BucketName)
	} else {
		files = storage.NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL)
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	imageService := service.NewImageService(files)
	recipeService := service.NewRecipeService(db, imageService, log)
	membershipService := service.NewMembershipService(db)
	shoppingService := service.NewShoppingListService(db, cfg.MediaRoot)

	var limiter *middleware.RateLimiter
	if redisClient, err := database.NewRedisClient(cfg, log); err != nil {
		log.WithError(err).Warn("redis unavailable, recipe write rate limiting disabled")
	} else {
		limiter = middleware.NewRecipeWriteRateLimiter(redisClient)
	}

	engine := router.SetupRouter(db, log, authService, recipeService, membershipService, shoppingService, limiter)
	srv := server.New(cfg, engine, log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Fatal("server error")
		}
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server shutdown error")
	}
	log.Info("server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/internal/app/controller"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/ikkim/foodgram-backend/internal/db"
	"github.com/ikkim/foodgram-backend/internal/metrics"
	"github.com/ikkim/foodgram-backend/internal/middleware"
	"github.com/ikkim/foodgram-backend/internal/router"
	"github.com/ikkim/foodgram-backend/internal/scheduler"
	"github.com/ikkim/foodgram-backend/internal/storage"
	"github.com/ikkim/foodgram-backend/internal/websocket"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"github.com/ikkim/foodgram-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Log.Format == "console",
	})

	logger.Info("Starting Foodgram Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
		"storage":     cfg.Storage.Driver,
	})

	metrics.Init()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations (also seeds the default tags)
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional: without it logout is client-side only and tags are not cached
	var (
		blacklist service.TokenBlacklist
		revoked   middleware.TokenChecker
		cache     service.Cache
	)
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer redis.Close()

		store := redis.NewStore(redis.GetClient())
		blacklist, revoked, cache = store, store, store
	}

	// Image storage
	var (
		images    service.ImageStore
		presigner controller.ImagePresigner
	)
	switch cfg.Storage.Driver {
	case "s3":
		s3Storage := storage.NewS3Storage(cfg.Storage.S3)
		images, presigner = s3Storage, s3Storage
	default:
		images = storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.LocalURLPrefix)
	}

	// Live feed
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	subscriptionRepo := repository.NewSubscriptionRepository(db.GetDB())
	tagRepo := repository.NewTagRepository(db.GetDB())
	ingredientRepo := repository.NewIngredientRepository(db.GetDB())
	recipeRepo := repository.NewRecipeRepository(db.GetDB())
	relationRepo := repository.NewRelationRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	userService := service.NewUserService(userRepo, subscriptionRepo)
	subscriptionService := service.NewSubscriptionService(userRepo, subscriptionRepo, recipeRepo)
	tagService := service.NewTagService(tagRepo, cache)
	ingredientService := service.NewIngredientService(ingredientRepo)
	recipeService := service.NewRecipeService(
		recipeRepo,
		tagRepo,
		ingredientRepo,
		relationRepo,
		subscriptionRepo,
		images,
		hub,
	)
	relationService := service.NewRelationService(recipeRepo, relationRepo)
	shoppingListService := service.NewShoppingListService(relationRepo)

	// Catalog cache refresh
	if cache != nil {
		catalogScheduler := scheduler.NewCatalogScheduler(cfg.Scheduler.CatalogRefreshSpec, tagService)
		if err := catalogScheduler.Start(); err != nil {
			logger.Fatal("Failed to start catalog scheduler", err)
		}
		defer catalogScheduler.Stop()
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	userController := controller.NewUserController(authService, userService, cfg.Pagination)
	subscriptionController := controller.NewSubscriptionController(subscriptionService, cfg.Pagination)
	tagController := controller.NewTagController(tagService)
	ingredientController := controller.NewIngredientController(ingredientService)
	recipeController := controller.NewRecipeController(recipeService, relationService, shoppingListService, cfg.Pagination)
	uploadController := controller.NewUploadController(presigner)
	feedController := controller.NewFeedController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, revoked)

	// Setup router
	r := router.NewRouter(
		authController,
		userController,
		subscriptionController,
		tagController,
		ingredientController,
		recipeController,
		uploadController,
		feedController,
		authMiddleware,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}

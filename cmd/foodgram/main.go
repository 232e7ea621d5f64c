package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"foodgram/internal/api"
	"foodgram/internal/config"
	"foodgram/internal/repository/postgres"
	"foodgram/internal/service"
	"foodgram/internal/storage"
	"foodgram/pkg/logger"
)

func main() {
	// A missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.Debug)
	l.Info("Starting foodgram...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Media storage
	media, err := storage.NewMediaStore(cfg.MediaRoot)
	if err != nil {
		l.Fatalf("Failed to initialize media storage: %v", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db.DB)
	tokenRepo := postgres.NewTokenRepository(db.DB)
	tagRepo := postgres.NewTagRepository(db.DB)
	ingredientRepo := postgres.NewIngredientRepository(db.DB)
	recipeRepo := postgres.NewRecipeRepository(db.DB)
	followRepo := postgres.NewFollowRepository(db.DB)

	// Service layer
	svc := service.New(l, media, cfg.TokenTTL,
		userRepo, tokenRepo, tagRepo,
		ingredientRepo, recipeRepo, followRepo,
	)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Start expired token cleanup
	go svc.StartTokenJanitor(ctx)

	// HTTP server
	apiServer := api.NewServer(svc, l, cfg.Debug, cfg.AllowedHosts, cfg.MediaRoot)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	apiServer.SetReady()
	l.Info("Foodgram started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown error: %v", err)
	}

	l.Info("Foodgram stopped")
}

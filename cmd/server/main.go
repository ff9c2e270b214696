package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/vidtube/backend/internal/logging"
	"github.com/anonto42/vidtube/backend/internal/metrics"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/internal/response"
	"github.com/anonto42/vidtube/backend/internal/router"
	"github.com/anonto42/vidtube/backend/internal/validators"
	"github.com/anonto42/vidtube/backend/pkg/config"
	"github.com/anonto42/vidtube/backend/pkg/firebase"
	"github.com/anonto42/vidtube/backend/pkg/media"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize databases")
	}
	defer db.CloseDB()

	ctx := context.Background()
	if err := repositories.EnsureIndexes(ctx, db.Database); err != nil {
		logging.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
	}

	storage, err := media.NewMinioStorage(media.Config{
		Endpoint:  cfg.Media.Endpoint,
		AccessKey: cfg.Media.AccessKey,
		SecretKey: cfg.Media.SecretKey,
		UseSSL:    cfg.Media.UseSSL,
		Bucket:    cfg.Media.Bucket,
		PublicURL: cfg.Media.PublicURL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create media storage")
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		logging.Fatal().Err(err).Str("bucket", cfg.Media.Bucket).Msg("Failed to prepare media bucket")
	}

	// Firebase is optional
	var firebaseApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize Firebase")
		}
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = response.ErrorHandler(logging.Logger())

	config.SetupMiddleware(e, cfg)

	err = router.SetupRoutes(e, router.Dependencies{
		Mongo:         db.Mongo,
		Database:      db.Database,
		Postgres:      db.Postgres,
		Firebase:      firebaseApp,
		Tokens:        middleware.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Uploader:      storage,
		UploadDir:     cfg.Media.UploadDir,
		SecureCookies: cfg.IsProduction(),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to configure routes")
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Info().Str("port", cfg.MetricsPort).Msg("metrics server starting")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		logging.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("metrics server shutdown failed")
	}
}

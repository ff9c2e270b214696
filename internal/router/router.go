package router

import (
	"time"

	"github.com/anonto42/vidtube/backend/internal/handlers"
	"github.com/anonto42/vidtube/backend/internal/logging"
	"github.com/anonto42/vidtube/backend/internal/middleware"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"github.com/anonto42/vidtube/backend/pkg/firebase"
	"github.com/anonto42/vidtube/backend/pkg/media"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Dependencies are the long-lived clients the routes are built on.
type Dependencies struct {
	Mongo    *mongo.Client
	Database *mongo.Database
	// Postgres is optional; notifications are disabled without it.
	Postgres *gorm.DB
	// Firebase is optional; Firebase login answers 503 without it.
	Firebase *firebase.App

	Tokens        *middleware.TokenIssuer
	Uploader      media.Uploader
	UploadDir     string
	SecureCookies bool
}

// authRateLimiter throttles the credential endpoints per client IP.
func authRateLimiter() echo.MiddlewareFunc {
	return eMiddleware.RateLimiter(eMiddleware.NewRateLimiterMemoryStoreWithConfig(
		eMiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(1),
			Burst:     10,
			ExpiresIn: 3 * time.Minute,
		},
	))
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	e.GET("/health", handlers.HealthCheck(deps.Mongo))

	// --- Initialize Repositories ---
	userRepo := repositories.NewMongoUserRepository(deps.Database)
	videoRepo := repositories.NewMongoVideoRepository(deps.Database)
	commentRepo := repositories.NewMongoCommentRepository(deps.Database)
	tweetRepo := repositories.NewMongoTweetRepository(deps.Database)
	likeRepo := repositories.NewMongoLikeRepository(deps.Database)
	subscriptionRepo := repositories.NewMongoSubscriptionRepository(deps.Database)
	statsRepo := repositories.NewMongoStatsRepository(deps.Database)

	var notificationRepo repositories.NotificationRepository
	if deps.Postgres != nil {
		if err := repositories.MigrateNotifications(deps.Postgres); err != nil {
			return err
		}
		notificationRepo = repositories.NewPostgresNotificationRepository(deps.Postgres)
		logging.Info().Msg("PostgreSQL auto-migrations completed for notifications.")
	}

	// An unset *firebase.App must reach the handler as a nil interface.
	var verifier firebase.Verifier
	if deps.Firebase != nil {
		verifier = deps.Firebase
	}

	// --- Authentication routes ---
	authGroup := e.Group("/api/v1/auth", authRateLimiter())
	authHandler := handlers.NewAuthHandler(userRepo, deps.Tokens, deps.Uploader, verifier, deps.UploadDir, deps.SecureCookies)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- API routes: the token is optional, mutations call RequireActor ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.Tokens))

	authHandler.RegisterSessionRoutes(api)
	handlers.NewUserHandler(userRepo, subscriptionRepo).RegisterProfileRoutes(api)
	handlers.NewVideoHandler(videoRepo, commentRepo, likeRepo, deps.Uploader, deps.UploadDir).RegisterVideoRoutes(api)
	handlers.NewCommentHandler(commentRepo, videoRepo, likeRepo).RegisterCommentRoutes(api)
	handlers.NewTweetHandler(tweetRepo, userRepo, likeRepo).RegisterTweetRoutes(api)
	handlers.NewLikeHandler(likeRepo, videoRepo, commentRepo, tweetRepo, notificationRepo).RegisterLikeRoutes(api)
	handlers.NewSubscriptionHandler(subscriptionRepo, userRepo, notificationRepo).RegisterSubscriptionRoutes(api)
	handlers.NewDashboardHandler(statsRepo, videoRepo).RegisterDashboardRoutes(api)

	if notificationRepo != nil {
		notifications := api.Group("/notifications", middleware.RequireAuth())
		handlers.NewNotificationHandler(notificationRepo, userRepo).RegisterNotificationRoutes(notifications)
	}

	logging.Info().
		Bool("notifications", notificationRepo != nil).
		Bool("firebase", verifier != nil).
		Msg("All routes configured.")
	return nil
}

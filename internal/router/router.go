package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/numeneon-social/backend/internal/handlers"
	"github.com/numeneon-social/backend/internal/middleware"
	"github.com/numeneon-social/backend/internal/models"
	"github.com/numeneon-social/backend/internal/notify"
	"github.com/numeneon-social/backend/internal/realtime"
	"github.com/numeneon-social/backend/internal/repositories"
	"github.com/numeneon-social/backend/internal/services"
	"github.com/numeneon-social/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Pre(eMiddleware.RemoveTrailingSlash())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *gorm.DB, bus realtime.Bus, cfg *config.Config) {
	// AutoMigrate PostgreSQL models
	err := db.AutoMigrate(
		&models.User{},
		&models.FriendEdge{},
		&models.FriendRequest{},
		&models.PushSubscription{},
		&models.Notification{},
		&models.DirectMessage{},
		&models.Post{},
		&models.Comment{},
		&models.Story{},
		&models.StoryReaction{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db)
	friendStore := repositories.NewPostgresFriendGraphStore(db)
	pushRepo := repositories.NewPostgresPushSubscriptionRepository(db)
	notificationRepo := repositories.NewPostgresNotificationRepository(db)
	messageRepo := repositories.NewPostgresMessageRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	storyRepo := repositories.NewPostgresStoryRepository(db)

	// --- Notification dispatch ---
	var sender notify.PushSender
	if cfg.PushEnabled() {
		sender = notify.NewWebPushSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
		log.Println("Web Push enabled.")
	} else {
		log.Println("Web Push disabled: VAPID keys not configured.")
	}
	dispatcher := notify.NewDispatcher(bus, pushRepo, notificationRepo, sender, cfg.DispatchTimeout)

	// --- Services ---
	friendshipService := services.NewFriendshipService(friendStore, userRepo, dispatcher)
	messageService := services.NewMessageService(messageRepo, userRepo, dispatcher)
	postService := services.NewPostService(postRepo, friendStore, userRepo, dispatcher)
	storyService := services.NewStoryService(storyRepo, userRepo, dispatcher)

	// --- Public routes ---
	pushHandler := handlers.NewPushHandler(pushRepo, cfg.VAPIDPublicKey, cfg.PushEnabled())
	pushHandler.RegisterPublicRoutes(e)

	wsHandler := handlers.NewWSHandler(bus, cfg.JWTSecret)
	wsHandler.RegisterWSRoutes(e)
	log.Println("WebSocket route configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	handlers.NewFriendshipHandler(friendshipService).RegisterFriendshipRoutes(api)
	log.Println("Friendship routes configured.")

	pushHandler.RegisterPushRoutes(api)
	handlers.NewNotificationHandler(notificationRepo).RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	handlers.NewMessageHandler(messageService).RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	handlers.NewPostHandler(postService).RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	handlers.NewStoryHandler(storyService).RegisterStoryRoutes(api)
	log.Println("Story routes configured.")

	handlers.NewUserHandler(userRepo).RegisterUserRoutes(api)
	log.Println("User routes configured.")

	log.Println("All routes configured.")
}

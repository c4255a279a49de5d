package main

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/numeneon-social/backend/internal/realtime"
	"github.com/numeneon-social/backend/internal/router"
	"github.com/numeneon-social/backend/internal/validators"
	"github.com/numeneon-social/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := config.InitDB(cfg.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer config.CloseDB(db)

	// Pick the live-session bus: Redis when configured, in-process otherwise.
	var bus realtime.Bus
	if cfg.RedisAddr != "" {
		bus, err = realtime.NewRedisBus(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Printf("Using Redis bus at %s", cfg.RedisAddr)
	} else {
		bus = realtime.NewHub()
		log.Println("Using in-process bus.")
	}
	defer bus.Close()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db, bus, cfg)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

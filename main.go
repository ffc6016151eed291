// main.go
package main

import (
	"context"
	"log"

	"facility-booking/cmd"
	"facility-booking/internal/data/repository"
	"facility-booking/internal/usecase"
	"facility-booking/internal/wire"
	"facility-booking/pkg/cache"
	"facility-booking/pkg/database"
	"facility-booking/pkg/queue"
	"facility-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("store", config.Store.Driver),
	)

	if config.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	// Initialize all repositories
	var repos *repository.Repository
	switch config.Store.Driver {
	case "memory":
		facilities, err := repository.LoadFacilitySeed(config.Store.FacilitySeed)
		if err != nil {
			logger.Fatal("Failed to load facility seed", zap.Error(err), zap.String("path", config.Store.FacilitySeed))
		}
		logger.Warn("Using in-memory store, reservations are lost on restart", zap.Int("facilities", len(facilities)))
		repos = repository.NewMemoryRepository(facilities, logger)

	case "postgres":
		db, err := database.InitDB(config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Database connected successfully")

		if config.Database.AutoMigrate {
			if err := database.Migrate(context.Background(), db); err != nil {
				logger.Fatal("Failed to migrate database", zap.Error(err))
			}
			logger.Info("Database schema applied")
		}

		repos = repository.NewRepository(db, logger)

	default:
		logger.Fatal("Unknown STORE_DRIVER", zap.String("driver", config.Store.Driver))
	}

	// Availability cache
	var availabilityCache usecase.Cache = cache.Nop{}
	if config.Redis.Enabled {
		client, err := cache.NewRedisClient(config.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()

		availabilityCache = cache.NewRedisCache(client, logger)
		logger.Info("Redis availability cache enabled", zap.String("addr", config.Redis.Addr))
	}

	// Reservation events
	var events usecase.EventPublisher = queue.NopPublisher{}
	if config.RabbitMQ.Enabled {
		publisher, err := queue.NewPublisher(config.RabbitMQ.URL, config.RabbitMQ.Exchange, logger)
		if err != nil {
			logger.Fatal("Failed to connect to rabbitmq", zap.Error(err))
		}
		defer publisher.Close()

		events = publisher
		logger.Info("RabbitMQ event publisher enabled", zap.String("exchange", config.RabbitMQ.Exchange))
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, availabilityCache, events, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}

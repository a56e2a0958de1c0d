package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardiopredict/cardiopredict-gateway/internal/api"
	"github.com/cardiopredict/cardiopredict-gateway/internal/config"
	"github.com/cardiopredict/cardiopredict-gateway/internal/logging"
	"github.com/cardiopredict/cardiopredict-gateway/internal/service"
	"github.com/cardiopredict/cardiopredict-gateway/internal/session"
	"github.com/cardiopredict/cardiopredict-gateway/pkg/predictor"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging)
	logger.Infof("Starting CardioPredict gateway on %s:%d", cfg.Server.Host, cfg.Server.Port)

	// Session store: Redis when configured, in-memory otherwise
	var store session.Store
	if cfg.Session.RedisURL != "" {
		store, err = session.NewRedisStore(cfg.Session, logger)
		if err != nil {
			logger.Fatalf("Failed to connect to session store: %v", err)
		}
	} else {
		store, err = session.NewMemoryStore(cfg.Session.MemorySize, cfg.Session.TTL, logger)
		if err != nil {
			logger.Fatalf("Failed to create session store: %v", err)
		}
	}
	defer store.Close()

	// Outbound prediction service client
	client := predictor.NewClient(predictor.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
	}, logger)

	intake := service.NewIntakeService(logger)
	handlers := api.NewHandlers(
		logger,
		intake,
		service.NewRecommendationEngine(logger),
		service.NewDashboardService(logger),
		service.NewCSVValidator(logger, intake),
		store,
		client,
	)

	server := api.NewServer(cfg, logger, handlers)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
		time.AfterFunc(45*time.Second, func() {
			logger.Error("Forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.Fatalf("Server failed to start: %v", err)
	}

	logger.Info("Server stopped")
}

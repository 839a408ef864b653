package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/config"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/infrastructure/mapbox"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/logger"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/repository/cache"
	redisRepo "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/repository/redis"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/worker"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/worker/guest"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "map-headless-guest")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting headless map guest")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("route_concurrency", cfg.Worker.RouteConcurrency),
		zap.Duration("route_timeout", cfg.Worker.RouteTimeout),
		zap.String("routing_profile", cfg.Mapbox.Profile))

	if cfg.Mapbox.AccessToken == "" {
		log.Warn("MAPBOX_ACCESS_TOKEN is empty, every route will fail with ROUTE_ERROR")
	}

	// 3. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, "map-headless-guest", log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 4. Initialize repositories
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log)
	directions := mapbox.NewDirectionsClient(&cfg.Mapbox, log)

	// 5. Initialize workers
	headless := guest.NewHeadlessGuest(streamRepo, directions, guest.Options{
		ConsumerGroup:    cfg.Worker.ConsumerGroup,
		RouteConcurrency: cfg.Worker.RouteConcurrency,
		RouteTimeout:     cfg.Worker.RouteTimeout,
		SurfaceTTL:       cfg.Map.SessionTTL,
	}, log)

	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(headless)

	// 6. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}

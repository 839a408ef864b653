package main

// @title Ruta Cafe Map Service API
// @version 1.0.0
// @description Доступность мест маршрута кафе и сессии карты с расчётом маршрута.
// @description
// @description Основные возможности:
// @description - Одобренные места и их статус (открыто, закрывается, откроется)
// @description - Сессии карты: HTML-гость или headless-гость, генерации гостя
// @description - Маршрут от геолокации пользователя до места с вытеснением предыдущего

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/docs"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/config"
	httpDelivery "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/delivery/http"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/delivery/http/handler"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/infrastructure/placesapi"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/logger"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/repository/cache"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/repository/postgres"
	redisRepo "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/repository/redis"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/usecase"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/usecase/dto"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/worker"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/worker/events"
	"go.uber.org/zap"
)

const (
	headlessStreamMaxLen = 10000
	janitorInterval      = time.Minute
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "map-api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Ruta Cafe Map Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("places_source", cfg.Places.Source),
		zap.String("timezone", cfg.Map.Timezone),
	)

	// 3. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, "map-api", log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()
	log.Info("Redis connected")

	checks := map[string]handler.HealthChecker{"redis": redisClient}

	// 4. Places source: собственная БД или REST бэкенд
	var source repository.PlaceRepository
	switch cfg.Places.Source {
	case config.PlacesSourceHTTP:
		source = placesapi.NewClient(&cfg.Places, log)
		log.Info("Places are read from REST backend", zap.String("base_url", cfg.Places.BaseURL))
	default:
		db, err := postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
		checks["postgres"] = db
		source = postgres.NewPlaceRepository(db)
		log.Info("PostgreSQL connected")
	}

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for name, check := range checks {
		if err := check.Health(ctx); err != nil {
			log.Fatal("Health check failed", zap.String("component", name), zap.Error(err))
		}
	}
	log.Info("All connections healthy")

	// 6. Initialize Repositories
	cacheRepo := cache.NewCacheRepository(redisClient)
	placeRepo := cache.NewCachedPlaceRepository(source, cacheRepo, cfg.Cache.PlacesCacheTTL, log)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log)

	sinks := func(guestKind, sessionID string) bridge.CommandSink {
		if guestKind == dto.GuestKindHeadless {
			return redisRepo.NewHeadlessSink(streamRepo, sessionID, headlessStreamMaxLen)
		}
		return redisRepo.NewOutboxSink(streamRepo, sessionID, cfg.Map.OutboxMaxLen)
	}

	log.Info("Repositories initialized")

	// 7. Initialize Use Cases
	sessionUC := usecase.NewMapSessionUseCase(placeRepo, streamRepo, sinks, usecase.MapSessionOptions{
		Location:                cfg.Location(),
		DefaultCenter:           domain.Coordinate{Lat: cfg.Map.DefaultLat, Lng: cfg.Map.DefaultLng},
		DefaultZoom:             cfg.Map.DefaultZoom,
		FocusZoom:               cfg.Map.FocusZoom,
		RelocateThresholdMeters: cfg.Map.RelocateThresholdMeters,
		SessionTTL:              cfg.Map.SessionTTL,
		PublicBaseURL:           cfg.Map.PublicBaseURL,
		TileURL:                 cfg.Map.TileURL,
		RoutingURL:              cfg.Map.RoutingURL,
	}, log)

	placeUC := usecase.NewPlaceUseCase(placeRepo, cfg.Location(), log)

	log.Info("Use cases initialized")

	// 8. Guest events consumer (ответы headless-гостей)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(events.NewGuestEventWorker(streamRepo, sessionUC, cfg.Worker.EventsGroup, log))
	if err := workerManager.Start(workerCtx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	go sessionUC.RunJanitor(workerCtx, janitorInterval)

	// 9. Initialize HTTP Handlers and Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		handler.NewMapSessionHandler(sessionUC, log),
		handler.NewPlaceHandler(placeUC, log),
		handler.NewHealthHandler(checks, sessionUC.SessionCount, log),
	)

	log.Info("HTTP server initialized")

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	stopWorkers()
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}

package http

import (
	"context"
	"time"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/config"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/delivery/http/handler"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/delivery/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	// Handlers
	mapSessionHandler *handler.MapSessionHandler
	placeHandler      *handler.PlaceHandler
	healthHandler     *handler.HealthHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	mapSessionHandler *handler.MapSessionHandler,
	placeHandler *handler.PlaceHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Ruta Cafe Map Service",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:               app,
		config:            cfg,
		logger:            logger,
		mapSessionHandler: mapSessionHandler,
		placeHandler:      placeHandler,
		healthHandler:     healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	api.Get("/health", s.healthHandler.Health)

	// Places
	api.Get("/places", s.placeHandler.ListPlaces)
	api.Get("/places/:id/availability", s.placeHandler.GetAvailability)

	// Map sessions
	sessions := api.Group("/map/sessions")
	sessions.Post("/", s.mapSessionHandler.CreateSession)
	sessions.Get("/:id", s.mapSessionHandler.GetView)
	sessions.Delete("/:id", s.mapSessionHandler.CloseSession)

	// Гость: документ, payload, сообщения и команды
	sessions.Get("/:id/guest", s.mapSessionHandler.GuestPage)
	sessions.Get("/:id/payload", s.mapSessionHandler.GetPayload)
	sessions.Post("/:id/messages", s.mapSessionHandler.PostMessage)
	sessions.Get("/:id/commands", s.mapSessionHandler.GetCommands)
	sessions.Post("/:id/load-failure", s.mapSessionHandler.ReportLoadFailure)
	sessions.Post("/:id/retry", s.mapSessionHandler.Retry)

	// Хост: геолокация, маршрут, центрирование
	sessions.Put("/:id/location", s.mapSessionHandler.UpdateLocation)
	sessions.Post("/:id/route", s.mapSessionHandler.RequestRoute)
	sessions.Delete("/:id/route", s.mapSessionHandler.ClearRoute)
	sessions.Post("/:id/center", s.mapSessionHandler.CenterOn)
	sessions.Post("/:id/refresh", s.mapSessionHandler.RefreshPlaces)
}

// App - fiber приложение (тесты через app.Test)
func (s *Server) App() *fiber.App {
	return s.app
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - ошибки, не обработанные хендлерами (404 маршрута, паника)
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := "INTERNAL_SERVER_ERROR"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			if code == fiber.StatusNotFound {
				errCode = "NOT_FOUND"
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    errCode,
				"message": err.Error(),
			},
		})
	}
}

package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthChecker - зависимость, которую проверяет /health (Redis, Postgres)
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	checks   map[string]HealthChecker
	sessions func() int
	logger   *zap.Logger
}

// NewHealthHandler; sessions может быть nil
func NewHealthHandler(checks map[string]HealthChecker, sessions func() int, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks:   checks,
		sessions: sessions,
		logger:   logger,
	}
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := fiber.StatusOK
	components := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			components[name] = "unhealthy"
			status = "degraded"
			code = fiber.StatusServiceUnavailable
			continue
		}
		components[name] = "healthy"
	}

	body := fiber.Map{
		"status":     status,
		"components": components,
		"time":       time.Now(),
	}
	if h.sessions != nil {
		body["sessions"] = h.sessions()
	}

	return c.Status(code).JSON(body)
}

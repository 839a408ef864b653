package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const sessionsPathMarker = "/map/sessions/"

// Recovery превращает панику в 500 и пишет её в лог с сессией карты, если она есть в пути
func Recovery(logger *zap.Logger) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			fields := []zap.Field{
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("panic", fmt.Sprint(e)),
				zap.Stack("stack"),
			}
			if id := sessionIDFromPath(c.Path()); id != "" {
				fields = append(fields, zap.String("session_id", id))
			}
			logger.Error("Panic recovered", fields...)
		},
	})
}

// sessionIDFromPath: /api/v1/map/sessions/<id>[/...] -> <id>
func sessionIDFromPath(path string) string {
	i := strings.Index(path, sessionsPathMarker)
	if i < 0 {
		return ""
	}
	rest := path[i+len(sessionsPathMarker):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

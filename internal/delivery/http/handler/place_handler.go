package handler

import (
	"time"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/utils"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PlaceHandler - доступность одобренных мест
type PlaceHandler struct {
	placeUC *usecase.PlaceUseCase
	logger  *zap.Logger
}

func NewPlaceHandler(placeUC *usecase.PlaceUseCase, logger *zap.Logger) *PlaceHandler {
	return &PlaceHandler{
		placeUC: placeUC,
		logger:  logger,
	}
}

// ListPlaces godoc
// @Summary Одобренные места с доступностью
// @Tags Places
// @Produce json
// @Param route_id query string false "Фильтр по маршруту"
// @Param category query string false "Фильтр по категории"
// @Param at query string false "Момент в RFC3339; по умолчанию - сейчас"
// @Success 200 {object} utils.SuccessResponse{data=dto.PlacesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/places [get]
func (h *PlaceHandler) ListPlaces(c *fiber.Ctx) error {
	at, err := parseInstant(c.Query("at"))
	if err != nil {
		return utils.SendError(c, err)
	}

	filter := domain.PlaceFilter{
		RouteID:  c.Query("route_id"),
		Category: c.Query("category"),
	}

	resp, err := h.placeUC.ListAvailable(c.Context(), filter, at)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, resp, &utils.Meta{Total: resp.Total})
}

// GetAvailability godoc
// @Summary Доступность места
// @Description Открыто ли место в момент at и текст статуса ("closes in 15 min", "opens 10:00", ...)
// @Tags Places
// @Produce json
// @Param id path string true "ID места"
// @Param at query string false "Момент в RFC3339; по умолчанию - сейчас"
// @Success 200 {object} utils.SuccessResponse{data=dto.PlaceAvailability}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/places/{id}/availability [get]
func (h *PlaceHandler) GetAvailability(c *fiber.Ctx) error {
	at, err := parseInstant(c.Query("at"))
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.placeUC.Availability(c.Context(), c.Params("id"), at)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// parseInstant: пустая строка - нулевое время (сейчас)
func parseInstant(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"at": "must be RFC3339",
		})
	}
	return at, nil
}

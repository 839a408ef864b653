package handler

import (
	"strconv"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/utils"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/validator"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/usecase"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/usecase/dto"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MapSessionHandler - сессии карты: гость, сообщения, команды и маршрут
type MapSessionHandler struct {
	sessionUC *usecase.MapSessionUseCase
	logger    *zap.Logger
}

func NewMapSessionHandler(sessionUC *usecase.MapSessionUseCase, logger *zap.Logger) *MapSessionHandler {
	return &MapSessionHandler{
		sessionUC: sessionUC,
		logger:    logger,
	}
}

// CreateSession godoc
// @Summary Создать сессию карты
// @Description Загружает одобренные места (с фильтром по маршруту или категории) и создаёт гостя карты. Браузерный гость открывается по guest_url, headless-гость работает в cmd/worker.
// @Tags Map
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest true "Параметры сессии"
// @Success 201 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions [post]
func (h *MapSessionHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, errors.ErrInvalidRequest)
		}
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	resp, err := h.sessionUC.CreateSession(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Status(fiber.StatusCreated)
	return utils.SendSuccess(c, resp, nil)
}

// GetView godoc
// @Summary Состояние сессии
// @Description Проекция состояния для экрана хоста: статус карты, панель маршрута, баннер ошибки, запрос геолокации
// @Tags Map
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=session.View}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id} [get]
func (h *MapSessionHandler) GetView(c *fiber.Ctx) error {
	view, err := h.sessionUC.View(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, view, nil)
}

// CloseSession godoc
// @Summary Закрыть сессию
// @Tags Map
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id} [delete]
func (h *MapSessionHandler) CloseSession(c *fiber.Ctx) error {
	if err := h.sessionUC.CloseSession(c.Context(), c.Params("id")); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GuestPage godoc
// @Summary HTML страница гостя
// @Description Документ карты текущего поколения. Пересоздание гостя = повторная загрузка этой страницы.
// @Tags Map
// @Produce html
// @Param id path string true "ID сессии"
// @Success 200 {string} string "HTML"
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id}/guest [get]
func (h *MapSessionHandler) GuestPage(c *fiber.Ctx) error {
	page, err := h.sessionUC.GuestPage(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(page)
}

func (h *MapSessionHandler) GetPayload(c *fiber.Ctx) error {
	payload, err := h.sessionUC.Payload(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, payload, &utils.Meta{Total: len(payload.Places)})
}

// PostMessage godoc
// @Summary Сообщение гостя
// @Description Сырая строка протокола гостя (MAP_LOADED, ROUTE_CALCULATED:..., ...). Нераспознанные сообщения принимаются и игнорируются.
// @Tags Map
// @Accept plain
// @Param id path string true "ID сессии"
// @Param generation query int false "Поколение гостя; 0 - без поколения"
// @Param message body string true "Сообщение"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Failure 410 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id}/messages [post]
func (h *MapSessionHandler) PostMessage(c *fiber.Ctx) error {
	generation, err := strconv.ParseUint(c.Query("generation", "0"), 10, 64)
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"generation": "must be a non-negative integer",
		}))
	}

	if err := h.sessionUC.DispatchMessage(c.Context(), c.Params("id"), generation, string(c.Body())); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCommands godoc
// @Summary Команды гостю
// @Description Команды текущего поколения строго после курсора after
// @Tags Map
// @Produce json
// @Param id path string true "ID сессии"
// @Param after query string false "ID последней полученной записи" default(0)
// @Param limit query int false "Максимум команд" default(100)
// @Success 200 {object} utils.SuccessResponse{data=dto.CommandsResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id}/commands [get]
func (h *MapSessionHandler) GetCommands(c *fiber.Ctx) error {
	resp, err := h.sessionUC.Commands(
		c.Context(),
		c.Params("id"),
		c.Query("after", "0"),
		int64(c.QueryInt("limit", 0)),
	)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, resp, &utils.Meta{Total: len(resp.Commands)})
}

func (h *MapSessionHandler) UpdateLocation(c *fiber.Ctx) error {
	var req dto.LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	view, err := h.sessionUC.UpdateLocation(c.Context(), c.Params("id"), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, view, nil)
}

// RequestRoute godoc
// @Summary Запросить маршрут
// @Description Запускает расчёт маршрута от геолокации пользователя до места; предыдущий маршрут вытесняется
// @Tags Map
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.RouteRequest true "Место"
// @Success 202 {object} utils.SuccessResponse{data=session.View}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse "Нет геолокации"
// @Failure 503 {object} utils.ErrorResponse "Карта недоступна"
// @Router /api/v1/map/sessions/{id}/route [post]
func (h *MapSessionHandler) RequestRoute(c *fiber.Ctx) error {
	var req dto.RouteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	view, err := h.sessionUC.RequestRoute(c.Context(), c.Params("id"), req.PlaceID)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Status(fiber.StatusAccepted)
	return utils.SendSuccess(c, view, nil)
}

func (h *MapSessionHandler) ClearRoute(c *fiber.Ctx) error {
	view, err := h.sessionUC.ClearRoute(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, view, nil)
}

func (h *MapSessionHandler) CenterOn(c *fiber.Ctx) error {
	var req dto.CenterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.sessionUC.CenterOn(c.Context(), c.Params("id"), req); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Retry - пересоздание гостя после MAP_ERROR
func (h *MapSessionHandler) Retry(c *fiber.Ctx) error {
	view, err := h.sessionUC.Retry(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, view, nil)
}

func (h *MapSessionHandler) ReportLoadFailure(c *fiber.Ctx) error {
	var req dto.LoadFailureRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, errors.ErrInvalidRequest)
		}
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	generation, err := strconv.ParseUint(c.Query("generation", "0"), 10, 64)
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	view, err := h.sessionUC.ReportLoadFailure(c.Params("id"), generation, req.Reason)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, view, nil)
}

// RefreshPlaces - перечитать места; гость пересоздаётся только если набор изменился
func (h *MapSessionHandler) RefreshPlaces(c *fiber.Ctx) error {
	resp, err := h.sessionUC.RefreshPlaces(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, resp, nil)
}

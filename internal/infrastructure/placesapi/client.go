package placesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/config"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
	apperrors "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"go.uber.org/zap"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient - источник мест через REST бэкенд (GET /places, GET /places/:id)
func NewClient(cfg *config.PlacesConfig, logger *zap.Logger) repository.PlaceRepository {
	return &client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
	}
}

func (c *client) List(ctx context.Context) ([]domain.Place, error) {
	body, err := c.get(ctx, "/places")
	if err != nil {
		return nil, err
	}

	var wire []placeWire
	if err := unwrap(body, &wire); err != nil {
		c.logger.Error("Failed to decode places", zap.Error(err))
		return nil, apperrors.ErrUpstreamError
	}

	places := make([]domain.Place, 0, len(wire))
	for _, w := range wire {
		places = append(places, w.toDomain(c.logger))
	}
	return places, nil
}

func (c *client) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	body, err := c.get(ctx, "/places/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var wire placeWire
	if err := unwrap(body, &wire); err != nil {
		c.logger.Error("Failed to decode place", zap.String("id", id), zap.Error(err))
		return nil, apperrors.ErrUpstreamError
	}

	place := wire.toDomain(c.logger)
	return &place, nil
}

func (c *client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Places backend request failed", zap.String("path", path), zap.Error(err))
		return nil, apperrors.ErrUpstreamError
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ErrUpstreamError
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.ErrPlaceNotFound
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("Places backend returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode))
		return nil, apperrors.ErrUpstreamError
	}

	return body, nil
}

// unwrap принимает как голый JSON, так и конверт {"data": ...}
func unwrap(body []byte, dst interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 {
			trimmed = envelope.Data
		}
	}
	return json.Unmarshal(trimmed, dst)
}

type placeWire struct {
	ID          flexString     `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Latitude    flexFloat      `json:"latitude"`
	Longitude   flexFloat      `json:"longitude"`
	RouteID     flexString     `json:"route_id"`
	RouteName   string         `json:"route_name"`
	Status      string         `json:"status"`
	Schedules   []scheduleWire `json:"schedules"`
}

type scheduleWire struct {
	DayOfWeek string `json:"day_of_week"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

func (w placeWire) toDomain(logger *zap.Logger) domain.Place {
	place := domain.Place{
		ID:          string(w.ID),
		Name:        w.Name,
		Description: w.Description,
		Category:    w.Category,
		Lat:         float64(w.Latitude),
		Lng:         float64(w.Longitude),
		RouteID:     string(w.RouteID),
		RouteName:   w.RouteName,
		Status:      w.Status,
	}

	for _, s := range w.Schedules {
		day, err := domain.ParseWeekday(s.DayOfWeek)
		if err != nil {
			logger.Warn("Skipping schedule with unknown weekday",
				zap.String("place_id", place.ID),
				zap.String("day_of_week", s.DayOfWeek))
			continue
		}
		open, errOpen := domain.ParseTimeOfDay(s.OpenTime)
		closing, errClose := domain.ParseTimeOfDay(s.CloseTime)
		if errOpen != nil || errClose != nil {
			logger.Warn("Skipping schedule with invalid time",
				zap.String("place_id", place.ID),
				zap.String("open_time", s.OpenTime),
				zap.String("close_time", s.CloseTime))
			continue
		}
		place.Schedules = append(place.Schedules, domain.DaySchedule{
			DayOfWeek: day,
			OpenTime:  open,
			CloseTime: closing,
		})
	}

	return place
}

// flexString - id бэкенда приходит числом или строкой
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat - координаты приходят числом или строкой (numeric из Postgres)
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("coordinate must be a number or a string: %s", data)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

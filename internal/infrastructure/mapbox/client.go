package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/config"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
	"go.uber.org/zap"
)

type client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	profile     string
	logger      *zap.Logger
}

type directionsResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// NewDirectionsClient создает клиент Mapbox Directions API
func NewDirectionsClient(cfg *config.MapboxConfig, logger *zap.Logger) repository.DirectionsRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		profile:     cfg.Profile,
		logger:      logger,
	}
}

// Route возвращает расстояние и время первого маршрута между двумя точками
func (c *client) Route(ctx context.Context, from, to domain.Coordinate) (*domain.RouteEstimate, error) {
	// Mapbox ждёт lon,lat
	coordinates := fmt.Sprintf("%f,%f;%f,%f", from.Lng, from.Lat, to.Lng, to.Lat)

	query := url.Values{}
	query.Set("access_token", c.accessToken)
	query.Set("overview", "false")
	query.Set("alternatives", "false")

	endpoint := fmt.Sprintf("%s/directions/v5/%s/%s?%s", c.baseURL, c.profile, coordinates, query.Encode())

	c.logger.Debug("Calling Mapbox Directions API",
		zap.String("profile", c.profile),
		zap.String("coordinates", coordinates))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Mapbox Directions request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Mapbox API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("mapbox API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var directions directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&directions); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if directions.Code != "Ok" {
		return nil, fmt.Errorf("mapbox API returned code %s: %s", directions.Code, directions.Message)
	}
	if len(directions.Routes) == 0 {
		return nil, fmt.Errorf("mapbox API returned no routes")
	}

	route := directions.Routes[0]
	return &domain.RouteEstimate{
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
	}, nil
}

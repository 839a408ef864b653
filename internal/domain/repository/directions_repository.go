package repository

import (
	"context"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
)

// DirectionsRepository - внешний сервис маршрутизации
type DirectionsRepository interface {
	// Route возвращает расстояние и время в пути между двумя точками
	Route(ctx context.Context, from, to domain.Coordinate) (*domain.RouteEstimate, error)
}

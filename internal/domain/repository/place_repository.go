package repository

import (
	"context"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
)

// PlaceRepository - внешний сервис мест (только чтение)
type PlaceRepository interface {
	// List возвращает все места вместе с расписаниями, без фильтра по статусу
	List(ctx context.Context) ([]domain.Place, error)

	// GetByID возвращает место по ID
	GetByID(ctx context.Context, id string) (*domain.Place, error)
}

package usecase

import (
	"context"
	"time"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/usecase/dto"
	"go.uber.org/zap"
)

// PlaceUseCase - одобренные места и их доступность
type PlaceUseCase struct {
	placeRepo repository.PlaceRepository
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

func NewPlaceUseCase(
	placeRepo repository.PlaceRepository,
	location *time.Location,
	logger *zap.Logger,
) *PlaceUseCase {
	if location == nil {
		location = time.UTC
	}
	return &PlaceUseCase{
		placeRepo: placeRepo,
		location:  location,
		now:       time.Now,
		logger:    logger,
	}
}

// SetClock подменяет источник времени (тесты)
func (uc *PlaceUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// ListAvailable возвращает одобренные места с доступностью на момент at (нулевой - сейчас)
func (uc *PlaceUseCase) ListAvailable(ctx context.Context, filter domain.PlaceFilter, at time.Time) (*dto.PlacesResponse, error) {
	places, err := loadApprovedPlaces(ctx, uc.placeRepo, filter)
	if err != nil {
		uc.logger.Error("Failed to list places", zap.Error(err))
		return nil, err
	}

	at = uc.instant(at)
	result := make([]dto.PlaceAvailability, 0, len(places))
	for _, p := range places {
		result = append(result, toPlaceAvailability(p, at))
	}

	return &dto.PlacesResponse{
		Places: result,
		Total:  len(result),
	}, nil
}

// Availability - доступность одного места; неодобренные места не видны
func (uc *PlaceUseCase) Availability(ctx context.Context, id string, at time.Time) (*dto.PlaceAvailability, error) {
	place, err := uc.placeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !place.IsApproved() {
		return nil, errors.ErrPlaceNotFound
	}

	result := toPlaceAvailability(*place, uc.instant(at))
	return &result, nil
}

// instant переводит момент в часовой пояс расписаний
func (uc *PlaceUseCase) instant(at time.Time) time.Time {
	if at.IsZero() {
		at = uc.now()
	}
	return at.In(uc.location)
}

func toPlaceAvailability(p domain.Place, at time.Time) dto.PlaceAvailability {
	status := domain.Evaluate(p.Schedules, at)

	schedules := make([]dto.ScheduleItem, 0, len(p.Schedules))
	for _, s := range p.Schedules {
		day := s.DayOfWeek
		if parsed, err := domain.ParseWeekday(string(day)); err == nil {
			day = parsed
		}
		schedules = append(schedules, dto.ScheduleItem{
			DayOfWeek: string(day),
			Label:     day.SpanishLabel(),
			OpenTime:  s.OpenTime.String(),
			CloseTime: s.CloseTime.String(),
		})
	}

	return dto.PlaceAvailability{
		ID:         p.ID,
		Name:       p.Name,
		Category:   p.Category,
		Lat:        p.Lat,
		Lng:        p.Lng,
		RouteName:  p.RouteName,
		IsOpen:     status.IsOpen,
		StatusText: status.StatusText,
		At:         at.Format(time.RFC3339),
		Schedules:  schedules,
	}
}

// loadApprovedPlaces - только одобренные места, подходящие под фильтр
func loadApprovedPlaces(ctx context.Context, repo repository.PlaceRepository, filter domain.PlaceFilter) ([]domain.Place, error) {
	all, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	places := make([]domain.Place, 0, len(all))
	for _, p := range all {
		if p.IsApproved() && filter.Match(p) {
			places = append(places, p)
		}
	}
	return places, nil
}

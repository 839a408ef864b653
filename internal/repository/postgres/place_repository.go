package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
	apperrors "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const placeColumns = `
	p.id::text AS id,
	p.name,
	p.description,
	p.category,
	p.latitude,
	p.longitude,
	COALESCE(p.route_id::text, '') AS route_id,
	COALESCE(r.name, '') AS route_name,
	p.status`

type placeRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPlaceRepository(db *DB) repository.PlaceRepository {
	return &placeRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type scheduleRow struct {
	PlaceID   string           `db:"place_id"`
	DayOfWeek string           `db:"day_of_week"`
	OpenTime  domain.TimeOfDay `db:"open_time"`
	CloseTime domain.TimeOfDay `db:"close_time"`
}

// List возвращает все места с расписаниями; фильтр по статусу делает вызывающий
func (r *placeRepository) List(ctx context.Context) ([]domain.Place, error) {
	query := `SELECT ` + placeColumns + `
		FROM places p
		LEFT JOIN routes r ON r.id = p.route_id
		ORDER BY p.id`

	var places []domain.Place
	if err := r.db.SelectContext(ctx, &places, query); err != nil {
		r.logger.Error("Failed to list places", zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	if err := r.attachSchedules(ctx, places); err != nil {
		return nil, err
	}

	r.logger.Debug("Places loaded", zap.Int("count", len(places)))
	return places, nil
}

func (r *placeRepository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	query := `SELECT ` + placeColumns + `
		FROM places p
		LEFT JOIN routes r ON r.id = p.route_id
		WHERE p.id::text = $1`

	var place domain.Place
	err := r.db.GetContext(ctx, &place, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrPlaceNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get place by ID", zap.String("id", id), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	places := []domain.Place{place}
	if err := r.attachSchedules(ctx, places); err != nil {
		return nil, err
	}

	return &places[0], nil
}

// attachSchedules загружает расписания всех мест одним запросом
func (r *placeRepository) attachSchedules(ctx context.Context, places []domain.Place) error {
	if len(places) == 0 {
		return nil
	}

	ids := make([]string, 0, len(places))
	index := make(map[string]int, len(places))
	for i, p := range places {
		ids = append(ids, p.ID)
		index[p.ID] = i
	}

	query := `
		SELECT
			place_id::text AS place_id,
			day_of_week,
			to_char(open_time, 'HH24:MI') AS open_time,
			to_char(close_time, 'HH24:MI') AS close_time
		FROM schedules
		WHERE place_id::text = ANY($1)
		ORDER BY place_id, id`

	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		r.logger.Error("Failed to load schedules", zap.Int("places", len(ids)), zap.Error(err))
		return apperrors.ErrDatabaseError
	}

	for _, row := range rows {
		day, err := domain.ParseWeekday(row.DayOfWeek)
		if err != nil {
			r.logger.Warn("Skipping schedule with unknown weekday",
				zap.String("place_id", row.PlaceID),
				zap.String("day_of_week", row.DayOfWeek))
			continue
		}

		i, ok := index[row.PlaceID]
		if !ok {
			continue
		}
		places[i].Schedules = append(places[i].Schedules, domain.DaySchedule{
			DayOfWeek: day,
			OpenTime:  row.OpenTime,
			CloseTime: row.CloseTime,
		})
	}

	return nil
}

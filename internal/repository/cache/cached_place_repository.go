package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	placesListKey  = "places:all"
	placeKeyPrefix = "places:id:"
)

// cachedPlaceRepository кеширует ответы источника мест в Redis.
// Ошибки кеша не ломают чтение: запрос уходит в источник.
type cachedPlaceRepository struct {
	next   repository.PlaceRepository
	cache  repository.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedPlaceRepository(
	next repository.PlaceRepository,
	cache repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) repository.PlaceRepository {
	return &cachedPlaceRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *cachedPlaceRepository) List(ctx context.Context) ([]domain.Place, error) {
	var places []domain.Place
	if r.load(ctx, placesListKey, &places) {
		return places, nil
	}

	places, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}

	r.store(ctx, placesListKey, places)
	return places, nil
}

func (r *cachedPlaceRepository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	key := placeKeyPrefix + id

	var place domain.Place
	if r.load(ctx, key, &place) {
		return &place, nil
	}

	found, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, found)
	return found, nil
}

func (r *cachedPlaceRepository) load(ctx context.Context, key string, dst interface{}) bool {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Places cache unavailable, reading from source", zap.String("key", key), zap.Error(err))
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		r.logger.Warn("Dropping corrupted cache entry", zap.String("key", key), zap.Error(err))
		_ = r.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (r *cachedPlaceRepository) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Error("Failed to marshal places for cache", zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("Failed to cache places", zap.String("key", key), zap.Error(err))
	}
}

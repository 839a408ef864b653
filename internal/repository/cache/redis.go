package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis - общий клиент: кеш мест и стримы карты.
// clientName виден в CLIENT LIST, по нему различаются map-api и headless-гость.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedis(cfg *config.RedisConfig, clientName string, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(newOptions(cfg, clientName))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", client.Options().Addr, err)
	}

	logger.Info("Redis connected",
		zap.String("addr", client.Options().Addr),
		zap.Int("db", cfg.DB),
		zap.String("client_name", clientName),
	)

	return &Redis{
		client: client,
		logger: logger,
	}, nil
}

func newOptions(cfg *config.RedisConfig, clientName string) *redis.Options {
	return &redis.Options{
		Addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: clientName,
	}
}

func (r *Redis) Close() error {
	stats := r.client.PoolStats()
	r.logger.Info("Closing Redis connection",
		zap.Uint32("total_conns", stats.TotalConns),
		zap.Uint32("timeouts", stats.Timeouts))
	return r.client.Close()
}

// Health - проверка для /health; без Redis сессии теряют outbox и события гостя
func (r *Redis) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Client() *redis.Client {
	return r.client
}

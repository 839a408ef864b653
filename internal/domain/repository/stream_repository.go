package repository

import (
	"context"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
)

// StreamRepository - интерфейс для работы с Redis Streams
type StreamRepository interface {
	// ConsumeStream читает сообщения из стрима
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	// AckMessage подтверждает обработку сообщения
	AckMessage(ctx context.Context, stream, group, messageID string) error

	// CreateConsumerGroup создаёт consumer group
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// PublishToStream публикует сообщение в стрим; maxLen > 0 обрезает стрим приблизительно
	PublishToStream(ctx context.Context, stream string, data interface{}, maxLen int64) error

	// ReadAfter читает сообщения строго после afterID без consumer group
	ReadAfter(ctx context.Context, stream, afterID string, count int64) ([]domain.StreamMessage, error)

	// DeleteStream удаляет стрим целиком
	DeleteStream(ctx context.Context, stream string) error
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
	apperrors "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/worker"
	"go.uber.org/zap"
)

// Dispatcher - получатель сырых сообщений гостей; реализуется MapSessionUseCase
type Dispatcher interface {
	DispatchMessage(ctx context.Context, sessionID string, generation uint64, raw string) error
}

// GuestEventWorker доставляет сообщения headless-гостей в сессии API.
// Сообщение подтверждается всегда: повторная доставка не нужна протоколу без гарантий.
type GuestEventWorker struct {
	*worker.BaseWorker
	streams    repository.StreamRepository
	dispatcher Dispatcher
}

func NewGuestEventWorker(
	streams repository.StreamRepository,
	dispatcher Dispatcher,
	consumerGroup string,
	logger *zap.Logger,
) *GuestEventWorker {
	return &GuestEventWorker{
		BaseWorker: worker.NewBaseWorker("guest-events", consumerGroup, logger),
		streams:    streams,
		dispatcher: dispatcher,
	}
}

func (w *GuestEventWorker) Start(ctx context.Context) error {
	if err := w.streams.CreateConsumerGroup(ctx, domain.StreamMapGuestEvents, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-w.StopChan():
			cancel()
		case <-ctx.Done():
		}
	}()

	messages, err := w.streams.ConsumeStream(ctx, domain.StreamMapGuestEvents, w.ConsumerGroup(), w.ConsumerName())
	if err != nil {
		return fmt.Errorf("failed to consume guest events: %w", err)
	}

	w.Logger().Info("Guest event worker started",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()))

	for msg := range messages {
		w.HandleMessage(ctx, msg)

		if err := w.streams.AckMessage(ctx, domain.StreamMapGuestEvents, w.ConsumerGroup(), msg.ID); err != nil {
			w.Logger().Warn("Failed to ack guest event", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	return nil
}

// HandleMessage разбирает конверт и передаёт сообщение сессии
func (w *GuestEventWorker) HandleMessage(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger()

	var env domain.GuestMessageEnvelope
	if err := json.Unmarshal([]byte(msg.Data), &env); err != nil || env.SessionID == "" {
		logger.Warn("Skipping malformed guest event", zap.String("message_id", msg.ID))
		return
	}

	err := w.dispatcher.DispatchMessage(ctx, env.SessionID, env.Generation, env.Message)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrSessionNotFound), errors.Is(err, apperrors.ErrStaleGeneration):
		// сессия закрыта или гость пересоздан, пока считался маршрут
		logger.Debug("Dropping guest event",
			zap.String("session_id", env.SessionID),
			zap.Uint64("generation", env.Generation),
			zap.Error(err))
	default:
		logger.Warn("Failed to dispatch guest event",
			zap.String("session_id", env.SessionID),
			zap.String("message", env.Message),
			zap.Error(err))
	}
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
)

// StreamCommandSink публикует команды гостя сессии в Redis Stream.
// Браузерный гость читает персональный outbox, headless-гости - общий стрим.
type StreamCommandSink struct {
	streams   repository.StreamRepository
	stream    string
	sessionID string
	maxLen    int64
}

// NewOutboxSink - команды в персональный стрим сессии, который опрашивает страница гостя
func NewOutboxSink(streams repository.StreamRepository, sessionID string, maxLen int64) *StreamCommandSink {
	return &StreamCommandSink{
		streams:   streams,
		stream:    domain.OutboxStream(sessionID),
		sessionID: sessionID,
		maxLen:    maxLen,
	}
}

// NewHeadlessSink - команды в общий стрим headless-гостей
func NewHeadlessSink(streams repository.StreamRepository, sessionID string, maxLen int64) *StreamCommandSink {
	return &StreamCommandSink{
		streams:   streams,
		stream:    domain.StreamMapHeadlessCommands,
		sessionID: sessionID,
		maxLen:    maxLen,
	}
}

func (s *StreamCommandSink) Stream() string { return s.stream }

func (s *StreamCommandSink) Send(ctx context.Context, generation uint64, cmd bridge.Command) error {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	return s.streams.PublishToStream(ctx, s.stream, domain.CommandEnvelope{
		SessionID:  s.sessionID,
		Generation: generation,
		Command:    raw,
	}, s.maxLen)
}

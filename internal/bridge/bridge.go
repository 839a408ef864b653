package bridge

import (
	"context"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"go.uber.org/zap"
)

// GuestStatus - жизненный цикл поверхности карты глазами хоста
type GuestStatus string

const (
	GuestLoading     GuestStatus = "loading"
	GuestReady       GuestStatus = "ready"
	GuestUnavailable GuestStatus = "unavailable"
)

// UntaggedGeneration - сообщение без номера поколения (встроенный гость старой версии)
const UntaggedGeneration uint64 = 0

// Bridge владеет гостем одной сессии: поколение, статус загрузки, канал команд.
// Не потокобезопасен: вызывающий сериализует доступ.
type Bridge struct {
	sink       CommandSink
	logger     *zap.Logger
	generation uint64
	status     GuestStatus
	lastError  string
	payload    Payload
}

// New создаёт мост без гостя; первый гость появляется при Recreate
func New(sink CommandSink, logger *zap.Logger) *Bridge {
	return &Bridge{
		sink:   sink,
		logger: logger,
		status: GuestLoading,
	}
}

// Recreate пересоздаёт гостя целиком с новым payload и возвращает новое поколение.
// Сообщения предыдущих поколений после этого отбрасываются.
func (b *Bridge) Recreate(payload Payload) uint64 {
	b.generation++
	payload.Generation = b.generation
	b.payload = payload
	b.status = GuestLoading
	b.lastError = ""

	b.logger.Debug("Guest recreated",
		zap.String("session_id", payload.SessionID),
		zap.Uint64("generation", b.generation),
		zap.Int("places", len(payload.Places)))

	return b.generation
}

func (b *Bridge) Generation() uint64 { return b.generation }

func (b *Bridge) Payload() Payload { return b.payload }

func (b *Bridge) Status() GuestStatus { return b.status }

func (b *Bridge) LastError() string { return b.lastError }

// Accept разбирает сообщение гостя. ok=false - сообщение от устаревшего поколения.
// События жизненного цикла (MAP_LOADED, MAP_ERROR) применяются здесь же.
func (b *Bridge) Accept(generation uint64, raw string) (Event, bool) {
	if generation != UntaggedGeneration && generation != b.generation {
		b.logger.Debug("Dropping message from stale guest",
			zap.Uint64("generation", generation),
			zap.Uint64("current_generation", b.generation))
		return nil, false
	}

	event := ParseEvent(raw)

	switch e := event.(type) {
	case MapLoaded:
		// из unavailable выводит только Recreate
		if b.status == GuestLoading {
			b.status = GuestReady
		}
	case MapError:
		b.markUnavailable(e.Message)
	case Unknown:
		b.logger.Debug("Ignoring unrecognized guest message", zap.String("raw", e.Raw))
	}

	return event, true
}

// ReportLoadFailure - ошибка загрузки на уровне транспорта; для хоста то же, что MAP_ERROR
func (b *Bridge) ReportLoadFailure(reason string) {
	b.markUnavailable(reason)
}

func (b *Bridge) markUnavailable(reason string) {
	b.status = GuestUnavailable
	b.lastError = reason
	b.logger.Warn("Guest unavailable",
		zap.String("session_id", b.payload.SessionID),
		zap.Uint64("generation", b.generation),
		zap.String("reason", reason))
}

func (b *Bridge) CenterOn(ctx context.Context, lat, lng float64, zoom int) error {
	return b.send(ctx, CenterOn(lat, lng, zoom))
}

func (b *Bridge) CalculateRoute(ctx context.Context, origin, destination domain.Coordinate, placeID string, token uint64) error {
	return b.send(ctx, CalculateRoute(origin, destination, placeID, token))
}

func (b *Bridge) ClearRoute(ctx context.Context) error {
	return b.send(ctx, ClearRoute())
}

func (b *Bridge) send(ctx context.Context, cmd Command) error {
	if err := b.sink.Send(ctx, b.generation, cmd); err != nil {
		b.logger.Warn("Failed to send command to guest",
			zap.String("session_id", b.payload.SessionID),
			zap.String("command", string(cmd.Type)),
			zap.Error(err))
		return err
	}
	return nil
}

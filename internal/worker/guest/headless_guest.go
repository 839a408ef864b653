package guest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/worker"
	"go.uber.org/zap"
)

const (
	defaultRouteConcurrency = 8
	defaultRouteTimeout     = 15 * time.Second
	defaultSurfaceTTL       = 30 * time.Minute
	eventsStreamMaxLen      = 10000
)

// Options - настройки headless-гостя
type Options struct {
	ConsumerGroup    string
	RouteConcurrency int
	RouteTimeout     time.Duration
	// SurfaceTTL - через сколько забыть гостя сессии без команд
	SurfaceTTL time.Duration
}

// surface - состояние "карты" одного гостя: поколение и текущий оверлей
type surface struct {
	generation   uint64
	routePlaceID string
	center       *domain.Coordinate
	zoom         int
	lastSeen     time.Time
}

// HeadlessGuest - гость без отрисовки: получает команды хоста из общего стрима,
// считает маршруты внешним сервисом и отвечает строками протокола в стрим событий.
// Маршруты считаются асинхронно, ответы приходят в любом порядке.
type HeadlessGuest struct {
	*worker.BaseWorker
	streams    repository.StreamRepository
	directions repository.DirectionsRepository

	routeTimeout time.Duration
	surfaceTTL   time.Duration
	sem          chan struct{}
	inflight     sync.WaitGroup
	now          func() time.Time

	mu       sync.Mutex
	surfaces map[string]*surface
}

func NewHeadlessGuest(
	streams repository.StreamRepository,
	directions repository.DirectionsRepository,
	opts Options,
	logger *zap.Logger,
) *HeadlessGuest {
	if opts.RouteConcurrency <= 0 {
		opts.RouteConcurrency = defaultRouteConcurrency
	}
	if opts.RouteTimeout <= 0 {
		opts.RouteTimeout = defaultRouteTimeout
	}
	if opts.SurfaceTTL <= 0 {
		opts.SurfaceTTL = defaultSurfaceTTL
	}

	return &HeadlessGuest{
		BaseWorker:   worker.NewBaseWorker("headless-guest", opts.ConsumerGroup, logger),
		streams:      streams,
		directions:   directions,
		routeTimeout: opts.RouteTimeout,
		surfaceTTL:   opts.SurfaceTTL,
		sem:          make(chan struct{}, opts.RouteConcurrency),
		now:          time.Now,
		surfaces:     make(map[string]*surface),
	}
}

// Start читает стрим команд до остановки; перед выходом ждёт начатые расчёты
func (g *HeadlessGuest) Start(ctx context.Context) error {
	logger := g.Logger()

	if err := g.streams.CreateConsumerGroup(ctx, domain.StreamMapHeadlessCommands, g.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-g.StopChan():
			cancel()
		case <-ctx.Done():
		}
	}()

	messages, err := g.streams.ConsumeStream(ctx, domain.StreamMapHeadlessCommands, g.ConsumerGroup(), g.ConsumerName())
	if err != nil {
		return fmt.Errorf("failed to consume commands: %w", err)
	}

	logger.Info("Headless guest started",
		zap.String("consumer_group", g.ConsumerGroup()),
		zap.String("consumer_name", g.ConsumerName()))

	for msg := range messages {
		g.HandleMessage(ctx, msg)

		if err := g.streams.AckMessage(ctx, domain.StreamMapHeadlessCommands, g.ConsumerGroup(), msg.ID); err != nil {
			logger.Warn("Failed to ack command", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	g.inflight.Wait()
	logger.Info("Headless guest stopped")
	return nil
}

// HandleMessage применяет одну команду хоста. Битые команды пропускаются:
// хост не ждёт подтверждений.
func (g *HeadlessGuest) HandleMessage(ctx context.Context, msg domain.StreamMessage) {
	logger := g.Logger()

	var env domain.CommandEnvelope
	if err := json.Unmarshal([]byte(msg.Data), &env); err != nil || env.SessionID == "" {
		logger.Warn("Skipping malformed command envelope", zap.String("message_id", msg.ID))
		return
	}

	cmd, err := bridge.DecodeCommand(env.Command)
	if err != nil {
		logger.Warn("Skipping invalid command",
			zap.String("session_id", env.SessionID),
			zap.Error(err))
		return
	}

	g.mu.Lock()
	g.pruneLocked()
	s, fresh, ok := g.surfaceLocked(env.SessionID, env.Generation)
	if !ok {
		g.mu.Unlock()
		logger.Debug("Skipping command for replaced guest",
			zap.String("session_id", env.SessionID),
			zap.Uint64("generation", env.Generation))
		return
	}

	switch cmd.Type {
	case bridge.CommandCenterOn:
		center := *cmd.Center
		s.center = &center
		s.zoom = cmd.Zoom
	case bridge.CommandClearRoute:
		s.routePlaceID = ""
	case bridge.CommandCalculateRoute:
		s.routePlaceID = cmd.PlaceID
	}
	g.mu.Unlock()

	if fresh {
		g.emit(ctx, env.SessionID, env.Generation, bridge.MapLoaded{})
	}

	switch cmd.Type {
	case bridge.CommandClearRoute:
		g.emit(ctx, env.SessionID, env.Generation, bridge.RouteCleared{})
	case bridge.CommandCalculateRoute:
		g.calculate(ctx, env.SessionID, env.Generation, cmd)
	}
}

// surfaceLocked возвращает гостя поколения generation; fresh - гость только что "загрузился".
// Команда для более старого поколения, чем известное, отклоняется.
func (g *HeadlessGuest) surfaceLocked(sessionID string, generation uint64) (*surface, bool, bool) {
	s, exists := g.surfaces[sessionID]
	switch {
	case exists && generation < s.generation:
		return nil, false, false
	case exists && generation == s.generation:
		s.lastSeen = g.now()
		return s, false, true
	}

	s = &surface{generation: generation, lastSeen: g.now()}
	g.surfaces[sessionID] = s
	return s, true, true
}

func (g *HeadlessGuest) pruneLocked() {
	deadline := g.now().Add(-g.surfaceTTL)
	for id, s := range g.surfaces {
		if s.lastSeen.Before(deadline) {
			delete(g.surfaces, id)
		}
	}
}

// calculate считает маршрут в отдельной горутине; отмены расчёта в протоколе нет
func (g *HeadlessGuest) calculate(ctx context.Context, sessionID string, generation uint64, cmd bridge.Command) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	g.inflight.Add(1)
	go func() {
		defer g.inflight.Done()
		defer func() { <-g.sem }()

		routeCtx, cancel := context.WithTimeout(context.Background(), g.routeTimeout)
		defer cancel()

		estimate, err := g.directions.Route(routeCtx, *cmd.Origin, *cmd.Destination)
		if err != nil {
			g.Logger().Info("Route calculation failed",
				zap.String("session_id", sessionID),
				zap.String("place_id", cmd.PlaceID),
				zap.Error(err))
			g.emit(context.Background(), sessionID, generation, bridge.RouteFailed{
				PlaceID:  cmd.PlaceID,
				Token:    cmd.Token,
				HasToken: cmd.Token != 0,
			})
			return
		}

		g.emit(context.Background(), sessionID, generation, bridge.RouteCalculated{
			PlaceID:    cmd.PlaceID,
			DistanceKm: estimate.DistanceKm(),
			ETAMinutes: math.Ceil(estimate.ETAMinutes()),
			Token:      cmd.Token,
			HasToken:   cmd.Token != 0,
		})
	}()
}

func (g *HeadlessGuest) emit(ctx context.Context, sessionID string, generation uint64, event bridge.Event) {
	err := g.streams.PublishToStream(ctx, domain.StreamMapGuestEvents, domain.GuestMessageEnvelope{
		SessionID:  sessionID,
		Generation: generation,
		Message:    event.Wire(),
	}, eventsStreamMaxLen)
	if err != nil {
		g.Logger().Warn("Failed to publish guest message",
			zap.String("session_id", sessionID),
			zap.String("message", event.Wire()),
			zap.Error(err))
	}
}

// Wait ждёт завершения начатых расчётов маршрутов
func (g *HeadlessGuest) Wait() {
	g.inflight.Wait()
}

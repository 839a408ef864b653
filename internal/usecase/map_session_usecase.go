package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain/repository"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/logger"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/utils"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/session"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/usecase/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultCommandsLimit = 100
	maxCommandsLimit     = 500
	defaultPageTitle     = "Ruta del Café"
)

// SinkFactory выбирает транспорт команд для гостя сессии
type SinkFactory func(guestKind, sessionID string) bridge.CommandSink

// MapSessionOptions - параметры карты и жизни сессий
type MapSessionOptions struct {
	Location                *time.Location
	DefaultCenter           domain.Coordinate
	DefaultZoom             int
	FocusZoom               int
	RelocateThresholdMeters float64
	SessionTTL              time.Duration
	PublicBaseURL           string
	TileURL                 string
	RoutingURL              string
	PageTitle               string
}

// mapSession - гость, машина состояний маршрута и данные, из которых строится payload.
// mu сериализует всё, что меняет сессию: это аналог единственного UI-потока.
type mapSession struct {
	mu sync.Mutex

	id           string
	guestKind    string
	filter       domain.PlaceFilter
	bridge       *bridge.Bridge
	route        *session.RouteSession
	places       []domain.Place
	fingerprint  string
	userLocation *domain.Coordinate
	lastSeen     time.Time
}

// MapSessionUseCase - реестр сессий карты и операции хоста над ними
type MapSessionUseCase struct {
	placeRepo repository.PlaceRepository
	streams   repository.StreamRepository
	sinks     SinkFactory
	opts      MapSessionOptions
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*mapSession
}

func NewMapSessionUseCase(
	placeRepo repository.PlaceRepository,
	streams repository.StreamRepository,
	sinks SinkFactory,
	opts MapSessionOptions,
	logger *zap.Logger,
) *MapSessionUseCase {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PageTitle == "" {
		opts.PageTitle = defaultPageTitle
	}

	return &MapSessionUseCase{
		placeRepo: placeRepo,
		streams:   streams,
		sinks:     sinks,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*mapSession),
	}
}

// SetClock подменяет источник времени (тесты)
func (uc *MapSessionUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// CreateSession загружает места, создаёт гостя и возвращает сессию в состоянии Idle
func (uc *MapSessionUseCase) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	kind := req.GuestKind
	if kind == "" {
		kind = dto.GuestKindBrowser
	}

	var location *domain.Coordinate
	if req.Location != nil {
		if !utils.ValidateCoordinates(req.Location.Lat, req.Location.Lng) {
			return nil, errors.ErrInvalidCoordinates
		}
		location = &domain.Coordinate{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}

	filter := domain.PlaceFilter{RouteID: req.RouteID, Category: req.Category}
	places, err := loadApprovedPlaces(ctx, uc.placeRepo, filter)
	if err != nil {
		uc.logger.Error("Failed to load places for map session", zap.Error(err))
		return nil, err
	}

	id := uuid.NewString()
	b := bridge.New(uc.sinks(kind, id), logger.ForSession(uc.logger, "bridge", id))

	s := &mapSession{
		id:           id,
		guestKind:    kind,
		filter:       filter,
		bridge:       b,
		route:        session.New(b, places, location, logger.ForSession(uc.logger, "route", id)),
		places:       places,
		fingerprint:  bridge.Fingerprint(places),
		userLocation: location,
		lastSeen:     uc.now(),
	}
	uc.recreate(ctx, s)

	uc.mu.Lock()
	uc.sessions[id] = s
	uc.mu.Unlock()

	uc.logger.Info("Map session created",
		zap.String("session_id", id),
		zap.String("guest_kind", kind),
		zap.Int("places", len(places)))

	resp := &dto.SessionResponse{
		SessionID: id,
		GuestKind: kind,
		Places:    len(places),
		View:      uc.project(s),
	}
	if kind == dto.GuestKindBrowser {
		resp.GuestURL = uc.sessionURL(id, "guest")
		resp.CommandsURL = uc.sessionURL(id, "commands")
		resp.EventsURL = uc.sessionURL(id, "messages")
	}
	return resp, nil
}

// GuestPage - HTML документ браузерного гостя текущего поколения
func (uc *MapSessionUseCase) GuestPage(id string) ([]byte, error) {
	s, err := uc.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	page, err := bridge.RenderGuestPage(uc.opts.PageTitle, s.bridge.Payload())
	if err != nil {
		uc.logger.Error("Failed to render guest page", zap.String("session_id", id), zap.Error(err))
		return nil, errors.ErrInternalServer
	}
	return page, nil
}

func (uc *MapSessionUseCase) Payload(id string) (*bridge.Payload, error) {
	s, err := uc.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	payload := s.bridge.Payload()
	return &payload, nil
}

func (uc *MapSessionUseCase) View(id string) (*session.View, error) {
	s, err := uc.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	view := uc.project(s)
	return &view, nil
}

// DispatchMessage передаёт сырое сообщение гостя в сессию.
// Сообщения устаревшего поколения отклоняются с ErrStaleGeneration;
// нераспознанные сообщения ошибкой не являются.
func (uc *MapSessionUseCase) DispatchMessage(ctx context.Context, id string, generation uint64, raw string) error {
	s, err := uc.acquire(id)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	event, ok := s.bridge.Accept(generation, raw)
	if !ok {
		return errors.ErrStaleGeneration
	}

	if _, isRoute := event.(bridge.RouteRequested); isRoute && s.bridge.Status() == bridge.GuestUnavailable {
		uc.logger.Debug("Route request from unavailable guest ignored",
			zap.String("session_id", id),
			zap.String("event", event.Wire()))
		return nil
	}

	if err := s.route.Handle(ctx, event); err != nil {
		// запрос маршрута из попапа без геолокации и т.п.: видно в View
		uc.logger.Debug("Guest event not applied",
			zap.String("session_id", id),
			zap.String("event", event.Wire()),
			zap.Error(err))
	}
	return nil
}

// RequestRoute - запрос маршрута со стороны хоста (панель места, список)
func (uc *MapSessionUseCase) RequestRoute(ctx context.Context, id, placeID string) (*session.View, error) {
	s, err := uc.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if s.bridge.Status() == bridge.GuestUnavailable {
		return nil, errors.ErrMapUnavailable
	}

	if err := s.route.RequestRoute(ctx, placeID); err != nil {
		return nil, err
	}

	view := uc.project(s)
	return &view, nil
}

func (uc *MapSessionUseCase) ClearRoute(ctx context.Context, id string) (*session.View, error) {
	s, err := uc.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	s.route.Clear(ctx)

	view := uc.project(s)
	return &view, nil
}

// CenterOn центрирует карту на месте (с зумом фокуса) или на точке
func (uc *MapSessionUseCase) CenterOn(ctx context.Context, id string, req dto.CenterRequest) error {
	s, err := uc.acquire(id)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	zoom := req.Zoom
	if zoom == 0 {
		zoom = uc.opts.FocusZoom
	}

	var target domain.Coordinate
	switch {
	case req.PlaceID != "":
		place, ok := s.route.Place(req.PlaceID)
		if !ok {
			return errors.ErrPlaceNotFound
		}
		target = place.Coordinate()
	case req.Lat != nil && req.Lng != nil:
		if !utils.ValidateCoordinates(*req.Lat, *req.Lng) {
			return errors.ErrInvalidCoordinates
		}
		target = domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	default:
		return errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"place_id": "required without lat/lng",
		})
	}

	if err := s.bridge.CenterOn(ctx, target.Lat, target.Lng, zoom); err != nil {
		return errors.ErrMapUnavailable
	}
	return nil
}

// UpdateLocation меняет геолокацию пользователя. Гость пересоздаётся, только если
// точка сместилась дальше порога: маркер пользователя входит в payload.
func (uc *MapSessionUseCase) UpdateLocation(ctx context.Context, id string, req dto.LocationRequest) (*session.View, error) {
	if !utils.ValidateCoordinates(req.Lat, req.Lng) {
		return nil, errors.ErrInvalidCoordinates
	}

	s, err := uc.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	location := domain.Coordinate{Lat: req.Lat, Lng: req.Lng}
	moved := s.userLocation == nil ||
		utils.HaversineDistance(s.userLocation.Lat, s.userLocation.Lng, location.Lat, location.Lng)*1000 > uc.opts.RelocateThresholdMeters

	s.userLocation = &location
	if moved {
		uc.recreate(ctx, s)
	} else {
		s.route.SetUserLocation(&location)
	}

	view := uc.project(s)
	return &view, nil
}

// RefreshPlaces перечитывает места; гость пересоздаётся только при изменении отпечатка
func (uc *MapSessionUseCase) RefreshPlaces(ctx context.Context, id string) (*dto.RefreshResponse, error) {
	uc.mu.RLock()
	s, ok := uc.sessions[id]
	uc.mu.RUnlock()
	if !ok {
		return nil, errors.ErrSessionNotFound
	}

	// загрузка без блокировки сессии: сообщения гостя продолжают обрабатываться
	places, err := loadApprovedPlaces(ctx, uc.placeRepo, s.filter)
	if err != nil {
		uc.logger.Error("Failed to refresh places", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}
	fingerprint := bridge.Fingerprint(places)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = uc.now()

	recreated := fingerprint != s.fingerprint
	if recreated {
		s.places = places
		s.fingerprint = fingerprint
		uc.recreate(ctx, s)
	}

	return &dto.RefreshResponse{
		Recreated: recreated,
		View:      uc.project(s),
	}, nil
}

// Retry - единственный выход из unavailable: гость создаётся заново
func (uc *MapSessionUseCase) Retry(ctx context.Context, id string) (*session.View, error) {
	s, err := uc.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	uc.recreate(ctx, s)

	view := uc.project(s)
	return &view, nil
}

// ReportLoadFailure - страница гостя не загрузилась (сеть, скрипты карты)
func (uc *MapSessionUseCase) ReportLoadFailure(id string, generation uint64, reason string) (*session.View, error) {
	s, err := uc.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if generation != bridge.UntaggedGeneration && generation != s.bridge.Generation() {
		return nil, errors.ErrStaleGeneration
	}
	if reason == "" {
		reason = "guest failed to load"
	}
	s.bridge.ReportLoadFailure(reason)

	view := uc.project(s)
	return &view, nil
}

func (uc *MapSessionUseCase) CloseSession(ctx context.Context, id string) error {
	uc.mu.Lock()
	s, ok := uc.sessions[id]
	delete(uc.sessions, id)
	uc.mu.Unlock()

	if !ok {
		return errors.ErrSessionNotFound
	}

	uc.release(ctx, s)
	uc.logger.Info("Map session closed", zap.String("session_id", id))
	return nil
}

// Commands - команды outbox строго после after, только текущего поколения.
// Cursor продвигается и по отброшенным командам старых поколений.
func (uc *MapSessionUseCase) Commands(ctx context.Context, id, after string, limit int64) (*dto.CommandsResponse, error) {
	s, err := uc.acquire(id)
	if err != nil {
		return nil, err
	}
	generation := s.bridge.Generation()
	s.mu.Unlock()

	if limit <= 0 {
		limit = defaultCommandsLimit
	}
	if limit > maxCommandsLimit {
		limit = maxCommandsLimit
	}

	messages, err := uc.streams.ReadAfter(ctx, domain.OutboxStream(id), after, limit)
	if err != nil {
		uc.logger.Error("Failed to read command outbox", zap.String("session_id", id), zap.Error(err))
		return nil, errors.ErrCacheError
	}

	resp := &dto.CommandsResponse{
		Commands: make([]dto.CommandItem, 0, len(messages)),
		Cursor:   after,
	}
	for _, msg := range messages {
		resp.Cursor = msg.ID

		var env domain.CommandEnvelope
		if err := json.Unmarshal([]byte(msg.Data), &env); err != nil {
			uc.logger.Warn("Skipping malformed outbox entry", zap.String("message_id", msg.ID))
			continue
		}
		if env.Generation != generation {
			continue
		}
		if _, err := bridge.DecodeCommand(env.Command); err != nil {
			uc.logger.Warn("Skipping invalid outbox command", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}

		resp.Commands = append(resp.Commands, dto.CommandItem{
			ID:         msg.ID,
			Generation: env.Generation,
			Command:    env.Command,
		})
	}

	return resp, nil
}

// Sweep закрывает сессии, к которым не обращались дольше SessionTTL
func (uc *MapSessionUseCase) Sweep(ctx context.Context) int {
	if uc.opts.SessionTTL <= 0 {
		return 0
	}
	deadline := uc.now().Add(-uc.opts.SessionTTL)

	uc.mu.Lock()
	expired := make([]*mapSession, 0)
	for id, s := range uc.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(deadline)
		s.mu.Unlock()
		if idle {
			expired = append(expired, s)
			delete(uc.sessions, id)
		}
	}
	uc.mu.Unlock()

	for _, s := range expired {
		uc.release(ctx, s)
	}

	if len(expired) > 0 {
		uc.logger.Info("Expired map sessions removed", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// RunJanitor периодически вызывает Sweep до отмены ctx
func (uc *MapSessionUseCase) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.Sweep(ctx)
		}
	}
}

// SessionCount - число живых сессий
func (uc *MapSessionUseCase) SessionCount() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.sessions)
}

// acquire находит сессию и возвращает её захваченной; вызывающий освобождает s.mu
func (uc *MapSessionUseCase) acquire(id string) (*mapSession, error) {
	uc.mu.RLock()
	s, ok := uc.sessions[id]
	uc.mu.RUnlock()
	if !ok {
		return nil, errors.ErrSessionNotFound
	}

	s.mu.Lock()
	s.lastSeen = uc.now()
	return s, nil
}

// recreate строит новый payload, пересоздаёт гостя и сбрасывает маршрут в Idle
func (uc *MapSessionUseCase) recreate(ctx context.Context, s *mapSession) {
	payload := bridge.BuildPayload(s.places, s.userLocation, uc.now().In(uc.opts.Location), bridge.PayloadOptions{
		SessionID:     s.id,
		DefaultCenter: uc.opts.DefaultCenter,
		DefaultZoom:   uc.opts.DefaultZoom,
		FocusZoom:     uc.opts.FocusZoom,
		EventsURL:     uc.sessionURL(s.id, "messages"),
		CommandsURL:   uc.sessionURL(s.id, "commands"),
		TileURL:       uc.opts.TileURL,
		RoutingURL:    uc.opts.RoutingURL,
	})

	generation := s.bridge.Recreate(payload)
	s.route.Reset(s.places, s.userLocation)

	// headless-гость поднимает поверхность по первой команде поколения
	if s.guestKind == dto.GuestKindHeadless {
		if err := s.bridge.CenterOn(ctx, payload.Center.Lat, payload.Center.Lng, payload.Zoom); err != nil {
			s.bridge.ReportLoadFailure(err.Error())
		}
	}

	uc.logger.Debug("Map guest recreated",
		zap.String("session_id", s.id),
		zap.Uint64("generation", generation))
}

func (uc *MapSessionUseCase) release(ctx context.Context, s *mapSession) {
	if s.guestKind != dto.GuestKindBrowser {
		return
	}
	if err := uc.streams.DeleteStream(ctx, domain.OutboxStream(s.id)); err != nil {
		uc.logger.Warn("Failed to delete command outbox", zap.String("session_id", s.id), zap.Error(err))
	}
}

func (uc *MapSessionUseCase) project(s *mapSession) session.View {
	return session.Project(s.id, s.bridge, s.route)
}

func (uc *MapSessionUseCase) sessionURL(id, resource string) string {
	return fmt.Sprintf("%s/api/v1/map/sessions/%s/%s", uc.opts.PublicBaseURL, id, resource)
}

package session

import (
	"context"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	apperrors "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"go.uber.org/zap"
)

// maxOutstandingPerPlace ограничивает очередь токенов одного места:
// гость может так и не ответить на вытесненный запрос
const maxOutstandingPerPlace = 16

// Commander - команды оверлея маршрута; реализуется *bridge.Bridge
type Commander interface {
	CalculateRoute(ctx context.Context, origin, destination domain.Coordinate, placeID string, token uint64) error
	ClearRoute(ctx context.Context) error
}

// RouteSession - машина состояний маршрута одной карты.
// Только её переходы отправляют гостю calculateRoute/clearRoute.
// Не потокобезопасна: вызывающий сериализует доступ.
type RouteSession struct {
	commander Commander
	logger    *zap.Logger

	places       map[string]domain.Place
	userLocation *domain.Coordinate

	state     State
	lastToken uint64
	// токены запросов без ответа, FIFO по месту
	outstanding map[string][]uint64
	// сколько ROUTE_CLEARED ожидается в ответ на наши clearRoute
	pendingClearAcks int

	selectedPlaceID string
	locationPrompt  bool
}

func New(commander Commander, places []domain.Place, userLocation *domain.Coordinate, logger *zap.Logger) *RouteSession {
	s := &RouteSession{
		commander: commander,
		logger:    logger,
	}
	s.Reset(places, userLocation)
	return s
}

// Reset - гость пересоздан: оверлея больше нет, ответы старого гостя не ждём.
// Счётчик токенов не сбрасывается.
func (s *RouteSession) Reset(places []domain.Place, userLocation *domain.Coordinate) {
	s.places = make(map[string]domain.Place, len(places))
	for _, p := range places {
		s.places[p.ID] = p
	}
	s.state = Idle()
	s.outstanding = make(map[string][]uint64)
	s.pendingClearAcks = 0
	s.selectedPlaceID = ""
	s.SetUserLocation(userLocation)
}

// SetUserLocation обновляет точку отправления будущих маршрутов
func (s *RouteSession) SetUserLocation(location *domain.Coordinate) {
	if location == nil {
		s.userLocation = nil
		return
	}
	loc := *location
	s.userLocation = &loc
	s.locationPrompt = false
}

func (s *RouteSession) State() State { return s.state }

func (s *RouteSession) UserLocation() *domain.Coordinate { return s.userLocation }

func (s *RouteSession) SelectedPlaceID() string { return s.selectedPlaceID }

func (s *RouteSession) LocationPrompt() bool { return s.locationPrompt }

func (s *RouteSession) Place(id string) (domain.Place, bool) {
	p, ok := s.places[id]
	return p, ok
}

// HighlightedPlaceID - маркер, подсвеченный активным маршрутом; не больше одного
func (s *RouteSession) HighlightedPlaceID() string {
	switch s.state.Kind {
	case StateCalculating, StateCalculated:
		return s.state.PlaceID
	}
	return ""
}

// RequestRoute запускает расчёт маршрута до места. Предыдущий маршрут вытесняется:
// сначала clearRoute, затем calculateRoute с новым токеном.
func (s *RouteSession) RequestRoute(ctx context.Context, placeID string) error {
	place, ok := s.places[placeID]
	if !ok {
		return apperrors.ErrPlaceNotFound
	}

	if s.userLocation == nil {
		s.locationPrompt = true
		return apperrors.ErrLocationRequired
	}

	if s.state.Kind == StateCalculating && s.state.PlaceID == placeID {
		return nil
	}

	if s.state.Kind != StateIdle {
		s.sendClear(ctx)
	}

	s.lastToken++
	token := s.lastToken
	s.enqueue(placeID, token)
	s.transition(Calculating(placeID, token))

	if err := s.commander.CalculateRoute(ctx, *s.userLocation, place.Coordinate(), placeID, token); err != nil {
		s.dequeue(placeID, token)
		s.transition(Failed(placeID, token))
		return apperrors.ErrMapUnavailable
	}

	return nil
}

// Clear - явная очистка или закрытие панели результата
func (s *RouteSession) Clear(ctx context.Context) {
	if s.state.Kind == StateIdle {
		return
	}
	s.transition(Idle())
	s.sendClear(ctx)
}

// Handle применяет событие гостя. Возвращает ошибку только для запроса маршрута
// из попапа, который не удалось начать; битые и чужие события ошибкой не являются.
func (s *RouteSession) Handle(ctx context.Context, event bridge.Event) error {
	switch e := event.(type) {
	case bridge.DetailsRequested:
		s.selectedPlaceID = e.PlaceID
	case bridge.RouteRequested:
		return s.RequestRoute(ctx, e.PlaceID)
	case bridge.RouteCalculated:
		token, ok := s.resolve(e.PlaceID, e.Token, e.HasToken)
		if !ok {
			s.logger.Debug("Discarding stale route result",
				zap.String("place_id", e.PlaceID),
				zap.Uint64("token", e.Token))
			return nil
		}
		s.transition(Calculated(domain.RouteResult{
			PlaceID:    e.PlaceID,
			DistanceKm: e.DistanceKm,
			ETAMinutes: e.ETAMinutes,
		}, token))
	case bridge.RouteFailed:
		token, ok := s.resolve(e.PlaceID, e.Token, e.HasToken)
		if !ok {
			s.logger.Debug("Discarding stale route failure",
				zap.String("place_id", e.PlaceID),
				zap.String("reason", e.Reason))
			return nil
		}
		s.transition(Failed(e.PlaceID, token))
	case bridge.RouteCleared:
		if s.pendingClearAcks > 0 {
			s.pendingClearAcks--
			return nil
		}
		s.transition(Idle())
	}
	return nil
}

// resolve сопоставляет результат с запросом. Токен гостя ищется в очереди места;
// без токена берётся самый старый запрос к этому месту.
// Принимается только результат текущего Calculating.
func (s *RouteSession) resolve(placeID string, token uint64, hasToken bool) (uint64, bool) {
	queue := s.outstanding[placeID]

	if hasToken {
		if !s.dequeue(placeID, token) {
			return 0, false
		}
	} else {
		if len(queue) == 0 {
			return 0, false
		}
		token = queue[0]
		s.dequeue(placeID, token)
	}

	current := s.state.Kind == StateCalculating && s.state.PlaceID == placeID && s.state.Token == token
	return token, current
}

func (s *RouteSession) enqueue(placeID string, token uint64) {
	queue := append(s.outstanding[placeID], token)
	if len(queue) > maxOutstandingPerPlace {
		queue = queue[len(queue)-maxOutstandingPerPlace:]
	}
	s.outstanding[placeID] = queue
}

func (s *RouteSession) dequeue(placeID string, token uint64) bool {
	queue := s.outstanding[placeID]
	for i, t := range queue {
		if t != token {
			continue
		}
		queue = append(queue[:i:i], queue[i+1:]...)
		if len(queue) == 0 {
			delete(s.outstanding, placeID)
		} else {
			s.outstanding[placeID] = queue
		}
		return true
	}
	return false
}

func (s *RouteSession) sendClear(ctx context.Context) {
	s.pendingClearAcks++
	if err := s.commander.ClearRoute(ctx); err != nil {
		// подтверждения не будет
		s.pendingClearAcks--
	}
}

func (s *RouteSession) transition(next State) {
	if !s.state.Kind.CanTransitionTo(next.Kind) {
		s.logger.Warn("Unexpected route state transition",
			zap.String("from", string(s.state.Kind)),
			zap.String("to", string(next.Kind)))
	}
	s.logger.Debug("Route state changed",
		zap.String("from", string(s.state.Kind)),
		zap.String("to", string(next.Kind)),
		zap.String("place_id", next.PlaceID),
		zap.Uint64("token", next.Token))
	s.state = next
}

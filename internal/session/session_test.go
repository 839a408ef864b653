package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	apperrors "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCommander struct {
	sent       []string
	calcErr    error
	clearErr   error
	lastOrigin domain.Coordinate
}

func (f *fakeCommander) CalculateRoute(_ context.Context, origin, _ domain.Coordinate, placeID string, token uint64) error {
	if f.calcErr != nil {
		return f.calcErr
	}
	f.lastOrigin = origin
	f.sent = append(f.sent, fmt.Sprintf("calculate:%s:%d", placeID, token))
	return nil
}

func (f *fakeCommander) ClearRoute(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.sent = append(f.sent, "clear")
	return nil
}

var (
	ctx  = context.Background()
	here = &domain.Coordinate{Lat: -17.3935, Lng: -66.1570}
)

func testPlaces() []domain.Place {
	return []domain.Place{
		{ID: "A", Name: "Café A", Lat: -17.38, Lng: -66.15},
		{ID: "B", Name: "Café B", Lat: -17.40, Lng: -66.16},
	}
}

func newTestSession(location *domain.Coordinate) (*RouteSession, *fakeCommander) {
	cmd := &fakeCommander{}
	return New(cmd, testPlaces(), location, zap.NewNop()), cmd
}

func calculated(id string, km, min float64, token uint64) bridge.Event {
	return bridge.RouteCalculated{PlaceID: id, DistanceKm: km, ETAMinutes: min, Token: token, HasToken: true}
}

func TestRequestRoute_StartsCalculation(t *testing.T) {
	s, cmd := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))

	assert.Equal(t, Calculating("A", 1), s.State())
	assert.Equal(t, []string{"calculate:A:1"}, cmd.sent)
	assert.Equal(t, *here, cmd.lastOrigin)
	assert.Equal(t, "A", s.HighlightedPlaceID())

	require.NoError(t, s.Handle(ctx, calculated("A", 2.5, 9, 1)))
	assert.Equal(t, StateCalculated, s.State().Kind)
	assert.Equal(t, domain.RouteResult{PlaceID: "A", DistanceKm: 2.5, ETAMinutes: 9}, *s.State().Result)
	assert.Equal(t, "A", s.HighlightedPlaceID())
}

func TestRequestRoute_WithoutLocation(t *testing.T) {
	s, cmd := newTestSession(nil)

	err := s.RequestRoute(ctx, "A")
	assert.ErrorIs(t, err, apperrors.ErrLocationRequired)
	assert.Equal(t, Idle(), s.State())
	assert.True(t, s.LocationPrompt())
	assert.Empty(t, cmd.sent)

	s.SetUserLocation(here)
	assert.False(t, s.LocationPrompt())
	require.NoError(t, s.RequestRoute(ctx, "A"))
	assert.Equal(t, StateCalculating, s.State().Kind)
}

func TestRequestRoute_UnknownPlace(t *testing.T) {
	s, cmd := newTestSession(here)

	assert.ErrorIs(t, s.RequestRoute(ctx, "Z"), apperrors.ErrPlaceNotFound)
	assert.Equal(t, Idle(), s.State())
	assert.Empty(t, cmd.sent)
}

func TestRequestRoute_SendFailureIsRouteError(t *testing.T) {
	s, cmd := newTestSession(here)
	cmd.calcErr = errors.New("redis down")

	assert.ErrorIs(t, s.RequestRoute(ctx, "A"), apperrors.ErrMapUnavailable)
	assert.Equal(t, StateError, s.State().Kind)
	assert.Equal(t, "A", s.State().PlaceID)
	assert.Empty(t, s.outstanding)
}

func TestLastRequestWins(t *testing.T) {
	s, cmd := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.RequestRoute(ctx, "B"))

	assert.Equal(t, []string{"calculate:A:1", "clear", "calculate:B:2"}, cmd.sent)
	assert.Equal(t, Calculating("B", 2), s.State())

	// подтверждение нашей очистки не сбрасывает новый расчёт
	require.NoError(t, s.Handle(ctx, bridge.RouteCleared{}))
	assert.Equal(t, Calculating("B", 2), s.State())

	require.NoError(t, s.Handle(ctx, calculated("B", 1.2, 4, 2)))
	assert.Equal(t, StateCalculated, s.State().Kind)
	assert.Equal(t, "B", s.State().PlaceID)

	// поздний результат A отбрасывается
	require.NoError(t, s.Handle(ctx, calculated("A", 9.9, 30, 1)))
	assert.Equal(t, "B", s.State().PlaceID)
	assert.Equal(t, 1.2, s.State().Result.DistanceKm)
	assert.Equal(t, "B", s.HighlightedPlaceID())
}

func TestLastRequestWins_ResultsInAnyOrder(t *testing.T) {
	s, _ := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.RequestRoute(ctx, "B"))

	require.NoError(t, s.Handle(ctx, calculated("A", 9.9, 30, 1)))
	assert.Equal(t, Calculating("B", 2), s.State())

	require.NoError(t, s.Handle(ctx, bridge.RouteFailed{PlaceID: "B", Token: 2, HasToken: true}))
	assert.Equal(t, Failed("B", 2), s.State())
	assert.Equal(t, "", s.HighlightedPlaceID())
}

func TestLegacyResults_LateAOnLegacyGuest(t *testing.T) {
	s, _ := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.RequestRoute(ctx, "B"))

	require.NoError(t, s.Handle(ctx, bridge.ParseEvent("ROUTE_CALCULATED:B:1.20:4")))
	require.NoError(t, s.Handle(ctx, bridge.ParseEvent("ROUTE_CALCULATED:A:9.90:30")))

	assert.Equal(t, StateCalculated, s.State().Kind)
	assert.Equal(t, "B", s.State().PlaceID)
}

func TestSamePlaceRequestedTwice(t *testing.T) {
	s, _ := newTestSession(here)

	// A(1) -> B(2) -> A(3): очередь A = [1, 3]
	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.RequestRoute(ctx, "B"))
	require.NoError(t, s.RequestRoute(ctx, "A"))
	assert.Equal(t, Calculating("A", 3), s.State())

	// ответ на первый запрос A без токена занимает старейший токен и отбрасывается
	require.NoError(t, s.Handle(ctx, bridge.ParseEvent("ROUTE_CALCULATED:A:5.00:20")))
	assert.Equal(t, Calculating("A", 3), s.State())

	require.NoError(t, s.Handle(ctx, bridge.ParseEvent("ROUTE_CALCULATED:A:5.10:21")))
	assert.Equal(t, StateCalculated, s.State().Kind)
	assert.Equal(t, 5.1, s.State().Result.DistanceKm)
}

func TestSamePlaceRequestedTwice_WithTokens(t *testing.T) {
	s, _ := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.RequestRoute(ctx, "B"))
	require.NoError(t, s.RequestRoute(ctx, "A"))

	require.NoError(t, s.Handle(ctx, calculated("A", 5.1, 21, 3)))
	assert.Equal(t, StateCalculated, s.State().Kind)

	// устаревший токен не перезаписывает результат
	require.NoError(t, s.Handle(ctx, calculated("A", 5.0, 20, 1)))
	assert.Equal(t, 5.1, s.State().Result.DistanceKm)

	// неизвестный токен тоже
	require.NoError(t, s.Handle(ctx, calculated("A", 1, 1, 99)))
	assert.Equal(t, 5.1, s.State().Result.DistanceKm)
}

func TestRequestRoute_SamePlaceWhileCalculatingIsNoop(t *testing.T) {
	s, cmd := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.RequestRoute(ctx, "A"))

	assert.Equal(t, []string{"calculate:A:1"}, cmd.sent)
	assert.Equal(t, Calculating("A", 1), s.State())
}

func TestRequestRoute_RetryAfterError(t *testing.T) {
	s, cmd := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.Handle(ctx, bridge.ParseEvent("ROUTE_ERROR:A:1")))
	assert.Equal(t, Failed("A", 1), s.State())

	require.NoError(t, s.RequestRoute(ctx, "A"))
	assert.Equal(t, Calculating("A", 2), s.State())
	assert.Equal(t, []string{"calculate:A:1", "clear", "calculate:A:2"}, cmd.sent)
}

func TestMalformedResultBecomesError(t *testing.T) {
	s, _ := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.Handle(ctx, bridge.ParseEvent("ROUTE_CALCULATED:A:NaN:12")))

	assert.Equal(t, StateError, s.State().Kind)
	assert.Equal(t, "A", s.State().PlaceID)
}

func TestUnknownEventChangesNothing(t *testing.T) {
	for _, prepare := range []func(*RouteSession){
		func(*RouteSession) {},
		func(s *RouteSession) { _ = s.RequestRoute(ctx, "A") },
		func(s *RouteSession) {
			_ = s.RequestRoute(ctx, "A")
			_ = s.Handle(ctx, calculated("A", 1, 2, 1))
		},
	} {
		s, cmd := newTestSession(here)
		prepare(s)
		before := s.State()
		sent := len(cmd.sent)

		for _, raw := range []string{"HELLO", "ROUTE_CALCULATED", "DETAILS_a:b", "", "42"} {
			assert.NoError(t, s.Handle(ctx, bridge.ParseEvent(raw)))
		}

		assert.Equal(t, before, s.State())
		assert.Len(t, cmd.sent, sent)
	}
}

func TestClearThenClearedResetsToIdle(t *testing.T) {
	for name, prepare := range map[string]func(*RouteSession){
		"idle":        func(*RouteSession) {},
		"calculating": func(s *RouteSession) { _ = s.RequestRoute(ctx, "A") },
		"calculated": func(s *RouteSession) {
			_ = s.RequestRoute(ctx, "A")
			_ = s.Handle(ctx, calculated("A", 1, 2, 1))
		},
		"error": func(s *RouteSession) {
			_ = s.RequestRoute(ctx, "A")
			_ = s.Handle(ctx, bridge.RouteFailed{PlaceID: "A"})
		},
	} {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestSession(here)
			prepare(s)

			s.Clear(ctx)
			require.NoError(t, s.Handle(ctx, bridge.RouteCleared{}))

			assert.Equal(t, Idle(), s.State())
			assert.Equal(t, "", s.HighlightedPlaceID())
		})
	}
}

func TestClear_DiscardsLateResult(t *testing.T) {
	s, cmd := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	s.Clear(ctx)
	assert.Equal(t, []string{"calculate:A:1", "clear"}, cmd.sent)

	require.NoError(t, s.Handle(ctx, calculated("A", 1, 2, 1)))
	assert.Equal(t, Idle(), s.State())
}

func TestUnsolicitedClearedResetsToIdle(t *testing.T) {
	s, _ := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.Handle(ctx, calculated("A", 1, 2, 1)))

	require.NoError(t, s.Handle(ctx, bridge.RouteCleared{}))
	assert.Equal(t, Idle(), s.State())
}

func TestClearSendFailureDoesNotSwallowNextCleared(t *testing.T) {
	s, cmd := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	cmd.clearErr = errors.New("redis down")
	s.Clear(ctx)
	assert.Equal(t, 0, s.pendingClearAcks)

	cmd.clearErr = nil
	require.NoError(t, s.RequestRoute(ctx, "B"))
	require.NoError(t, s.Handle(ctx, bridge.RouteCleared{}))
	assert.Equal(t, Idle(), s.State())
}

func TestRouteRequestedFromPopup(t *testing.T) {
	s, cmd := newTestSession(here)

	require.NoError(t, s.Handle(ctx, bridge.ParseEvent("ROUTE_B")))
	assert.Equal(t, Calculating("B", 1), s.State())
	assert.Equal(t, []string{"calculate:B:1"}, cmd.sent)
}

func TestDetailsRequestedSelectsPlace(t *testing.T) {
	s, cmd := newTestSession(here)

	require.NoError(t, s.Handle(ctx, bridge.ParseEvent("DETAILS_A")))
	assert.Equal(t, "A", s.SelectedPlaceID())
	assert.Equal(t, Idle(), s.State())
	assert.Empty(t, cmd.sent)
}

func TestReset_ForgetsOutstandingRequests(t *testing.T) {
	s, _ := newTestSession(here)

	require.NoError(t, s.RequestRoute(ctx, "A"))
	require.NoError(t, s.RequestRoute(ctx, "B"))

	s.Reset(testPlaces(), here)
	assert.Equal(t, Idle(), s.State())

	require.NoError(t, s.Handle(ctx, calculated("B", 1, 1, 2)))
	assert.Equal(t, Idle(), s.State())

	// токены продолжают расти после пересоздания
	require.NoError(t, s.RequestRoute(ctx, "A"))
	assert.Equal(t, Calculating("A", 3), s.State())
}

func TestOutstandingQueueIsBounded(t *testing.T) {
	s, _ := newTestSession(here)

	for i := 0; i < maxOutstandingPerPlace+5; i++ {
		require.NoError(t, s.RequestRoute(ctx, "A"))
		require.NoError(t, s.RequestRoute(ctx, "B"))
	}

	assert.Len(t, s.outstanding["A"], maxOutstandingPerPlace)
	assert.Len(t, s.outstanding["B"], maxOutstandingPerPlace)
}

package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/config"
	httpDelivery "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/delivery/http"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/delivery/http/handler"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	apperrors "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/pkg/errors"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/usecase"
)

type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) List(ctx context.Context) ([]domain.Place, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Place), args.Error(1)
}

func (m *MockPlaceRepository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Place), args.Error(1)
}

type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	return m.Called(ctx, stream, group, messageID).Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	return m.Called(ctx, stream, group).Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}, maxLen int64) error {
	return m.Called(ctx, stream, data, maxLen).Error(0)
}

func (m *MockStreamRepository) ReadAfter(ctx context.Context, stream, afterID string, count int64) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, afterID, count)
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) DeleteStream(ctx context.Context, stream string) error {
	return m.Called(ctx, stream).Error(0)
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testServer struct {
	server  *httpDelivery.Server
	places  *MockPlaceRepository
	streams *MockStreamRepository
}

func newTestServer(t *testing.T, checks map[string]handler.HealthChecker) *testServer {
	t.Helper()

	places := &MockPlaceRepository{}
	streams := &MockStreamRepository{}
	logger := zap.NewNop()

	approved := []domain.Place{
		{
			ID: "1", Name: "Café Uno", Lat: -17.3895, Lng: -66.1568, Status: domain.PlaceStatusApproved,
			Schedules: domain.Schedule{{DayOfWeek: domain.Monday, OpenTime: domain.NewTimeOfDay(10, 0), CloseTime: domain.NewTimeOfDay(14, 30)}},
		},
		{ID: "2", Name: "Tostaduría Dos", Lat: -17.3712, Lng: -66.1621, Status: domain.PlaceStatusApproved},
		{ID: "3", Name: "Pendiente", Lat: -17.40, Lng: -66.15, Status: "pending"},
	}
	places.On("List", mock.Anything).Return(approved, nil)
	places.On("GetByID", mock.Anything, "1").Return(&approved[0], nil)
	places.On("GetByID", mock.Anything, "3").Return(&approved[2], nil)
	streams.On("PublishToStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	laPaz, err := time.LoadLocation("America/La_Paz")
	require.NoError(t, err)

	sinks := func(guestKind, sessionID string) bridge.CommandSink {
		return bridge.CommandSinkFunc(func(ctx context.Context, generation uint64, cmd bridge.Command) error {
			return streams.PublishToStream(ctx, domain.OutboxStream(sessionID), cmd, 200)
		})
	}

	sessionUC := usecase.NewMapSessionUseCase(places, streams, sinks, usecase.MapSessionOptions{
		Location:                laPaz,
		DefaultZoom:             13,
		FocusZoom:               16,
		RelocateThresholdMeters: 50,
		SessionTTL:              time.Hour,
	}, logger)
	placeUC := usecase.NewPlaceUseCase(places, laPaz, logger)

	cfg := &config.Config{Server: config.ServerConfig{AllowedOrigins: "*"}}
	server := httpDelivery.NewServer(
		cfg,
		logger,
		handler.NewMapSessionHandler(sessionUC, logger),
		handler.NewPlaceHandler(placeUC, logger),
		handler.NewHealthHandler(checks, sessionUC.SessionCount, logger),
	)

	return &testServer{server: server, places: places, streams: streams}
}

func (s *testServer) do(t *testing.T, method, path, contentType, body string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.server.App().Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func (s *testServer) createSession(t *testing.T, body string) string {
	t.Helper()

	resp, env := s.do(t, "POST", "/api/v1/map/sessions", "application/json", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.SessionID)
	return created.SessionID
}

type viewBody struct {
	Generation uint64 `json:"generation"`
	Map        struct {
		Status string `json:"status"`
	} `json:"map"`
	Route struct {
		State        string `json:"state"`
		DistanceText string `json:"distance_text"`
		ETAText      string `json:"eta_text"`
	} `json:"route"`
	LocationPrompt bool `json:"location_prompt"`
}

func decodeView(t *testing.T, env envelope) viewBody {
	t.Helper()
	var v viewBody
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestServer_MapSessionFlow(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createSession(t, `{"location":{"lat":-17.3935,"lng":-66.1570}}`)
	base := "/api/v1/map/sessions/" + id

	resp, _ := s.do(t, "GET", base+"/guest", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, _ = s.do(t, "POST", base+"/messages?generation=1", "text/plain", "MAP_LOADED")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, env := s.do(t, "POST", base+"/messages?generation=9", "text/plain", "MAP_LOADED")
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Equal(t, apperrors.ErrStaleGeneration.Code, env.Error.Code)

	resp, env = s.do(t, "POST", base+"/route", "application/json", `{"place_id":"1"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "calculating", decodeView(t, env).Route.State)

	resp, _ = s.do(t, "POST", base+"/messages?generation=1", "text/plain", "ROUTE_CALCULATED:1:2.5:10:1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, env = s.do(t, "GET", base, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeView(t, env)
	assert.Equal(t, "ready", view.Map.Status)
	assert.Equal(t, "calculated", view.Route.State)
	assert.Equal(t, "2.5 km", view.Route.DistanceText)
	assert.Equal(t, "10 min", view.Route.ETAText)

	resp, env = s.do(t, "DELETE", base+"/route", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle", decodeView(t, env).Route.State)

	s.streams.On("DeleteStream", mock.Anything, domain.OutboxStream(id)).Return(nil).Once()
	resp, _ = s.do(t, "DELETE", base, "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(t, "GET", base, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_RouteErrors(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createSession(t, "")
	base := "/api/v1/map/sessions/" + id

	resp, env := s.do(t, "POST", base+"/route", "application/json", `{"place_id":"1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperrors.ErrLocationRequired.Code, env.Error.Code)

	resp, _ = s.do(t, "POST", base+"/route", "application/json", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, "PUT", base+"/location", "application/json", `{"lat":200,"lng":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = s.do(t, "PUT", base+"/location", "application/json", `{"lat":-17.3935,"lng":-66.1570}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeView(t, env)
	assert.Equal(t, uint64(2), view.Generation)
	assert.False(t, view.LocationPrompt)

	resp, _ = s.do(t, "POST", base+"/load-failure?generation=2", "application/json", `{"reason":"offline"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, "POST", base+"/route", "application/json", `{"place_id":"1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, env = s.do(t, "POST", base+"/retry", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "loading", decodeView(t, env).Map.Status)

	resp, _ = s.do(t, "POST", "/api/v1/map/sessions/missing/route", "application/json", `{"place_id":"1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Commands(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createSession(t, "")

	raw, err := json.Marshal(bridge.ClearRoute())
	require.NoError(t, err)
	data, err := json.Marshal(domain.CommandEnvelope{SessionID: id, Generation: 1, Command: raw})
	require.NoError(t, err)

	s.streams.On("ReadAfter", mock.Anything, domain.OutboxStream(id), "0", int64(100)).
		Return([]domain.StreamMessage{{ID: "10-0", Data: string(data)}}, nil)

	resp, env := s.do(t, "GET", "/api/v1/map/sessions/"+id+"/commands", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Commands []struct {
			ID      string          `json:"id"`
			Command json.RawMessage `json:"command"`
		} `json:"commands"`
		Cursor string `json:"cursor"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Commands, 1)
	assert.Equal(t, "10-0", body.Cursor)
	assert.JSONEq(t, `{"type":"clearRoute"}`, string(body.Commands[0].Command))
}

func TestServer_CenterAndRefresh(t *testing.T) {
	s := newTestServer(t, nil)
	base := "/api/v1/map/sessions/" + s.createSession(t, "")

	resp, _ := s.do(t, "POST", base+"/center", "application/json", `{"place_id":"2"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(t, "POST", base+"/center", "application/json", `{"place_id":"404"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env := s.do(t, "POST", base+"/refresh", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var refreshed struct {
		Recreated bool `json:"recreated"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))
	assert.False(t, refreshed.Recreated)

	resp, env = s.do(t, "GET", base+"/payload", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload bridge.Payload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Len(t, payload.Places, 2)
}

func TestServer_Places(t *testing.T) {
	s := newTestServer(t, nil)

	resp, env := s.do(t, "GET", "/api/v1/places?at=2025-06-02T11:00:00-04:00", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Places []struct {
			ID         string `json:"id"`
			IsOpen     bool   `json:"is_open"`
			StatusText string `json:"status_text"`
		} `json:"places"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Total)
	assert.True(t, list.Places[0].IsOpen)
	assert.Equal(t, "open until 14:30", list.Places[0].StatusText)

	resp, _ = s.do(t, "GET", "/api/v1/places?at=yesterday", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = s.do(t, "GET", "/api/v1/places/1/availability?at=2025-06-02T14:20:00-04:00", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"status_text":"closes in 10 min"`)

	resp, _ = s.do(t, "GET", "/api/v1/places/3/availability", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, map[string]handler.HealthChecker{
		"redis":    healthFunc(func(ctx context.Context) error { return nil }),
		"postgres": healthFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})

	resp, _ := s.do(t, "GET", "/api/v1/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	healthy := newTestServer(t, nil)
	resp, _ = healthy.do(t, "GET", "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)
	resp, env := s.do(t, "GET", "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

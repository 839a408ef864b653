package mapbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/config"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *client {
	return NewDirectionsClient(&config.MapboxConfig{
		AccessToken:    "test_token",
		BaseURL:        baseURL,
		Profile:        "mapbox/walking",
		RequestTimeout: 5,
	}, zap.NewNop()).(*client)
}

var (
	plaza = domain.Coordinate{Lat: -17.3935, Lng: -66.1570}
	cafe  = domain.Coordinate{Lat: -17.3800, Lng: -66.1600}
)

func TestClient_Route(t *testing.T) {
	t.Run("successful request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/directions/v5/mapbox/walking/-66.157000,-17.393500;-66.160000,-17.380000", r.URL.Path)
			assert.Equal(t, "test_token", r.URL.Query().Get("access_token"))
			assert.Equal(t, "false", r.URL.Query().Get("overview"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":1530.4,"duration":1260},{"distance":9,"duration":9}]}`))
		}))
		defer server.Close()

		estimate, err := newTestClient(server.URL).Route(context.Background(), plaza, cafe)
		require.NoError(t, err)
		assert.Equal(t, 1530.4, estimate.DistanceMeters)
		assert.InDelta(t, 1.5304, estimate.DistanceKm(), 1e-9)
		assert.Equal(t, 21.0, estimate.ETAMinutes())
	})

	t.Run("no route", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":"NoRoute","message":"No route found","routes":[]}`))
		}))
		defer server.Close()

		estimate, err := newTestClient(server.URL).Route(context.Background(), plaza, cafe)
		assert.Nil(t, estimate)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NoRoute")
	})

	t.Run("empty routes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":"Ok","routes":[]}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Route(context.Background(), plaza, cafe)
		assert.Error(t, err)
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Route(context.Background(), plaza, cafe)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":1,"duration":1}]}`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestClient(server.URL).Route(ctx, plaza, cafe)
		assert.Error(t, err)
	})
}

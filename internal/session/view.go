package session

import (
	"fmt"
	"math"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
)

// GuestState - то, что проекции нужно знать о госте; реализуется *bridge.Bridge
type GuestState interface {
	Generation() uint64
	Status() bridge.GuestStatus
	LastError() string
}

type MapView struct {
	Status bridge.GuestStatus `json:"status"`
	Retry  bool               `json:"retry"`
	Error  string             `json:"error,omitempty"`
}

type RouteView struct {
	State        StateKind `json:"state"`
	PlaceID      string    `json:"place_id,omitempty"`
	PlaceName    string    `json:"place_name,omitempty"`
	DistanceText string    `json:"distance_text,omitempty"`
	ETAText      string    `json:"eta_text,omitempty"`
	Calculating  bool      `json:"calculating"`
}

// View - всё, что экран хоста рисует по состоянию: панель маршрута,
// подсветка маркера, баннер ошибки, запрос геолокации
type View struct {
	SessionID          string    `json:"session_id"`
	Generation         uint64    `json:"generation"`
	Map                MapView   `json:"map"`
	Route              RouteView `json:"route"`
	HighlightedPlaceID string    `json:"highlighted_place_id,omitempty"`
	ErrorBanner        string    `json:"error_banner,omitempty"`
	LocationPrompt     bool      `json:"location_prompt"`
	SelectedPlaceID    string    `json:"selected_place_id,omitempty"`
}

// Project строит представление из состояния сессии и гостя
func Project(sessionID string, guest GuestState, s *RouteSession) View {
	state := s.State()

	view := View{
		SessionID:  sessionID,
		Generation: guest.Generation(),
		Map: MapView{
			Status: guest.Status(),
			Retry:  guest.Status() == bridge.GuestUnavailable,
			Error:  guest.LastError(),
		},
		Route: RouteView{
			State:       state.Kind,
			PlaceID:     state.PlaceID,
			Calculating: state.Kind == StateCalculating,
		},
		HighlightedPlaceID: s.HighlightedPlaceID(),
		LocationPrompt:     s.LocationPrompt(),
		SelectedPlaceID:    s.SelectedPlaceID(),
	}

	name := state.PlaceID
	if place, ok := s.Place(state.PlaceID); ok {
		name = place.Name
	}
	if state.PlaceID != "" {
		view.Route.PlaceName = name
	}

	switch state.Kind {
	case StateCalculated:
		view.Route.DistanceText = FormatDistance(state.Result.DistanceKm)
		view.Route.ETAText = FormatETA(state.Result.ETAMinutes)
	case StateError:
		view.ErrorBanner = fmt.Sprintf("Could not calculate a route to %s", name)
	}

	return view
}

// FormatDistance: "850 m" до километра, дальше "3.2 km"
func FormatDistance(km float64) string {
	if meters := math.Round(km * 1000); meters < 1000 {
		return fmt.Sprintf("%d m", int(meters))
	}
	return fmt.Sprintf("%.1f km", km)
}

// FormatETA: "12 min" или "1 h 5 min"; минуты округляются вверх
func FormatETA(minutes float64) string {
	total := int(math.Ceil(minutes))
	if total < 60 {
		return fmt.Sprintf("%d min", total)
	}
	return fmt.Sprintf("%d h %d min", total/60, total%60)
}

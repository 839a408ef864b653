package bridge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
)

const shortDescriptionRunes = 120

// MarkerPlace - проекция места для маркера гостя
type MarkerPlace struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	RouteName   string  `json:"route_name"`
	IsOpen      bool    `json:"is_open"`
	StatusText  string  `json:"status_text"`
}

// Payload - всё, что гость получает при создании; инкрементальных обновлений нет
type Payload struct {
	SessionID    string             `json:"session_id"`
	Generation   uint64             `json:"generation"`
	Places       []MarkerPlace      `json:"places"`
	UserLocation *domain.Coordinate `json:"user_location,omitempty"`
	Center       domain.Coordinate  `json:"center"`
	Zoom         int                `json:"zoom"`
	FocusZoom    int                `json:"focus_zoom"`
	EventsURL    string             `json:"events_url,omitempty"`
	CommandsURL  string             `json:"commands_url,omitempty"`
	TileURL      string             `json:"tile_url"`
	RoutingURL   string             `json:"routing_url"`
}

// PayloadOptions - параметры карты, не зависящие от мест
type PayloadOptions struct {
	SessionID     string
	DefaultCenter domain.Coordinate
	DefaultZoom   int
	FocusZoom     int
	EventsURL     string
	CommandsURL   string
	TileURL       string
	RoutingURL    string
}

// BuildPayload собирает начальный payload гостя. Доступность считается на момент now.
func BuildPayload(places []domain.Place, userLocation *domain.Coordinate, now time.Time, opts PayloadOptions) Payload {
	markers := make([]MarkerPlace, 0, len(places))
	for _, p := range places {
		status := domain.Evaluate(p.Schedules, now)
		markers = append(markers, MarkerPlace{
			ID:          p.ID,
			Name:        p.Name,
			Lat:         p.Lat,
			Lng:         p.Lng,
			Description: shorten(p.Description, shortDescriptionRunes),
			Category:    p.Category,
			RouteName:   p.RouteName,
			IsOpen:      status.IsOpen,
			StatusText:  status.StatusText,
		})
	}

	center := opts.DefaultCenter
	switch {
	case userLocation != nil:
		center = *userLocation
	case len(markers) > 0:
		center = domain.Coordinate{Lat: markers[0].Lat, Lng: markers[0].Lng}
	}

	var location *domain.Coordinate
	if userLocation != nil {
		loc := *userLocation
		location = &loc
	}

	return Payload{
		SessionID:    opts.SessionID,
		Places:       markers,
		UserLocation: location,
		Center:       center,
		Zoom:         opts.DefaultZoom,
		FocusZoom:    opts.FocusZoom,
		EventsURL:    opts.EventsURL,
		CommandsURL:  opts.CommandsURL,
		TileURL:      opts.TileURL,
		RoutingURL:   opts.RoutingURL,
	}
}

// Fingerprint - отпечаток набора мест; меняется только при значимых для карты изменениях.
// Статус доступности сюда не входит: он пересчитывается при каждой отрисовке.
func Fingerprint(places []domain.Place) string {
	type fingerprintPlace struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Lat         float64         `json:"lat"`
		Lng         float64         `json:"lng"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		RouteName   string          `json:"route_name"`
		Schedules   domain.Schedule `json:"schedules"`
	}

	projected := make([]fingerprintPlace, 0, len(places))
	for _, p := range places {
		projected = append(projected, fingerprintPlace{
			ID:          p.ID,
			Name:        p.Name,
			Lat:         p.Lat,
			Lng:         p.Lng,
			Description: shorten(p.Description, shortDescriptionRunes),
			Category:    p.Category,
			RouteName:   p.RouteName,
			Schedules:   p.Schedules,
		})
	}

	data, _ := json.Marshal(projected)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func shorten(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

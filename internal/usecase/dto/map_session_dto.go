package dto

import (
	"encoding/json"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/session"
)

// Типы гостя карты
const (
	GuestKindBrowser  = "browser"
	GuestKindHeadless = "headless"
)

// LocationRequest - координаты пользователя
type LocationRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// CreateSessionRequest - запрос на создание сессии карты
type CreateSessionRequest struct {
	GuestKind string           `json:"guest_kind" validate:"omitempty,oneof=browser headless"`
	RouteID   string           `json:"route_id,omitempty"`
	Category  string           `json:"category,omitempty"`
	Location  *LocationRequest `json:"location,omitempty"`
}

// SessionResponse - созданная сессия и адреса её гостя
type SessionResponse struct {
	SessionID   string       `json:"session_id"`
	GuestKind   string       `json:"guest_kind"`
	GuestURL    string       `json:"guest_url,omitempty"`
	CommandsURL string       `json:"commands_url,omitempty"`
	EventsURL   string       `json:"events_url,omitempty"`
	Places      int          `json:"places"`
	View        session.View `json:"view"`
}

// RouteRequest - запрос маршрута до места
type RouteRequest struct {
	PlaceID string `json:"place_id" validate:"required"`
}

// CenterRequest - центрирование карты на месте или на точке
type CenterRequest struct {
	PlaceID string   `json:"place_id,omitempty"`
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng     *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
	Zoom    int      `json:"zoom,omitempty" validate:"omitempty,min=1,max=20"`
}

// LoadFailureRequest - отчёт страницы о сбое загрузки гостя
type LoadFailureRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// RefreshResponse - результат перечитывания мест
type RefreshResponse struct {
	Recreated bool         `json:"recreated"`
	View      session.View `json:"view"`
}

// CommandItem - команда из outbox текущего поколения
type CommandItem struct {
	ID         string          `json:"id"`
	Generation uint64          `json:"generation"`
	Command    json.RawMessage `json:"command"`
}

// CommandsResponse - порция команд; Cursor передаётся в следующий запрос как after
type CommandsResponse struct {
	Commands []CommandItem `json:"commands"`
	Cursor   string        `json:"cursor"`
}

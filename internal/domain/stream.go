package domain

import (
	"encoding/json"
	"fmt"
)

// Stream names
const (
	// общий стрим команд для headless-гостей (cmd/worker)
	StreamMapHeadlessCommands = "stream:map:headless"
	// сообщения гостей -> хост (API)
	StreamMapGuestEvents = "stream:map:events"

	streamMapOutboxPrefix = "stream:map:commands:"
)

// OutboxStream - персональный стрим команд браузерного гостя сессии
func OutboxStream(sessionID string) string {
	return fmt.Sprintf("%s%s", streamMapOutboxPrefix, sessionID)
}

// CommandEnvelope - команда хоста с адресом сессии и поколением гостя
type CommandEnvelope struct {
	SessionID  string          `json:"session_id"`
	Generation uint64          `json:"generation"`
	Command    json.RawMessage `json:"command"`
}

// GuestMessageEnvelope - сырое сообщение гостя, как оно пришло по каналу
type GuestMessageEnvelope struct {
	SessionID  string `json:"session_id"`
	Generation uint64 `json:"generation"`
	Message    string `json:"message"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}

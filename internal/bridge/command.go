package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
)

// CommandType - команды хост -> гость, без подтверждений
type CommandType string

const (
	CommandCenterOn       CommandType = "centerOn"
	CommandCalculateRoute CommandType = "calculateRoute"
	CommandClearRoute     CommandType = "clearRoute"
)

// Command - императивная команда гостю
type Command struct {
	Type        CommandType        `json:"type"`
	Center      *domain.Coordinate `json:"center,omitempty"`
	Zoom        int                `json:"zoom,omitempty"`
	Origin      *domain.Coordinate `json:"origin,omitempty"`
	Destination *domain.Coordinate `json:"destination,omitempty"`
	PlaceID     string             `json:"place_id,omitempty"`
	Token       uint64             `json:"token,omitempty"`
}

func CenterOn(lat, lng float64, zoom int) Command {
	return Command{
		Type:   CommandCenterOn,
		Center: &domain.Coordinate{Lat: lat, Lng: lng},
		Zoom:   zoom,
	}
}

func CalculateRoute(origin, destination domain.Coordinate, placeID string, token uint64) Command {
	return Command{
		Type:        CommandCalculateRoute,
		Origin:      &origin,
		Destination: &destination,
		PlaceID:     placeID,
		Token:       token,
	}
}

func ClearRoute() Command {
	return Command{Type: CommandClearRoute}
}

// Validate проверяет, что у команды есть все поля её типа
func (c Command) Validate() error {
	switch c.Type {
	case CommandCenterOn:
		if c.Center == nil {
			return fmt.Errorf("centerOn: missing center")
		}
	case CommandCalculateRoute:
		if c.Origin == nil || c.Destination == nil || c.PlaceID == "" {
			return fmt.Errorf("calculateRoute: missing origin, destination or place_id")
		}
	case CommandClearRoute:
	default:
		return fmt.Errorf("unknown command type %q", c.Type)
	}
	return nil
}

// DecodeCommand разбирает и проверяет команду из канала
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// CommandSink - транспорт команд к конкретному гостю. Доставка не гарантируется.
type CommandSink interface {
	Send(ctx context.Context, generation uint64, cmd Command) error
}

// CommandSinkFunc адаптирует функцию к CommandSink
type CommandSinkFunc func(ctx context.Context, generation uint64, cmd Command) error

func (f CommandSinkFunc) Send(ctx context.Context, generation uint64, cmd Command) error {
	return f(ctx, generation, cmd)
}

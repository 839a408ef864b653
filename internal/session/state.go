package session

import "github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"

// StateKind - состояние маршрута сессии
type StateKind string

const (
	StateIdle        StateKind = "idle"
	StateCalculating StateKind = "calculating"
	StateCalculated  StateKind = "calculated"
	StateError       StateKind = "error"
)

// validTransitions - допустимые переходы. Calculating -> Calculating и
// Calculated/Error -> Calculating означают замену маршрута новым запросом.
var validTransitions = map[StateKind][]StateKind{
	StateIdle:        {StateIdle, StateCalculating},
	StateCalculating: {StateCalculating, StateCalculated, StateError, StateIdle},
	StateCalculated:  {StateCalculating, StateIdle},
	StateError:       {StateCalculating, StateIdle},
}

// CanTransitionTo проверяет, разрешён ли переход
func (k StateKind) CanTransitionTo(next StateKind) bool {
	for _, allowed := range validTransitions[k] {
		if allowed == next {
			return true
		}
	}
	return false
}

// State - авторитетное состояние маршрута на стороне хоста.
// PlaceID пуст только в Idle; Result есть только в Calculated.
type State struct {
	Kind    StateKind           `json:"kind"`
	PlaceID string              `json:"place_id,omitempty"`
	Result  *domain.RouteResult `json:"result,omitempty"`
	Token   uint64              `json:"-"`
}

func Idle() State { return State{Kind: StateIdle} }

func Calculating(placeID string, token uint64) State {
	return State{Kind: StateCalculating, PlaceID: placeID, Token: token}
}

func Calculated(result domain.RouteResult, token uint64) State {
	return State{Kind: StateCalculated, PlaceID: result.PlaceID, Result: &result, Token: token}
}

func Failed(placeID string, token uint64) State {
	return State{Kind: StateError, PlaceID: placeID, Token: token}
}

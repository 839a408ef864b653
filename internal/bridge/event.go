package bridge

import (
	"math"
	"strconv"
	"strings"
)

// Префиксы протокола гость -> хост
const (
	wireMapLoaded       = "MAP_LOADED"
	wireMapError        = "MAP_ERROR"
	wireRouteCleared    = "ROUTE_CLEARED"
	wireRouteCalculated = "ROUTE_CALCULATED:"
	wireRouteError      = "ROUTE_ERROR:"
	wireRoutePrefix     = "ROUTE_"
	wireDetailsPrefix   = "DETAILS_"

	fieldSeparator = ":"
)

// Пределы правдоподобного маршрута: длина экватора и неделя в пути
const (
	maxRouteDistanceKm = 40075.0
	maxRouteETAMinutes = 7 * 24 * 60.0
)

// хвосты ROUTE_*, которые не могут быть id места: это усечённые служебные сообщения
var reservedRouteWords = map[string]bool{
	"CALCULATED": true,
	"ERROR":      true,
	"CLEARED":    true,
}

// Event - закрытое объединение событий гостя. Реализации есть только в этом пакете.
type Event interface {
	// Wire - представление события в строковом протоколе
	Wire() string
	isEvent()
}

// MapLoaded - поверхность карты интерактивна
type MapLoaded struct{}

// MapError - поверхность карты не смогла инициализироваться
type MapError struct {
	Message string
}

// DetailsRequested - пользователь выбрал маркер или "подробнее" в попапе
type DetailsRequested struct {
	PlaceID string
}

// RouteRequested - пользователь запросил маршрут из попапа
type RouteRequested struct {
	PlaceID string
}

// RouteCalculated - маршрутизация успешна
type RouteCalculated struct {
	PlaceID    string
	DistanceKm float64
	ETAMinutes float64
	Token      uint64
	HasToken   bool
}

// RouteFailed - маршрутизация не удалась либо числовые поля результата битые
type RouteFailed struct {
	PlaceID  string
	Token    uint64
	HasToken bool
	Reason   string
}

// RouteCleared - слой маршрута убран
type RouteCleared struct{}

// Unknown - нераспознанное сообщение; всегда no-op
type Unknown struct {
	Raw string
}

func (MapLoaded) isEvent()        {}
func (MapError) isEvent()         {}
func (DetailsRequested) isEvent() {}
func (RouteRequested) isEvent()   {}
func (RouteCalculated) isEvent()  {}
func (RouteFailed) isEvent()      {}
func (RouteCleared) isEvent()     {}
func (Unknown) isEvent()          {}

func (MapLoaded) Wire() string { return wireMapLoaded }

func (e MapError) Wire() string {
	if e.Message == "" {
		return wireMapError
	}
	return wireMapError + fieldSeparator + e.Message
}

func (e DetailsRequested) Wire() string { return wireDetailsPrefix + e.PlaceID }

func (e RouteRequested) Wire() string { return wireRoutePrefix + e.PlaceID }

func (e RouteCalculated) Wire() string {
	fields := []string{
		e.PlaceID,
		strconv.FormatFloat(e.DistanceKm, 'f', 2, 64),
		strconv.FormatFloat(e.ETAMinutes, 'f', -1, 64),
	}
	if e.HasToken {
		fields = append(fields, strconv.FormatUint(e.Token, 10))
	}
	return wireRouteCalculated + strings.Join(fields, fieldSeparator)
}

func (e RouteFailed) Wire() string {
	if e.HasToken {
		return wireRouteError + e.PlaceID + fieldSeparator + strconv.FormatUint(e.Token, 10)
	}
	return wireRouteError + e.PlaceID
}

func (RouteCleared) Wire() string { return wireRouteCleared }

func (e Unknown) Wire() string { return e.Raw }

// ParseEvent разбирает сырое сообщение гостя. Никогда не возвращает ошибку:
// гость - недоверенный компонент со своей версией, поэтому всё нераспознанное
// становится Unknown, а битые числа в результате маршрута - RouteFailed.
func ParseEvent(raw string) Event {
	msg := strings.TrimSpace(raw)

	switch {
	case msg == wireMapLoaded:
		return MapLoaded{}
	case msg == wireMapError:
		return MapError{}
	case strings.HasPrefix(msg, wireMapError+fieldSeparator):
		return MapError{Message: strings.TrimPrefix(msg, wireMapError+fieldSeparator)}
	case msg == wireRouteCleared:
		return RouteCleared{}
	case strings.HasPrefix(msg, wireRouteCalculated):
		return parseRouteCalculated(msg, strings.TrimPrefix(msg, wireRouteCalculated))
	case strings.HasPrefix(msg, wireRouteError):
		return parseRouteError(msg, strings.TrimPrefix(msg, wireRouteError))
	case strings.HasPrefix(msg, wireRoutePrefix):
		if id, ok := singlePlaceID(strings.TrimPrefix(msg, wireRoutePrefix)); ok && !reservedRouteWords[id] {
			return RouteRequested{PlaceID: id}
		}
	case strings.HasPrefix(msg, wireDetailsPrefix):
		if id, ok := singlePlaceID(strings.TrimPrefix(msg, wireDetailsPrefix)); ok {
			return DetailsRequested{PlaceID: id}
		}
	}

	return Unknown{Raw: raw}
}

// ROUTE_CALCULATED:<placeId>:<distanceKm>:<etaMinutes>[:<token>]
func parseRouteCalculated(raw, body string) Event {
	fields := strings.Split(body, fieldSeparator)
	placeID := strings.TrimSpace(fields[0])
	if placeID == "" {
		return Unknown{Raw: raw}
	}

	token, hasToken := parseToken(fields, 3)

	if len(fields) < 3 {
		return RouteFailed{PlaceID: placeID, Token: token, HasToken: hasToken, Reason: "missing route fields"}
	}

	distance, okDistance := parseMeasure(fields[1], maxRouteDistanceKm)
	eta, okETA := parseMeasure(fields[2], maxRouteETAMinutes)
	if !okDistance || !okETA {
		return RouteFailed{PlaceID: placeID, Token: token, HasToken: hasToken, Reason: "malformed route fields"}
	}

	return RouteCalculated{
		PlaceID:    placeID,
		DistanceKm: distance,
		ETAMinutes: eta,
		Token:      token,
		HasToken:   hasToken,
	}
}

// ROUTE_ERROR:<placeId>[:<token>]
func parseRouteError(raw, body string) Event {
	fields := strings.Split(body, fieldSeparator)
	placeID := strings.TrimSpace(fields[0])
	if placeID == "" {
		return Unknown{Raw: raw}
	}

	token, hasToken := parseToken(fields, 1)
	return RouteFailed{PlaceID: placeID, Token: token, HasToken: hasToken, Reason: "routing failed"}
}

// parseToken читает необязательный токен запроса; битый токен равен отсутствующему
func parseToken(fields []string, index int) (uint64, bool) {
	if len(fields) <= index {
		return 0, false
	}
	token, err := strconv.ParseUint(strings.TrimSpace(fields[index]), 10, 64)
	if err != nil || token == 0 {
		return 0, false
	}
	return token, true
}

// parseMeasure - конечное число в [0, limit]
func parseMeasure(s string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > limit {
		return 0, false
	}
	return v, true
}

func singlePlaceID(s string) (string, bool) {
	id := strings.TrimSpace(s)
	if id == "" || strings.Contains(id, fieldSeparator) {
		return "", false
	}
	return id, true
}

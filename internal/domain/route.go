package domain

// RouteQuery существует только пока расчёт не завершён
type RouteQuery struct {
	Origin      Coordinate `json:"origin"`
	Destination Coordinate `json:"destination"`
	PlaceID     string     `json:"place_id"`
}

// RouteResult - результат маршрутизации от гостя
type RouteResult struct {
	PlaceID    string  `json:"place_id"`
	DistanceKm float64 `json:"distance_km"`
	ETAMinutes float64 `json:"eta_minutes"`
}

// RouteEstimate - ответ внешнего сервиса маршрутизации
type RouteEstimate struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (e RouteEstimate) DistanceKm() float64 { return e.DistanceMeters / 1000 }

func (e RouteEstimate) ETAMinutes() float64 { return e.DurationSeconds / 60 }

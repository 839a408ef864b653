package domain

// PlaceStatusApproved - только одобренные модерацией места попадают на карту
const PlaceStatusApproved = "approved"

// Place - проекция места из внешнего сервиса мест (только чтение)
type Place struct {
	ID          string   `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	Description string   `json:"description" db:"description"`
	Category    string   `json:"category" db:"category"`
	Lat         float64  `json:"latitude" db:"latitude"`
	Lng         float64  `json:"longitude" db:"longitude"`
	RouteID     string   `json:"route_id,omitempty" db:"route_id"`
	RouteName   string   `json:"route_name,omitempty" db:"route_name"`
	Status      string   `json:"status" db:"status"`
	Schedules   Schedule `json:"schedules" db:"-"`
}

func (p Place) IsApproved() bool {
	return p.Status == PlaceStatusApproved
}

func (p Place) Coordinate() Coordinate {
	return Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// PlaceFilter - фильтр набора мест для карты
type PlaceFilter struct {
	RouteID  string
	Category string
}

// Match проверяет место по фильтру; пустые поля не ограничивают
func (f PlaceFilter) Match(p Place) bool {
	if f.RouteID != "" && p.RouteID != f.RouteID {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	return true
}

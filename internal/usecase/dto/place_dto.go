package dto

// ScheduleItem - день расписания для отображения
type ScheduleItem struct {
	DayOfWeek string `json:"day_of_week"`
	Label     string `json:"label"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// PlaceAvailability - место и его доступность на момент At
type PlaceAvailability struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Category   string         `json:"category,omitempty"`
	Lat        float64        `json:"lat"`
	Lng        float64        `json:"lng"`
	RouteName  string         `json:"route_name,omitempty"`
	IsOpen     bool           `json:"is_open"`
	StatusText string         `json:"status_text"`
	At         string         `json:"at"`
	Schedules  []ScheduleItem `json:"schedules"`
}

// PlacesResponse - список одобренных мест
type PlacesResponse struct {
	Places []PlaceAvailability `json:"places"`
	Total  int                 `json:"total"`
}

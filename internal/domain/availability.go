package domain

import (
	"fmt"
	"time"
)

const (
	StatusNotAvailable = "not available"
	StatusClosedToday  = "closed today"

	closingSoonMinutes  = 30
	closingLaterMinutes = 120
)

// AvailabilityStatus вычисляется при каждом отображении и нигде не хранится
type AvailabilityStatus struct {
	IsOpen     bool   `json:"is_open"`
	StatusText string `json:"status_text"`
}

// Evaluate определяет, открыто ли место в момент now.
// now должен быть уже переведён в часовой пояс места; функция не обращается к часам.
func Evaluate(schedule Schedule, now time.Time) AvailabilityStatus {
	if len(schedule) == 0 {
		return AvailabilityStatus{IsOpen: false, StatusText: StatusNotAvailable}
	}

	entry, ok := schedule.ForDay(WeekdayOf(now))
	if !ok {
		return AvailabilityStatus{IsOpen: false, StatusText: StatusClosedToday}
	}

	current := TimeOfDayOf(now)

	// обе границы включительно
	if current < entry.OpenTime || current > entry.CloseTime {
		return AvailabilityStatus{
			IsOpen:     false,
			StatusText: fmt.Sprintf("opens %s", entry.OpenTime),
		}
	}

	remaining := entry.CloseTime.Minutes() - current.Minutes()

	var text string
	switch {
	case remaining <= closingSoonMinutes:
		text = fmt.Sprintf("closes in %d min", remaining)
	case remaining < closingLaterMinutes:
		text = fmt.Sprintf("closes in %dh %dm", remaining/60, remaining%60)
	default:
		text = fmt.Sprintf("open until %s", entry.CloseTime)
	}

	return AvailabilityStatus{IsOpen: true, StatusText: text}
}

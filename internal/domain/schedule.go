package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday - канонический идентификатор дня недели, как его отдаёт бэкенд
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// индекс совпадает с time.Weekday
var weekdays = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// spanishLabels используется только для отображения
var spanishLabels = map[Weekday]string{
	Monday:    "Lunes",
	Tuesday:   "Martes",
	Wednesday: "Miércoles",
	Thursday:  "Jueves",
	Friday:    "Viernes",
	Saturday:  "Sábado",
	Sunday:    "Domingo",
}

var (
	ErrInvalidWeekday    = errors.New("invalid weekday")
	ErrInvalidTimeOfDay  = errors.New("invalid time of day")
	ErrOvernightSchedule = errors.New("close time is before open time")
	ErrDuplicateWeekday  = errors.New("duplicate weekday in schedule")
)

// WeekdayOf возвращает канонический день недели для момента времени в его собственной зоне
func WeekdayOf(t time.Time) Weekday {
	return weekdays[t.Weekday()]
}

// ParseWeekday разбирает идентификатор без учёта регистра
func ParseWeekday(s string) (Weekday, error) {
	w := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := spanishLabels[w]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return w, nil
}

// Matches сравнивает без учёта регистра и пробелов
func (w Weekday) Matches(other Weekday) bool {
	return strings.EqualFold(strings.TrimSpace(string(w)), strings.TrimSpace(string(other)))
}

// SpanishLabel - подпись дня для интерфейса
func (w Weekday) SpanishLabel() string {
	if label, ok := spanishLabels[Weekday(strings.ToLower(string(w)))]; ok {
		return label
	}
	return string(w)
}

// TimeOfDay - минуты от полуночи
type TimeOfDay int

const minutesPerDay = 24 * 60

// NewTimeOfDay собирает время из часов и минут
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay принимает "HH:MM" и "HH:MM:SS"; секунды отбрасываются
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
	}

	return NewTimeOfDay(hour, minute), nil
}

// TimeOfDayOf - время суток момента t (в зоне t)
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) Valid() bool { return t >= 0 && t < minutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimeOfDay, string(data))
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan поддерживает text/time колонки Postgres
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
	case time.Time:
		*t = TimeOfDayOf(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidTimeOfDay, src)
	}
	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// DaySchedule - окно работы места в один день недели
type DaySchedule struct {
	DayOfWeek Weekday   `json:"day_of_week" db:"day_of_week"`
	OpenTime  TimeOfDay `json:"open_time" db:"open_time"`
	CloseTime TimeOfDay `json:"close_time" db:"close_time"`
}

// Validate отклоняет неизвестные дни и окна через полночь
func (d DaySchedule) Validate() error {
	if _, err := ParseWeekday(string(d.DayOfWeek)); err != nil {
		return err
	}
	if !d.OpenTime.Valid() || !d.CloseTime.Valid() {
		return ErrInvalidTimeOfDay
	}
	if d.CloseTime < d.OpenTime {
		return fmt.Errorf("%w: %s-%s", ErrOvernightSchedule, d.OpenTime, d.CloseTime)
	}
	return nil
}

// Schedule - неупорядоченный набор дней; отсутствующий день означает "закрыто"
type Schedule []DaySchedule

// ForDay возвращает запись для дня недели
func (s Schedule) ForDay(day Weekday) (DaySchedule, bool) {
	for _, entry := range s {
		if entry.DayOfWeek.Matches(day) {
			return entry, true
		}
	}
	return DaySchedule{}, false
}

// Validate проверяет каждую запись и уникальность дней
func (s Schedule) Validate() error {
	seen := make(map[Weekday]struct{}, len(s))
	for _, entry := range s {
		if err := entry.Validate(); err != nil {
			return err
		}
		day, _ := ParseWeekday(string(entry.DayOfWeek))
		if _, dup := seen[day]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateWeekday, day)
		}
		seen[day] = struct{}{}
	}
	return nil
}

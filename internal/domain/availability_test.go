package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2026-10-19 - понедельник
func at(t *testing.T, weekdayOffset, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/La_Paz")
	if err != nil {
		loc = time.FixedZone("BOT", -4*60*60)
	}
	return time.Date(2026, 10, 19+weekdayOffset, hour, minute, 0, 0, loc)
}

func mondayNineToSix() Schedule {
	return Schedule{
		{DayOfWeek: Monday, OpenTime: NewTimeOfDay(9, 0), CloseTime: NewTimeOfDay(18, 0)},
	}
}

func TestEvaluate_Examples(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		now      time.Time
		expected AvailabilityStatus
	}{
		{
			name:     "closes in minutes",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 17, 45),
			expected: AvailabilityStatus{IsOpen: true, StatusText: "closes in 15 min"},
		},
		{
			name:     "closed after hours",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 20, 0),
			expected: AvailabilityStatus{IsOpen: false, StatusText: "opens 09:00"},
		},
		{
			name:     "closed before opening",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 8, 59),
			expected: AvailabilityStatus{IsOpen: false, StatusText: "opens 09:00"},
		},
		{
			name:     "no entry for tuesday",
			schedule: mondayNineToSix(),
			now:      at(t, 1, 12, 0),
			expected: AvailabilityStatus{IsOpen: false, StatusText: "closed today"},
		},
		{
			name:     "closes in hours and minutes",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 16, 20),
			expected: AvailabilityStatus{IsOpen: true, StatusText: "closes in 1h 40m"},
		},
		{
			name:     "exactly thirty minutes left",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 17, 30),
			expected: AvailabilityStatus{IsOpen: true, StatusText: "closes in 30 min"},
		},
		{
			name:     "thirty one minutes left",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 17, 29),
			expected: AvailabilityStatus{IsOpen: true, StatusText: "closes in 0h 31m"},
		},
		{
			name:     "exactly two hours left",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 16, 0),
			expected: AvailabilityStatus{IsOpen: true, StatusText: "open until 18:00"},
		},
		{
			name:     "open until",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 10, 0),
			expected: AvailabilityStatus{IsOpen: true, StatusText: "open until 18:00"},
		},
		{
			name:     "inclusive opening boundary",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 9, 0),
			expected: AvailabilityStatus{IsOpen: true, StatusText: "open until 18:00"},
		},
		{
			name:     "inclusive closing boundary",
			schedule: mondayNineToSix(),
			now:      at(t, 0, 18, 0),
			expected: AvailabilityStatus{IsOpen: true, StatusText: "closes in 0 min"},
		},
		{
			name: "weekday match ignores case",
			schedule: Schedule{
				{DayOfWeek: "MONDAY", OpenTime: NewTimeOfDay(9, 0), CloseTime: NewTimeOfDay(18, 0)},
			},
			now:      at(t, 0, 12, 0),
			expected: AvailabilityStatus{IsOpen: true, StatusText: "open until 18:00"},
		},
		{
			name: "spanish label is not a weekday identifier",
			schedule: Schedule{
				{DayOfWeek: "lunes", OpenTime: NewTimeOfDay(9, 0), CloseTime: NewTimeOfDay(18, 0)},
			},
			now:      at(t, 0, 12, 0),
			expected: AvailabilityStatus{IsOpen: false, StatusText: "closed today"},
		},
		{
			name: "overnight window is treated as closed",
			schedule: Schedule{
				{DayOfWeek: Monday, OpenTime: NewTimeOfDay(20, 0), CloseTime: NewTimeOfDay(2, 0)},
			},
			now:      at(t, 0, 21, 0),
			expected: AvailabilityStatus{IsOpen: false, StatusText: "opens 20:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.schedule, tt.now))
		})
	}
}

func TestEvaluate_EmptyScheduleIsNeverOpen(t *testing.T) {
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour += 3 {
			status := Evaluate(nil, at(t, day, hour, 0))
			assert.False(t, status.IsOpen)
			assert.Equal(t, StatusNotAvailable, status.StatusText)
		}
	}
}

func TestEvaluate_InsideWindowIsAlwaysOpen(t *testing.T) {
	schedule := Schedule{
		{DayOfWeek: Wednesday, OpenTime: NewTimeOfDay(7, 30), CloseTime: NewTimeOfDay(22, 15)},
	}

	for minute := schedule[0].OpenTime.Minutes(); minute <= schedule[0].CloseTime.Minutes(); minute++ {
		now := at(t, 2, minute/60, minute%60)
		assert.True(t, Evaluate(schedule, now).IsOpen, "minute %d", minute)
	}
	assert.False(t, Evaluate(schedule, at(t, 2, 7, 29)).IsOpen)
	assert.False(t, Evaluate(schedule, at(t, 2, 22, 16)).IsOpen)
}

func TestEvaluate_UsesZoneOfNow(t *testing.T) {
	// 01:00 UTC вторника = 21:00 понедельника в La Paz
	utc := time.Date(2026, 10, 20, 1, 0, 0, 0, time.UTC)
	schedule := Schedule{
		{DayOfWeek: Monday, OpenTime: NewTimeOfDay(18, 0), CloseTime: NewTimeOfDay(23, 0)},
	}

	assert.Equal(t, StatusClosedToday, Evaluate(schedule, utc).StatusText)

	local := utc.In(time.FixedZone("BOT", -4*60*60))
	assert.True(t, Evaluate(schedule, local).IsOpen)
}

package domain

import (
	"fmt"
	"time"
)

// Weekly working-hours availability. A nil field means the day is not worked.
// Present values must lie in (0, 24].
type WorkSchedule struct {
	MondayHours    *float64 `json:"monday_hours"`
	TuesdayHours   *float64 `json:"tuesday_hours"`
	WednesdayHours *float64 `json:"wednesday_hours"`
	ThursdayHours  *float64 `json:"thursday_hours"`
	FridayHours    *float64 `json:"friday_hours"`
	SaturdayHours  *float64 `json:"saturday_hours"`
	SundayHours    *float64 `json:"sunday_hours"`
}

// DefaultWorkSchedule is applied when a request omits the work schedule:
// 8 hours Monday-Friday, 4 hours Saturday, Sunday off.
func DefaultWorkSchedule() WorkSchedule {
	weekday := 8.0
	saturday := 4.0
	return WorkSchedule{
		MondayHours:    &weekday,
		TuesdayHours:   &weekday,
		WednesdayHours: &weekday,
		ThursdayHours:  &weekday,
		FridayHours:    &weekday,
		SaturdayHours:  &saturday,
	}
}

// Validate checks that every present value is a usable day length.
func (ws WorkSchedule) Validate() error {
	days := []struct {
		name  string
		hours *float64
	}{
		{"monday_hours", ws.MondayHours},
		{"tuesday_hours", ws.TuesdayHours},
		{"wednesday_hours", ws.WednesdayHours},
		{"thursday_hours", ws.ThursdayHours},
		{"friday_hours", ws.FridayHours},
		{"saturday_hours", ws.SaturdayHours},
		{"sunday_hours", ws.SundayHours},
	}

	for _, d := range days {
		if d.hours == nil {
			continue
		}
		if *d.hours <= 0 || *d.hours > 24 {
			return fmt.Errorf("validate work schedule: %s=%v must be in (0, 24]", d.name, *d.hours)
		}
	}

	return nil
}

// HoursFor returns the available hours for a weekday, or nil on days off.
func (ws WorkSchedule) HoursFor(day time.Weekday) *float64 {
	switch day {
	case time.Monday:
		return ws.MondayHours
	case time.Tuesday:
		return ws.TuesdayHours
	case time.Wednesday:
		return ws.WednesdayHours
	case time.Thursday:
		return ws.ThursdayHours
	case time.Friday:
		return ws.FridayHours
	case time.Saturday:
		return ws.SaturdayHours
	default:
		return ws.SundayHours
	}
}

// Clone returns an independent copy (pointer fields reallocated).
func (ws WorkSchedule) Clone() WorkSchedule {
	out := WorkSchedule{}
	out.MondayHours = cloneFloat(ws.MondayHours)
	out.TuesdayHours = cloneFloat(ws.TuesdayHours)
	out.WednesdayHours = cloneFloat(ws.WednesdayHours)
	out.ThursdayHours = cloneFloat(ws.ThursdayHours)
	out.FridayHours = cloneFloat(ws.FridayHours)
	out.SaturdayHours = cloneFloat(ws.SaturdayHours)
	out.SundayHours = cloneFloat(ws.SundayHours)
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

package models

import (
	"fmt"
	"time"
)

// ClockTime is a time of day, stored as "HH:MM" or "HH:MM:SS".
type ClockTime struct {
	Hour, Minute, Second int
}

func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// On places the clock time on the calendar date of day, in day's location.
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, c.Second, 0, day.Location())
}

type Shift struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	StartTime        ClockTime `json:"start_time"`
	EndTime          ClockTime `json:"end_time"`
	ToleranceMinutes int       `json:"tolerance_minutes"`
	// WorkingDays holds ISO weekdays, 1 = Monday ... 7 = Sunday.
	WorkingDays []int  `json:"working_days"`
	Status      string `json:"status"`
}

func (s *Shift) Tolerance() time.Duration {
	return time.Duration(s.ToleranceMinutes) * time.Minute
}

func (s *Shift) IsWorkingDay(day time.Time) bool {
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7
	}
	for _, d := range s.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

type UserShiftMap struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	ShiftID       int64      `json:"shift_id"`
	EffectiveDate time.Time  `json:"effective_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	Shift         *Shift     `json:"shift,omitempty"`
}

// EffectiveOn reports whether the mapping applies to the calendar date of day.
func (m *UserShiftMap) EffectiveOn(day time.Time) bool {
	if m.Status != StatusActive {
		return false
	}
	loc := day.Location()
	date := calendarDate(day, loc)
	if date.Before(calendarDate(m.EffectiveDate, loc)) {
		return false
	}
	if m.EndDate != nil && date.After(calendarDate(*m.EndDate, loc)) {
		return false
	}
	return true
}

// calendarDate keeps t's own Y/M/D; DATE columns come back as UTC midnight.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

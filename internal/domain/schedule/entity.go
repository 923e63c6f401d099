package schedule

import (
	"time"

	"github.com/google/uuid"
)

// ShiftTemplate is an employee's recurring working window for one weekday.
type ShiftTemplate struct {
	ID            uuid.UUID
	EmployeeID    uuid.UUID
	DayOfWeek     time.Weekday
	Hours         Interval
	EffectiveFrom Date
	EffectiveTo   *Date
	IsActive      bool
}

func (t ShiftTemplate) AppliesOn(date Date) bool {
	return t.IsActive && t.DayOfWeek == date.Weekday() && withinEffective(date, t.EffectiveFrom, t.EffectiveTo)
}

// ShiftOverride replaces template resolution for one exact date.
type ShiftOverride struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	Date       Date
	IsWorking  bool
	Hours      *Interval
	Reason     string
}

// BreakTemplate blocks time on a weekday, or on every day when DayOfWeek is nil.
type BreakTemplate struct {
	ID            uuid.UUID
	EmployeeID    uuid.UUID
	DayOfWeek     *time.Weekday
	Hours         Interval
	EffectiveFrom Date
	EffectiveTo   *Date
	IsActive      bool
}

func (b BreakTemplate) AppliesOn(date Date) bool {
	if !b.IsActive {
		return false
	}
	if b.DayOfWeek != nil && *b.DayOfWeek != date.Weekday() {
		return false
	}
	return withinEffective(date, b.EffectiveFrom, b.EffectiveTo)
}

func withinEffective(date, from Date, to *Date) bool {
	if date.Before(from) {
		return false
	}
	return to == nil || !date.After(*to)
}

// ResolveWorkingHours applies the override for date first, then the first
// matching template. Templates are expected in (effectiveFrom, id) order.
// ok is false when the employee does not work on date.
func ResolveWorkingHours(override *ShiftOverride, templates []ShiftTemplate, date Date) (Interval, bool) {
	if override != nil && override.Date.Equal(date) {
		if !override.IsWorking {
			return Interval{}, false
		}
		if override.Hours != nil {
			return *override.Hours, true
		}
	}
	for _, t := range templates {
		if t.AppliesOn(date) {
			return t.Hours, true
		}
	}
	return Interval{}, false
}

// BreaksOn returns the windows of every break active on date.
func BreaksOn(breaks []BreakTemplate, date Date) []Interval {
	out := make([]Interval, 0, len(breaks))
	for _, b := range breaks {
		if b.AppliesOn(date) {
			out = append(out, b.Hours)
		}
	}
	return out
}

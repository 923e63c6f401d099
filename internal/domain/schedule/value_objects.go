package schedule

import (
	"fmt"
	"regexp"
	"time"

	"petcare-booking/internal/pkg/errs"
)

const (
	TimeFormat = "15:04"
	DateFormat = "2006-01-02"

	minutesPerDay = 24 * 60
)

var (
	ErrInvalidTimeOfDay = errs.Validation("time must be HH:MM in 24h format")
	ErrInvalidDate      = errs.Validation("date must be YYYY-MM-DD")
	ErrInvalidInterval  = errs.Validation("end time must be after start time")
	ErrCrossesMidnight  = errs.Validation("time range crosses midnight")
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if !timeOfDayPattern.MatchString(s) {
		return 0, errs.Wrapf(ErrInvalidTimeOfDay, "%q", s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return TimeOfDay(h*60 + m), nil
}

func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayFromMinutes rejects values outside a single day.
func TimeOfDayFromMinutes(m int) (TimeOfDay, error) {
	if m < 0 || m >= minutesPerDay {
		return 0, errs.Wrapf(ErrCrossesMidnight, "%d minutes", m)
	}
	return TimeOfDay(m), nil
}

// Add fails when the result would land on or past midnight.
func (t TimeOfDay) Add(minutes int) (TimeOfDay, error) {
	return TimeOfDayFromMinutes(int(t) + minutes)
}

func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Date is a civil calendar date. The zero value is not a valid date.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, errs.Wrapf(ErrInvalidDate, "%q", s)
	}
	return Date{t: t}, nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar date of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return NewDate(y, m, d)
}

// DateFromTime keeps the calendar fields of t and ignores its location.
func DateFromTime(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func (d Date) IsZero() bool                 { return d.t.IsZero() }
func (d Date) Weekday() time.Weekday        { return d.t.Weekday() }
func (d Date) Before(o Date) bool           { return d.t.Before(o.t) }
func (d Date) After(o Date) bool            { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool            { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date           { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) String() string               { return d.t.Format(DateFormat) }
func (d Date) Time() time.Time              { return d.t }
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// At returns the instant at which the wall-clock time tod occurs on d in loc.
func (d Date) At(tod TimeOfDay, loc *time.Location) time.Time {
	y, m, day := d.t.Date()
	return time.Date(y, m, day, int(tod)/60, int(tod)%60, 0, 0, loc)
}

// Interval is a half-open range [Start, End) within a single day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

func NewInterval(start, end TimeOfDay) (Interval, error) {
	if end <= start {
		return Interval{}, errs.Wrapf(ErrInvalidInterval, "%s-%s", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

// Overlaps treats touching intervals as disjoint.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

func (i Interval) Contains(o Interval) bool {
	return i.Start <= o.Start && o.End <= i.End
}

func (i Interval) DurationMin() int { return int(i.End - i.Start) }

func (i Interval) String() string { return i.Start.String() + "-" + i.End.String() }

// Package timeslot models calendar dates and minute-of-day ranges.
//
// All arithmetic is integer minutes. A Range is half-open: [Start, End).
// No timezone conversion is performed; values are in the facility's local
// wall-clock convention.
package timeslot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// LastMinute is the last addressable minute of a day (23:59).
	LastMinute Minute = 24*60 - 1

	DateLayout = "2006-01-02"
)

var (
	ErrInvalidClock = errors.New("invalid clock time")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("end time must be after start time")
)

// Minute is a minute of the day, 0 (00:00) through 1439 (23:59).
type Minute int

func (m Minute) Valid() bool {
	return m >= 0 && m <= LastMinute
}

// String renders the minute as HH:MM.
func (m Minute) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// ParseClock parses a strict 24h "HH:MM" string. Seconds, signs and
// single-digit fields are rejected.
func ParseClock(s string) (Minute, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || !twoDigits(hh) || !twoDigits(mm) {
		return 0, fmt.Errorf("%w %q: want HH:MM", ErrInvalidClock, s)
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w %q: hour out of range", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w %q: minute out of range", ErrInvalidClock, s)
	}

	return Minute(h*60 + m), nil
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

// Range is a half-open interval of minutes within one day.
type Range struct {
	Start Minute `json:"start"`
	End   Minute `json:"end"`
}

// NewRange validates start and end and returns the range.
func NewRange(start, end Minute) (Range, error) {
	if !start.Valid() || !end.Valid() {
		return Range{}, fmt.Errorf("%w: times must be within 00:00-23:59", ErrInvalidRange)
	}
	if end <= start {
		return Range{}, ErrInvalidRange
	}
	return Range{Start: start, End: end}, nil
}

// Minutes returns the length of the range.
func (r Range) Minutes() int {
	return int(r.End - r.Start)
}

// Overlaps reports whether r and o share any open interval. Touching
// endpoints do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && r.End > o.Start
}

// Contains reports whether o lies entirely within r.
func (r Range) Contains(o Range) bool {
	return o.Start >= r.Start && o.End <= r.End
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Subtract removes the busy ranges from r and returns the remaining gaps in
// order. busy must be sorted by Start.
func (r Range) Subtract(busy []Range) []Range {
	free := []Range{}
	cursor := r.Start
	for _, b := range busy {
		if b.End <= cursor || b.Start >= r.End {
			continue
		}
		if b.Start > cursor {
			free = append(free, Range{Start: cursor, End: b.Start})
		}
		if b.End > cursor {
			cursor = b.End
		}
	}
	if cursor < r.End {
		free = append(free, Range{Start: cursor, End: r.End})
	}
	return free
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date, which is how dates are stored.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

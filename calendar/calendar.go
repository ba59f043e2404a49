/*
Package calendar provides the date and interval primitives shared by every
other package in the engine.

PURPOSE:
  The whole scheduling domain runs on calendar-day granularity: time-off
  requests are date ranges, weekly plans are anchored to a Monday, special
  assignments belong to a single date. This package is the ONE place where
  date comparison and interval overlap are implemented, so every overlap
  check in the system agrees on edge cases.

KEY CONCEPTS:
  - Date:      A calendar day (UTC-normalized, no time-of-day)
  - DateRange: An inclusive [Start, End] span of days
  - ClockTime: A time-of-day ("HH:MM") used by shift rows, not by dates

OVERLAP CONTRACT:
  Two inclusive ranges overlap iff aStart <= bEnd && bStart <= aEnd.
  DateRange.Overlaps and the free function Overlaps are the single
  implementation of this rule; nothing else in the engine re-derives it.

SEE ALSO:
  - policy: static rule windows are DateRanges
  - timeoff: conflict scan filters peer requests via Overlaps
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day, no time-of-day
// =============================================================================

// Date is a calendar day. The zero value is the zero time.
type Date struct {
	t time.Time
}

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates a time.Time to its calendar day.
func FromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustParseDate is ParseDate for literals in tests and seed data.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current calendar day.
func Today() Date {
	return FromTime(time.Now().UTC())
}

// Comparison
func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// MondayOf returns the Monday of the ISO week containing d.
// Weekly plans are keyed by this normalized date.
func MondayOf(d Date) Date {
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return d.AddDays(-offset)
}

// =============================================================================
// DATE RANGE - Inclusive interval of days
// =============================================================================

// DateRange is an inclusive [Start, End] span of calendar days.
type DateRange struct {
	Start Date
	End   Date
}

// NewRange builds a range; callers validate with Valid().
func NewRange(start, end Date) DateRange {
	return DateRange{Start: start, End: end}
}

// Valid reports whether End >= Start.
func (r DateRange) Valid() bool {
	return r.End.AfterOrEqual(r.Start)
}

// Overlaps reports whether two inclusive ranges share at least one day.
// This is the single overlap implementation for the whole engine.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.BeforeOrEqual(o.End) && o.Start.BeforeOrEqual(r.End)
}

// Overlaps is the free-function form of DateRange.Overlaps.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return DateRange{Start: aStart, End: aEnd}.Overlaps(DateRange{Start: bStart, End: bEnd})
}

// Contains reports whether d falls within the range, inclusive.
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days returns the inclusive day count of the range.
func (r DateRange) Days() int {
	return int(r.End.t.Sub(r.Start.t).Hours()/24) + 1
}

// YearsTouched returns every calendar year the range touches, ascending.
func (r DateRange) YearsTouched() []int {
	var years []int
	for y := r.Start.Year(); y <= r.End.Year(); y++ {
		years = append(years, y)
	}
	return years
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// CLOCK TIME - Time-of-day for shift rows
// =============================================================================

// ClockTime is a time-of-day as minutes since midnight.
type ClockTime int

// ParseClock parses "HH:MM" (24-hour).
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) Before(o ClockTime) bool { return c < o }

// Sub returns the difference in minutes.
func (c ClockTime) Sub(o ClockTime) int { return int(c) - int(o) }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

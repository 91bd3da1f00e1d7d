// Package timeutil provides the deterministic date arithmetic the calendar
// and recurrence layers are built on. Every function is pure: inputs are
// never mutated and "now" is always an explicit parameter.
package timeutil

import (
	"os"
	"time"
)

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// StartOfWeek clamps to the most recent occurrence of weekStart at midnight.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := StartOfDay(t)
	diff := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

func EndOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	return EndOfDay(StartOfWeek(t, weekStart).AddDate(0, 0, 6))
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return EndOfDay(StartOfMonth(t).AddDate(0, 1, -1))
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

func EndOfYear(t time.Time) time.Time {
	return EndOfDay(time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location()))
}

func AddMinutes(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Minute) }

func AddHours(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Hour) }

func AddDays(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }

func AddWeeks(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) }

// AddMonths uses native day-of-month rollover: Jan 31 + 1 month lands in
// early March, matching time.AddDate. No clamping to the last valid day.
func AddMonths(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) }

func AddYears(t time.Time, n int) time.Time { return t.AddDate(n, 0, 0) }

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func SameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

func SameYear(a, b time.Time) bool {
	return a.Year() == b.Year()
}

func IsPast(t, now time.Time) bool { return t.Before(now) }

func IsFuture(t, now time.Time) bool { return t.After(now) }

// WithinRange reports whether t falls inside [start, end], inclusive on
// both ends.
func WithinRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// Overlaps is the half-open interval overlap test used throughout the
// calendar layer: [aStart, aEnd) intersects [bStart, bEnd) iff
// aStart < bEnd && bStart < aEnd. Zero-length intervals are treated as
// instants: an instant overlaps an interval that contains it, and two
// instants overlap only when they are equal.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	aInstant := aStart.Equal(aEnd)
	bInstant := bStart.Equal(bEnd)
	switch {
	case aInstant && bInstant:
		return aStart.Equal(bStart)
	case aInstant:
		return !aStart.Before(bStart) && aStart.Before(bEnd)
	case bInstant:
		return !bStart.Before(aStart) && bStart.Before(aEnd)
	default:
		return aStart.Before(bEnd) && bStart.Before(aEnd)
	}
}

// ToLocal converts t into the given IANA zone, preserving the instant.
func ToLocal(t time.Time, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// ToUTC is the exact inverse of ToLocal: for any t and valid zone,
// ToUTC(ToLocal(t, tz)) equals t as an instant.
func ToUTC(t time.Time) time.Time { return t.UTC() }

// UserTimezone reads the ambient zone configuration: the TZ environment
// variable when set, otherwise the process-local zone name.
func UserTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	return time.Local.String()
}

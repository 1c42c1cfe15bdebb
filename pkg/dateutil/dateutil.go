// Package dateutil resolves named date ranges against Dubai local time.
//
// Dubai has no daylight saving time and a Saturday/Sunday weekend, so the
// week used here runs Monday through Sunday.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// NamedRange is a closed vocabulary of relative date intervals
type NamedRange string

const (
	Today       NamedRange = "today"
	Tomorrow    NamedRange = "tomorrow"
	ThisWeek    NamedRange = "this_week"
	NextWeek    NamedRange = "next_week"
	ThisWeekend NamedRange = "this_weekend"
	NextWeekend NamedRange = "next_weekend"
	ThisMonth   NamedRange = "this_month"
	NextMonth   NamedRange = "next_month"

	// Weekends and Weekdays are recurring day-of-week patterns with no bounds
	Weekends NamedRange = "weekends"
	Weekdays NamedRange = "weekdays"
)

var (
	// ErrUnknownRange is returned for names outside the vocabulary
	ErrUnknownRange = errors.New("unknown named range")

	// ErrRecurringRange is returned when bounds are requested for a recurring pattern
	ErrRecurringRange = errors.New("named range is a recurring pattern without bounds")
)

// Dubai is the Asia/Dubai location, UTC+4 all year.
var Dubai = loadDubai()

func loadDubai() *time.Location {
	loc, err := time.LoadLocation("Asia/Dubai")
	if err != nil {
		return time.FixedZone("GST", 4*60*60)
	}
	return loc
}

var boundedRanges = []NamedRange{
	Today, Tomorrow, ThisWeek, NextWeek, ThisWeekend, NextWeekend, ThisMonth, NextMonth,
}

// BoundedRanges lists the named ranges that resolve to a single interval
func BoundedRanges() []NamedRange {
	out := make([]NamedRange, len(boundedRanges))
	copy(out, boundedRanges)
	return out
}

// AllNamedRanges lists bounded ranges followed by the recurring patterns
func AllNamedRanges() []NamedRange {
	return append(BoundedRanges(), Weekends, Weekdays)
}

// IsRecurring reports whether r is a day-of-week pattern
func (r NamedRange) IsRecurring() bool {
	return r == Weekends || r == Weekdays
}

// Valid reports whether r belongs to the vocabulary
func (r NamedRange) Valid() bool {
	if r.IsRecurring() {
		return true
	}
	for _, b := range boundedRanges {
		if r == b {
			return true
		}
	}
	return false
}

// ParseNamedRange accepts both "this_weekend" and "this-weekend" spellings
func ParseNamedRange(s string) (NamedRange, error) {
	r := NamedRange(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
	}
	return r, nil
}

// InDubai converts t to Dubai local time
func InDubai(t time.Time) time.Time {
	return t.In(Dubai)
}

// LocalWeekday returns the weekday of t on the Dubai calendar
func LocalWeekday(t time.Time) time.Weekday {
	return t.In(Dubai).Weekday()
}

// IsWeekend reports whether t falls on a Saturday or Sunday in Dubai
func IsWeekend(t time.Time) bool {
	wd := LocalWeekday(t)
	return wd == time.Saturday || wd == time.Sunday
}

// IsWeekday is the complement of IsWeekend
func IsWeekday(t time.Time) bool {
	return !IsWeekend(t)
}

// MatchesDayType reports whether t satisfies a recurring pattern. Bounded
// ranges always match.
func MatchesDayType(r NamedRange, t time.Time) bool {
	switch r {
	case Weekends:
		return IsWeekend(t)
	case Weekdays:
		return IsWeekday(t)
	default:
		return true
	}
}

// RangeFor resolves r against ref. Both instants are returned in UTC; end is
// the last microsecond inside the range.
func RangeFor(r NamedRange, ref time.Time) (start, end time.Time, err error) {
	day := StartOfDay(ref)

	var next time.Time
	switch r {
	case Today:
		start = day
		next = day.AddDate(0, 0, 1)
	case Tomorrow:
		start = day.AddDate(0, 0, 1)
		next = start.AddDate(0, 0, 1)
	case ThisWeek:
		start = StartOfWeek(day)
		next = start.AddDate(0, 0, 7)
	case NextWeek:
		start = StartOfWeek(day).AddDate(0, 0, 7)
		next = start.AddDate(0, 0, 7)
	case ThisWeekend:
		start = weekendSaturday(day)
		next = start.AddDate(0, 0, 2)
	case NextWeekend:
		start = weekendSaturday(day).AddDate(0, 0, 7)
		next = start.AddDate(0, 0, 2)
	case ThisMonth:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, Dubai)
		next = firstOfFollowingMonth(start)
	case NextMonth:
		start = firstOfFollowingMonth(time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, Dubai))
		next = firstOfFollowingMonth(start)
	case Weekends, Weekdays:
		return time.Time{}, time.Time{}, ErrRecurringRange
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrUnknownRange, string(r))
	}

	return start.UTC(), next.Add(-time.Microsecond).UTC(), nil
}

// StartOfDay returns local midnight of the Dubai calendar day containing t
func StartOfDay(t time.Time) time.Time {
	local := t.In(Dubai)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Dubai)
}

// StartOfWeek returns Monday 00:00 of the Dubai week containing t
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// weekendSaturday returns the Saturday of the ongoing weekend, or the next one
func weekendSaturday(day time.Time) time.Time {
	switch day.Weekday() {
	case time.Saturday:
		return day
	case time.Sunday:
		return day.AddDate(0, 0, -1)
	default:
		return day.AddDate(0, 0, int(time.Saturday-day.Weekday()))
	}
}

func firstOfFollowingMonth(first time.Time) time.Time {
	year, month := first.Year(), first.Month()
	if month == time.December {
		return time.Date(year+1, time.January, 1, 0, 0, 0, 0, Dubai)
	}
	return time.Date(year, month+1, 1, 0, 0, 0, 0, Dubai)
}

// LocalDay formats t as the Dubai calendar date, e.g. 2026-10-24
func LocalDay(t time.Time) string {
	return t.In(Dubai).Format("2006-01-02")
}

// FilterByDayType keeps the items whose instant satisfies a recurring
// pattern. Bounded ranges return items unchanged.
func FilterByDayType[T any](r NamedRange, items []T, at func(T) time.Time) []T {
	if !r.IsRecurring() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if MatchesDayType(r, at(item)) {
			out = append(out, item)
		}
	}
	return out
}

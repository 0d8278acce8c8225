// Package period maps display periods and limit cadences onto concrete time
// boundaries.
//
// Display periods (ALL/TODAY/WEEK/MONTH/YEAR) produce closed [start, end]
// ranges used to filter transactions. Limit cadences (DAILY/WEEKLY/MONTHLY)
// only produce a start instant: the point from which spending counts
// against a limit. The two are separate types.
package period

import (
	"fmt"
	"strings"
	"time"

	"cashorganizer/internal/core"
)

type DisplayPeriod string

const (
	All   DisplayPeriod = "ALL"
	Today DisplayPeriod = "TODAY"
	Week  DisplayPeriod = "WEEK"
	Month DisplayPeriod = "MONTH"
	Year  DisplayPeriod = "YEAR"
)

// Range is a closed interval with millisecond resolution.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the range, boundaries included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ParseDisplayPeriod accepts any letter case.
func ParseDisplayPeriod(s string) (DisplayPeriod, error) {
	p := DisplayPeriod(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case All, Today, Week, Month, Year:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period: %s", s)
	}
}

// RangeFor returns the inclusive range of p around ref, evaluated in loc.
// A nil loc means time.Local.
func RangeFor(p DisplayPeriod, ref time.Time, loc *time.Location) Range {
	if loc == nil {
		loc = time.Local
	}
	ref = ref.In(loc)
	switch p {
	case Today:
		start := StartOfDay(ref, loc)
		return closed(start, start.AddDate(0, 0, 1))
	case Week:
		start := StartOfWeek(ref, loc)
		return closed(start, start.AddDate(0, 0, 7))
	case Month:
		start := StartOfMonth(ref, loc)
		return closed(start, start.AddDate(0, 1, 0))
	case Year:
		start := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return closed(start, start.AddDate(1, 0, 0))
	default:
		return Range{
			Start: time.Date(1970, time.January, 1, 0, 0, 0, 0, loc),
			End:   time.Date(2099, time.December, 31, 23, 59, 59, int(999*time.Millisecond), loc),
		}
	}
}

// closed turns the half-open [start, next) into [start, next-1ms].
func closed(start, next time.Time) Range {
	return Range{Start: start, End: next.Add(-time.Millisecond)}
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek returns Monday 00:00 of t's week. Weeks always start on
// Monday regardless of locale.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthKey formats t as the YYYY-MM key limits are stored under.
func MonthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(core.MonthLayout)
}

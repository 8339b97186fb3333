// Package calendar maps dates onto the UC Davis academic calendar. The
// prediction engine uses the resulting intensity as one of its factors:
// enforcement is heaviest during finals, routine during instruction, and
// sparse over breaks and summer.
package calendar

import "time"

// Period classifies a date against the academic year.
type Period string

const (
	PeriodFinals  Period = "finals"
	PeriodQuarter Period = "quarter"
	PeriodBreak   Period = "break"
)

// Enforcement intensity per period.
const (
	finalsIntensity  = 0.95
	quarterIntensity = 0.75
	breakIntensity   = 0.35
)

// monthDay is a recurring calendar date, year-agnostic.
type monthDay struct {
	month time.Month
	day   int
}

type dateRange struct {
	start, end monthDay
}

// Approximate 2024-2025 dates. These repeat close enough year to year that a
// static table beats depending on the registrar publishing a feed.
var (
	quarters = []dateRange{
		{monthDay{time.September, 25}, monthDay{time.December, 13}}, // fall
		{monthDay{time.January, 6}, monthDay{time.March, 21}},       // winter
		{monthDay{time.March, 31}, monthDay{time.June, 13}},         // spring
	}
	finals = []dateRange{
		{monthDay{time.December, 7}, monthDay{time.December, 13}},
		{monthDay{time.March, 15}, monthDay{time.March, 21}},
		{monthDay{time.June, 7}, monthDay{time.June, 13}},
	}
)

func (r dateRange) contains(month time.Month, day int) bool {
	if r.start.month <= r.end.month {
		if month < r.start.month || month > r.end.month {
			return false
		}
		if month == r.start.month && day < r.start.day {
			return false
		}
		if month == r.end.month && day > r.end.day {
			return false
		}
		return true
	}
	// Range spans the year boundary.
	if month > r.end.month && month < r.start.month {
		return false
	}
	if month == r.start.month && day < r.start.day {
		return false
	}
	if month == r.end.month && day > r.end.day {
		return false
	}
	return true
}

// PeriodFor returns the academic period the given time falls in.
func PeriodFor(t time.Time) Period {
	month, day := t.Month(), t.Day()
	for _, r := range finals {
		if r.contains(month, day) {
			return PeriodFinals
		}
	}
	for _, r := range quarters {
		if r.contains(month, day) {
			return PeriodQuarter
		}
	}
	return PeriodBreak
}

// Intensity returns the enforcement intensity for the given time, in [0, 1].
func Intensity(t time.Time) float64 {
	switch PeriodFor(t) {
	case PeriodFinals:
		return finalsIntensity
	case PeriodQuarter:
		return quarterIntensity
	default:
		return breakIntensity
	}
}

// Package timeutil provides utility functions and types for working with
// time-related operations.
package timeutil

import (
	"fmt"
	"math"
	"time"

	"github.com/markusmobius/go-dateparser"
)

const (
	minutesInAnHour = 60

	MillisPerSecond int64 = 1000
	MillisPerMinute int64 = 60 * MillisPerSecond
)

// dayKeyLayout is the layout used for per-day statistics keys.
const dayKeyLayout = "2006-01-02"

// CeilMinutes converts a millisecond value to whole minutes, rounding up.
func CeilMinutes(ms int64) int {
	return int(math.Ceil(float64(ms) / float64(MillisPerMinute)))
}

// CeilSeconds converts a millisecond value to whole seconds, rounding up.
func CeilSeconds(ms int64) int {
	return int(math.Ceil(float64(ms) / float64(MillisPerSecond)))
}

// MinsToHoursAndMins expresses a minutes value in hours and mins.
func MinsToHoursAndMins(val int) (hrs, mins int) {
	hrs = int(math.Floor(float64(val) / float64(minutesInAnHour)))
	mins = val % minutesInAnHour

	return
}

// SecsToMinsAndSecs expresses a seconds value in minutes and seconds.
func SecsToMinsAndSecs(val int) (mins, secs int) {
	return val / 60, val % 60
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// DayKey returns the calendar day of t used to key daily statistics.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// FromStr parses a natural language date such as "3 days ago" or
// "2025-03-01" relative to now.
func FromStr(s string, now time.Time) (time.Time, error) {
	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}

	dt, err := dateparser.Parse(cfg, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse %q: %w", s, err)
	}

	return dt.Time, nil
}

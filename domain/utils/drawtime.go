package utils

import (
	"fmt"
	"time"
)

// ParseDrawTime parses "HH:MM" (24h)
func ParseDrawTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("draw time must be HH:MM: %w", err)
	}
	return t.Hour(), t.Minute(), nil
}

// DrawDateFor returns the draw a purchase at `at` belongs to: today's draw until the
// draw time passes, tomorrow's afterwards. The result is a UTC-midnight date value.
func DrawDateFor(at time.Time, loc *time.Location, hour, minute int) time.Time {
	local := at.In(loc)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !local.Before(cutoff) {
		local = local.AddDate(0, 0, 1)
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// LocalDate returns the calendar date of t in loc as a UTC-midnight date value
func LocalDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date value as YYYY-MM-DD
func FormatDate(d time.Time) string {
	return d.Format("2006-01-02")
}

package database

import (
	"fmt"
	"time"
)

// WeekOf derives the reporting (week, year) for a recording date. Weeks are
// ISO-8601: Monday-starting, week 1 contains the year's first Thursday.
// ISO week 53 is folded into week 52 so every week 1 has a week-52
// predecessor in the prior year.
func WeekOf(t time.Time) (week, year int) {
	year, week = t.ISOWeek()
	if week == 53 {
		week = 52
	}
	return week, year
}

// ParseRecordedAt parses a YYYY-MM-DD recording date.
func ParseRecordedAt(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing recorded_at %q: %w", s, err)
	}
	return t, nil
}

// PreviousWeek returns the week immediately before (week, year), rolling
// week 1 over to week 52 of the prior year.
func PreviousWeek(week, year int) (int, int) {
	if week <= 1 {
		return 52, year - 1
	}
	return week - 1, year
}

// ValidWeek reports whether (week, year) is a usable reporting key.
func ValidWeek(week, year int) bool {
	return week >= 1 && week <= 52 && year >= 1000 && year <= 9999
}

// FormatWeekDisplay formats a reporting week for human-readable display,
// e.g. "W07 2026".
func FormatWeekDisplay(week, year int) string {
	return fmt.Sprintf("W%02d %d", week, year)
}

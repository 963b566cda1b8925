package database

import (
	"testing"
	"time"
)

func TestWeekOf(t *testing.T) {
	tests := []struct {
		date string
		week int
		year int
	}{
		{"2026-02-03", 6, 2026},
		{"2026-01-01", 1, 2026},  // Thursday, first ISO week of 2026
		{"2023-01-01", 52, 2022}, // Sunday, belongs to the prior ISO year
		{"2020-12-31", 52, 2020}, // ISO week 53, folded into 52
	}
	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		if err != nil {
			t.Fatalf("bad test date %s: %v", tt.date, err)
		}
		week, year := WeekOf(d)
		if week != tt.week || year != tt.year {
			t.Errorf("WeekOf(%s) = (%d, %d), want (%d, %d)", tt.date, week, year, tt.week, tt.year)
		}
	}
}

func TestPreviousWeek(t *testing.T) {
	if w, y := PreviousWeek(6, 2026); w != 5 || y != 2026 {
		t.Errorf("expected (5, 2026), got (%d, %d)", w, y)
	}
	// Week 1 rolls over to week 52 of the prior year, never week 0 or 53.
	if w, y := PreviousWeek(1, 2026); w != 52 || y != 2025 {
		t.Errorf("expected (52, 2025), got (%d, %d)", w, y)
	}
}

func TestValidWeek(t *testing.T) {
	for _, tt := range []struct {
		week, year int
		ok         bool
	}{
		{1, 2026, true},
		{52, 2026, true},
		{0, 2026, false},
		{53, 2026, false},
		{6, 26, false},
	} {
		if got := ValidWeek(tt.week, tt.year); got != tt.ok {
			t.Errorf("ValidWeek(%d, %d) = %v, want %v", tt.week, tt.year, got, tt.ok)
		}
	}
}

func TestParseRecordedAt(t *testing.T) {
	if _, err := ParseRecordedAt("2026-02-03"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseRecordedAt("03/02/2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestFormatWeekDisplay(t *testing.T) {
	if got := FormatWeekDisplay(6, 2026); got != "W06 2026" {
		t.Errorf("expected 'W06 2026', got %q", got)
	}
}

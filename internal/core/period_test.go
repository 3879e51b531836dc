package core

import (
	"testing"
	"time"
)

func TestWeekRangeAlwaysMondayStart(t *testing.T) {
	// 2025-06-02 is a Monday; walk through a full week of "now" values.
	for i := 0; i < 7; i++ {
		day := NewDate(2025, 6, 2).AddDays(i)
		r := WeekRange(day)
		if r.Start.Weekday() != time.Monday {
			t.Fatalf("now=%s: week starts on %s, want Monday", day, r.Start.Weekday())
		}
		if r.Days() != 7 {
			t.Fatalf("now=%s: week spans %d days, want 7", day, r.Days())
		}
		if !r.Contains(day) {
			t.Fatalf("now=%s: not inside its own week %s", day, r)
		}
	}
}

func TestWeekRangeSundayMapsSixDaysPastMonday(t *testing.T) {
	// 2025-06-08 is a Sunday; its week must start 6 days prior.
	r := WeekRange(NewDate(2025, 6, 8))
	if got, want := r.Start.String(), "2025-06-02"; got != want {
		t.Fatalf("week start = %s, want %s", got, want)
	}
}

func TestLast30DaysIncludesToday(t *testing.T) {
	now := time.Date(2025, 3, 15, 13, 45, 0, 0, time.UTC)
	r, err := ResolveRange(PeriodLast30Days, now, 0, 0)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got, want := r.End.String(), "2025-03-16"; got != want {
		t.Fatalf("end = %s, want %s (now + 1 day)", got, want)
	}
	if r.Days() != 30 {
		t.Fatalf("span = %d days, want 30", r.Days())
	}
	if !r.Contains(DateOf(now)) {
		t.Fatalf("today %s excluded from %s", DateOf(now), r)
	}
}

func TestMonthRange(t *testing.T) {
	cases := []struct {
		year, month int
		start, end  string
	}{
		{2025, 1, "2025-01-01", "2025-02-01"},
		{2025, 2, "2025-02-01", "2025-03-01"},
		{2024, 2, "2024-02-01", "2024-03-01"}, // leap February
		{2025, 12, "2025-12-01", "2026-01-01"},
	}
	for _, tc := range cases {
		r := MonthRange(tc.year, tc.month)
		if r.Start.String() != tc.start || r.End.String() != tc.end {
			t.Fatalf("%d-%d: got %s, want %s..%s", tc.year, tc.month, r, tc.start, tc.end)
		}
	}
}

func TestResolveRangeExplicitMonth(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	r, err := ResolveRange(PeriodMonth, now, 2, 2024)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.Days() != 29 {
		t.Fatalf("Feb 2024 spans %d days, want 29", r.Days())
	}
	if _, err := ResolveRange(PeriodMonth, now, 13, 2024); err == nil {
		t.Fatalf("expected error for month 13")
	}
}

func TestResolveRangeCurrentMonthBoundaries(t *testing.T) {
	// Last moment of January still resolves to January.
	now := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)
	r, err := ResolveRange(PeriodCurrentMonth, now, 0, 0)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got, want := r.Start.String(), "2025-01-01"; got != want {
		t.Fatalf("start = %s, want %s", got, want)
	}
	if got, want := r.End.String(), "2025-02-01"; got != want {
		t.Fatalf("end = %s, want %s", got, want)
	}
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in  string
		out Period
		ok  bool
	}{
		{"currentMonth", PeriodCurrentMonth, true},
		{"currentWeek", PeriodCurrentWeek, true},
		{"last30Days", PeriodLast30Days, true},
		{"month", PeriodMonth, true},
		{"", PeriodCurrentMonth, true},
		{"lastYear", "", false},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.in)
		if tc.ok && (err != nil || got != tc.out) {
			t.Fatalf("%q: got %q err=%v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct{ y, m, want int }{
		{2025, 1, 31}, {2025, 2, 28}, {2024, 2, 29}, {2025, 4, 30}, {2025, 12, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.y, tc.m); got != tc.want {
			t.Fatalf("%d-%d: got %d, want %d", tc.y, tc.m, got, tc.want)
		}
	}
}

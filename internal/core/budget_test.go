package core

import (
	"testing"
	"time"
)

func TestEvaluateBudgetOverspent(t *testing.T) {
	// Budget of 300.00 against 345.00 spent over 4 rows this month.
	b := Budget{Category: CategoryGrocery, Amount: Money{Cents: 30000}}
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	txns := []JoinedTransaction{
		tx("a", NewDate(2025, 3, 2), 10000, CategoryGrocery, false, false),
		tx("a", NewDate(2025, 3, 5), 12000, CategoryGrocery, false, false),
		tx("a", NewDate(2025, 3, 9), 7500, CategoryGrocery, false, false),
		tx("a", NewDate(2025, 3, 14), 5000, CategoryGrocery, false, false),
	}
	st := EvaluateBudget(b, txns, now, false)

	if st.MonthToDate.Cents != 34500 {
		t.Fatalf("month-to-date = %d, want 34500", st.MonthToDate.Cents)
	}
	if st.VisitCount != 4 {
		t.Fatalf("visits = %d, want 4", st.VisitCount)
	}
	if st.Remaining.Cents != -4500 {
		t.Fatalf("remaining = %d, want -4500", st.Remaining.Cents)
	}
	// (345.00 / 15) * 31 = 713.00
	if st.Projected.Cents != 71300 {
		t.Fatalf("projected = %d, want 71300", st.Projected.Cents)
	}
	if st.RemainingVisits != nil {
		t.Fatalf("remaining visits = %v, want nil without a cap", *st.RemainingVisits)
	}
}

func TestEvaluateBudgetRemainingIsExact(t *testing.T) {
	cases := []struct {
		budget, spent int64
	}{
		{30000, 34500},
		{30000, 29999},
		{100, 100},
		{5000, 0},
	}
	now := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	for _, tc := range cases {
		b := Budget{Category: "X", Amount: Money{Cents: tc.budget}}
		var txns []JoinedTransaction
		if tc.spent > 0 {
			txns = []JoinedTransaction{tx("a", NewDate(2025, 5, 3), tc.spent, "X", false, false)}
		}
		st := EvaluateBudget(b, txns, now, false)
		if got, want := st.Remaining.Cents, tc.budget-tc.spent; got != want {
			t.Fatalf("budget=%d spent=%d: remaining=%d, want %d", tc.budget, tc.spent, got, want)
		}
	}
}

func TestEvaluateBudgetVisitCap(t *testing.T) {
	cap := 6
	b := Budget{Category: CategoryRestaurants, Amount: Money{Cents: 20000}, MaxVisits: &cap}
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	txns := []JoinedTransaction{
		tx("a", NewDate(2025, 3, 1), 2500, CategoryRestaurants, false, false),
		tx("a", NewDate(2025, 3, 8), 2500, CategoryRestaurants, false, false),
	}
	st := EvaluateBudget(b, txns, now, false)
	if st.RemainingVisits == nil || *st.RemainingVisits != 4 {
		t.Fatalf("remaining visits = %v, want 4", st.RemainingVisits)
	}
}

func TestProjectMonthEnd(t *testing.T) {
	cases := []struct {
		mtd   int64
		today Date
		want  int64
	}{
		{34500, NewDate(2025, 3, 15), 71300}, // (345/15)*31
		{10000, NewDate(2025, 2, 28), 10000}, // full month elapsed
		{0, NewDate(2025, 3, 15), 0},         // no spend, no projection
		{9999, NewDate(2025, 4, 1), 299970},  // day 1 of a 30-day month
	}
	for _, tc := range cases {
		got := ProjectMonthEnd(Money{Cents: tc.mtd}, tc.today)
		if got.Cents != tc.want {
			t.Fatalf("mtd=%d today=%s: projected=%d, want %d", tc.mtd, tc.today, got.Cents, tc.want)
		}
	}
}

func TestWeeklyEquivalent(t *testing.T) {
	// 300.00 / 4.33 = 69.28 (half-up)
	got := WeeklyEquivalent(Money{Cents: 30000})
	if got.Cents != 6928 {
		t.Fatalf("weekly equivalent = %d, want 6928", got.Cents)
	}
}

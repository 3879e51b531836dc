package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeeksPerMonth converts a monthly limit to its weekly equivalent for
// presentation. A fixed average, not a recomputed calendar quantity.
const WeeksPerMonth = 4.33

// BudgetStatus is the month-to-date evaluation of one budget. Recomputed on
// every read; nothing here is persisted.
type BudgetStatus struct {
	Budget          Budget
	MonthToDate     Money
	VisitCount      int
	Remaining       Money // negative means over budget, a valid state
	RemainingVisits *int  // nil when the budget has no visit cap
	Projected       Money
	WeeklyAmount    Money
}

// EvaluateBudget computes the status of one budget against the
// month-to-date transaction set for its category. txns should already be
// scoped to the user; the evaluation re-filters to the current calendar
// month of "now" and the budget's category, reusing the shared predicate.
func EvaluateBudget(b Budget, txns []JoinedTransaction, now time.Time, sharedOnly bool) BudgetStatus {
	today := DateOf(now)
	month := MonthRange(today.Year(), int(today.Month()))
	mtd, visits := CategorySpend(txns, month, b.Category, sharedOnly)

	status := BudgetStatus{
		Budget:       b,
		MonthToDate:  mtd,
		VisitCount:   visits,
		Remaining:    Money{Cents: b.Amount.Cents - mtd.Cents},
		Projected:    ProjectMonthEnd(mtd, today),
		WeeklyAmount: WeeklyEquivalent(b.Amount),
	}
	if b.MaxVisits != nil {
		rem := *b.MaxVisits - visits
		status.RemainingVisits = &rem
	}
	return status
}

// ProjectMonthEnd extrapolates month-to-date spend linearly to a full-month
// figure: (mtd / dayOfMonth) * daysInMonth, rounded half-up to cents.
// A run-rate estimate for display, not a forecast.
func ProjectMonthEnd(mtd Money, today Date) Money {
	day := today.Day()
	if day <= 0 || mtd.Cents <= 0 {
		return Money{}
	}
	days := DaysInMonth(today.Year(), int(today.Month()))
	projected := mtd.Decimal().
		Div(decimal.NewFromInt(int64(day))).
		Mul(decimal.NewFromInt(int64(days)))
	return Money{Cents: CentsFromDecimal(projected)}
}

// WeeklyEquivalent divides a monthly limit by the average weeks per month.
func WeeklyEquivalent(monthly Money) Money {
	weekly := monthly.Decimal().Div(decimal.NewFromFloat(WeeksPerMonth))
	return Money{Cents: CentsFromDecimal(weekly)}
}

package core

import "time"

// TrendPoint is one month's total for a category, for charting.
type TrendPoint struct {
	Label          string // short month name, e.g. "Mar"
	MonthIndex     int    // 0-11
	Year           int
	Total          Money
	IsCurrentMonth bool
}

// TrendMonths is how many calendar months a trend covers, current included.
const TrendMonths = 3

// Trend computes per-month totals for one category over the current
// calendar month and the two preceding ones, oldest first. Walking backward
// from the current month borrows a year when the index goes negative, so a
// January trend ends with November and December of the previous year on the
// left. No projection or budget overlay here.
func Trend(txns []JoinedTransaction, category string, now time.Time, sharedOnly bool) []TrendPoint {
	today := DateOf(now)
	points := make([]TrendPoint, 0, TrendMonths)

	for back := TrendMonths - 1; back >= 0; back-- {
		year, month := today.Year(), int(today.Month())-back
		for month < 1 {
			month += 12
			year--
		}
		r := MonthRange(year, month)
		total, _ := CategorySpend(txns, r, category, sharedOnly)
		points = append(points, TrendPoint{
			Label:          time.Month(month).String()[:3],
			MonthIndex:     month - 1,
			Year:           year,
			Total:          total,
			IsCurrentMonth: back == 0,
		})
	}
	return points
}

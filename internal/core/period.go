package core

import (
	"fmt"
	"strings"
	"time"
)

// Period selects how a date range is resolved relative to "now".
type Period string

const (
	PeriodCurrentMonth Period = "currentMonth"
	PeriodCurrentWeek  Period = "currentWeek"
	PeriodLast30Days   Period = "last30Days"
	PeriodMonth        Period = "month" // explicit month/year
)

// DateRange is a half-open interval [Start, End): Start is the first day
// included, End is the first day excluded. Every caller in this codebase
// uses this one convention; comparing a half-open range against an
// inclusive one is exactly the bug class this type exists to prevent.
type DateRange struct {
	Start Date
	End   Date
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	return d.In(r.Start, r.End)
}

// Days returns the number of calendar days spanned by the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start.Time).Hours() / 24)
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}

// ParsePeriod validates a period selector tag.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.TrimSpace(s)); p {
	case PeriodCurrentMonth, PeriodCurrentWeek, PeriodLast30Days, PeriodMonth:
		return p, nil
	case "":
		return PeriodCurrentMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// ResolveRange maps a period selector and an injected "now" to a concrete
// date range. month/year are consulted only for PeriodMonth.
func ResolveRange(p Period, now time.Time, month, year int) (DateRange, error) {
	today := DateOf(now)
	switch p {
	case PeriodCurrentMonth:
		return MonthRange(today.Year(), int(today.Month())), nil
	case PeriodCurrentWeek:
		return WeekRange(today), nil
	case PeriodLast30Days:
		// End is tomorrow so that today's transactions are included.
		end := today.AddDays(1)
		return DateRange{Start: end.AddDays(-30), End: end}, nil
	case PeriodMonth:
		if month < 1 || month > 12 {
			return DateRange{}, fmt.Errorf("invalid month %d", month)
		}
		return MonthRange(year, month), nil
	default:
		return DateRange{}, fmt.Errorf("unknown period %q", p)
	}
}

// MonthRange covers one calendar month: day 1 through day 1 of the next
// month, exclusive. time.Date normalizes month 13 into January of the
// following year.
func MonthRange(year, month int) DateRange {
	start := NewDate(year, month, 1)
	return DateRange{Start: start, End: Date{Time: start.AddDate(0, 1, 0)}}
}

// WeekRange covers the Monday-through-Sunday week containing day.
// time.Weekday numbers Sunday as 0, so Sunday is six days past Monday,
// not one day before it.
func WeekRange(day Date) DateRange {
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDays(-offset)
	return DateRange{Start: start, End: start.AddDays(7)}
}

// DaysInMonth returns the number of calendar days in the given month.
// Day 0 of the following month is its last day.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

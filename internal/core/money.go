// Package core holds the pure budget/spend engine: money, calendar-day
// dates, date-range resolution, rollups, budget evaluation and trends.
// Nothing in this package touches a clock, a store or the network.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var centsFactor = decimal.NewFromInt(100)

// ParseAmountToCents converts a decimal amount string to positive cents.
//
// Both dot and comma decimal separators are accepted. Anything past the
// second fractional digit is rounded half-up, matching the rounding applied
// everywhere else in the engine. Zero and negative amounts are rejected;
// sign normalization of provider data happens at ingestion, before this.
func ParseAmountToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(centsFactor).Round(0).IntPart()
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// CentsFromDecimal rounds a decimal amount to cents, half-up.
func CentsFromDecimal(d decimal.Decimal) int64 {
	return d.Mul(centsFactor).Round(0).IntPart()
}

// Decimal returns the amount as an exact two-place decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// StringFixed renders the amount with two decimal places, e.g. "345.00".
func (m Money) StringFixed() string {
	return m.Decimal().StringFixed(2)
}

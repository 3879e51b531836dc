package core

import (
	"errors"
	"strings"
	"time"
)

// Normalized categories assigned during provider import. User-supplied
// categories on recategorization are free text and may fall outside this set.
const (
	CategoryRestaurants    = "RESTAURANTS"
	CategoryGrocery        = "GROCERY"
	CategoryTravel         = "TRAVEL"
	CategoryShopping       = "SHOPPING"
	CategoryEntertainment  = "ENTERTAINMENT"
	CategoryUtilities      = "UTILITIES"
	CategoryHealthcare     = "HEALTHCARE"
	CategoryTransportation = "TRANSPORTATION"
	CategoryOther          = "OTHER"
)

// UncategorizedLabel is substituted for an empty category in rollups.
const UncategorizedLabel = "Uncategorized"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID                string
		UserID            string
		Name              string
		Type              string
		Subtype           string
		IsSharedSource    bool
		ProviderAccountID string
		CreatedAt         time.Time
	}

	Transaction struct {
		ID                    string
		UserID                string
		AccountID             string
		Date                  Date
		Amount                Money // non-negative spend
		MerchantName          string
		Category              string // empty means uncategorized
		IsShared              bool
		ProviderTransactionID string
	}

	// JoinedTransaction carries the owning account's shared-source flag so
	// the aggregator can apply the shared predicate without a second lookup.
	JoinedTransaction struct {
		Transaction
		AccountSharedSource bool
	}

	Budget struct {
		ID         string
		UserID     string
		Category   string
		Amount     Money // monthly limit
		PeriodType string
		MaxVisits  *int
	}

	// RecategorizeDelta is returned by transaction mutations so callers can
	// patch in-memory rollups without a full refetch, and roll back on a
	// failed persist.
	RecategorizeDelta struct {
		TransactionID    string
		Amount           Money
		PreviousCategory string
		NewCategory      string
		PreviousShared   bool
		NewShared        bool
	}
)

// PeriodTypeMonthly is the only budget period currently supported.
const PeriodTypeMonthly = "monthly"

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidVisits   = errors.New("invalid max visits")
	ErrInvalidPeriod   = errors.New("invalid period type")
	ErrEmptyAccountRef = errors.New("empty account reference")
)

// NormalizedCategories lists the closed set used by the provider mapping.
var NormalizedCategories = []string{
	CategoryRestaurants,
	CategoryGrocery,
	CategoryTravel,
	CategoryShopping,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryTransportation,
	CategoryOther,
}

// IsNormalizedCategory reports whether c belongs to the closed import set.
func IsNormalizedCategory(c string) bool {
	for _, n := range NormalizedCategories {
		if c == n {
			return true
		}
	}
	return false
}

// NewDate creates a date-only value at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO calendar day (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD. Dates are stored and compared in
// this form so no timezone arithmetic can shift them across a day boundary.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// In reports whether d falls inside the half-open range [start, end).
func (d Date) In(start, end Date) bool {
	return !d.Before(start.Time) && d.Before(end.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccountRef
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.PeriodType != "" && b.PeriodType != PeriodTypeMonthly {
		return ErrInvalidPeriod
	}
	if b.MaxVisits != nil && *b.MaxVisits <= 0 {
		return ErrInvalidVisits
	}
	return nil
}

package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

// primaryCategories maps the vendor's hierarchical primary category onto the
// normalized set. Detailed codes are consulted first so grocery spend is not
// swallowed by the FOOD_AND_DRINK bucket.
var primaryCategories = map[string]string{
	"FOOD_AND_DRINK":      core.CategoryRestaurants,
	"TRAVEL":              core.CategoryTravel,
	"GENERAL_MERCHANDISE": core.CategoryShopping,
	"ENTERTAINMENT":       core.CategoryEntertainment,
	"RENT_AND_UTILITIES":  core.CategoryUtilities,
	"MEDICAL":             core.CategoryHealthcare,
	"TRANSPORTATION":      core.CategoryTransportation,
}

var detailedCategories = map[string]string{
	"FOOD_AND_DRINK_GROCERIES": core.CategoryGrocery,
}

// legacyCategories maps entries of the vendor's deprecated flat category
// list, which older cached payloads still carry.
var legacyCategories = map[string]string{
	"restaurants":    core.CategoryRestaurants,
	"food and drink": core.CategoryRestaurants,
	"groceries":      core.CategoryGrocery,
	"supermarkets":   core.CategoryGrocery,
	"travel":         core.CategoryTravel,
	"shops":          core.CategoryShopping,
	"entertainment":  core.CategoryEntertainment,
	"recreation":     core.CategoryEntertainment,
	"utilities":      core.CategoryUtilities,
	"service":        core.CategoryUtilities,
	"healthcare":     core.CategoryHealthcare,
	"medical":        core.CategoryHealthcare,
	"transportation": core.CategoryTransportation,
	"transfer":       core.CategoryOther,
}

// MapCategory normalizes a vendor category onto the closed import set.
// The hierarchical category wins; the flat list is a fallback for payloads
// that predate it. Anything unrecognized becomes OTHER.
func MapCategory(c RawCategory, legacy []string) string {
	if mapped, ok := detailedCategories[strings.ToUpper(strings.TrimSpace(c.Detailed))]; ok {
		return mapped
	}
	if mapped, ok := primaryCategories[strings.ToUpper(strings.TrimSpace(c.Primary))]; ok {
		return mapped
	}
	for _, l := range legacy {
		if mapped, ok := legacyCategories[strings.ToLower(strings.TrimSpace(l))]; ok {
			return mapped
		}
	}
	return core.CategoryOther
}

// AmountToCents converts the vendor's signed decimal amount to cents,
// rounding half-up at two decimal places. The sign is preserved: positive
// is spend, negative is a refund or inflow.
func AmountToCents(amount json.Number) (int64, error) {
	d, err := decimal.NewFromString(amount.String())
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// ToAccount converts a vendor account to the domain record. The caller
// assigns the internal id on first upsert.
func ToAccount(userID string, raw RawAccount) core.Account {
	return core.Account{
		UserID:            userID,
		Name:              raw.Name,
		Type:              raw.Type,
		Subtype:           raw.Subtype,
		ProviderAccountID: raw.AccountID,
	}
}

// ToTransaction converts a vendor transaction to the domain record.
// accountID is the internal id of the already-upserted owning account.
// The second return is false for inflows, which the ledger does not track.
func ToTransaction(userID, accountID string, raw RawTransaction) (core.Transaction, bool, error) {
	cents, err := AmountToCents(raw.Amount)
	if err != nil {
		return core.Transaction{}, false, err
	}
	if cents < 0 {
		return core.Transaction{}, false, nil
	}
	date, err := core.ParseDate(raw.Date)
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("transaction %s: bad date %q", raw.TransactionID, raw.Date)
	}
	return core.Transaction{
		UserID:                userID,
		AccountID:             accountID,
		Date:                  date,
		Amount:                core.Money{Cents: cents},
		MerchantName:          raw.MerchantName,
		Category:              MapCategory(raw.Category, raw.Categories),
		ProviderTransactionID: raw.TransactionID,
	}, true, nil
}

package core

import "sort"

type (
	// CategoryRollup is a grouped sum and count for one category label.
	CategoryRollup struct {
		Category string
		Total    Money
		Count    int
	}

	// AccountSummary groups a range's transactions under one account.
	AccountSummary struct {
		AccountID    string
		Total        Money
		Count        int
		Transactions []JoinedTransaction // sorted date-descending
	}

	// Aggregation is the full rollup for one date range and filter set.
	// sum(ByAccount.Total) == sum(ByCategory.Total) == Total always holds,
	// since every cent is counted exactly once on each axis.
	Aggregation struct {
		Range      DateRange
		Total      Money
		Count      int
		ByAccount  []AccountSummary
		ByCategory []CategoryRollup
		// Categories is the distinct sorted set of labels present, for
		// populating selectors.
		Categories []string
	}
)

// AggregateOptions controls filtering inside Aggregate.
type AggregateOptions struct {
	// SharedOnly retains only transactions that are shared, either by their
	// own flag or because the owning account is a shared source.
	SharedOnly bool
}

// IsSharedSpend applies the shared-expense predicate.
func IsSharedSpend(t JoinedTransaction) bool {
	return t.AccountSharedSource || t.IsShared
}

// CategoryLabel maps an empty category to the Uncategorized label.
func CategoryLabel(category string) string {
	if category == "" {
		return UncategorizedLabel
	}
	return category
}

// Aggregate filters txns to the range, applies the shared predicate, and
// rolls the survivors up by account and by category. An empty input yields
// an all-zero Aggregation, never an error.
func Aggregate(txns []JoinedTransaction, r DateRange, opts AggregateOptions) Aggregation {
	agg := Aggregation{Range: r}

	byAccount := make(map[string]*AccountSummary)
	byCategory := make(map[string]*CategoryRollup)
	var accountOrder []string

	for _, t := range txns {
		if !r.Contains(t.Date) {
			continue
		}
		if opts.SharedOnly && !IsSharedSpend(t) {
			continue
		}

		agg.Total.Cents += t.Amount.Cents
		agg.Count++

		acc, ok := byAccount[t.AccountID]
		if !ok {
			acc = &AccountSummary{AccountID: t.AccountID}
			byAccount[t.AccountID] = acc
			accountOrder = append(accountOrder, t.AccountID)
		}
		acc.Total.Cents += t.Amount.Cents
		acc.Count++
		acc.Transactions = append(acc.Transactions, t)

		label := CategoryLabel(t.Category)
		cat, ok := byCategory[label]
		if !ok {
			cat = &CategoryRollup{Category: label}
			byCategory[label] = cat
		}
		cat.Total.Cents += t.Amount.Cents
		cat.Count++
	}

	sort.Strings(accountOrder)
	for _, id := range accountOrder {
		acc := byAccount[id]
		sort.SliceStable(acc.Transactions, func(i, j int) bool {
			return acc.Transactions[i].Date.After(acc.Transactions[j].Date.Time)
		})
		agg.ByAccount = append(agg.ByAccount, *acc)
	}

	for label, cat := range byCategory {
		agg.ByCategory = append(agg.ByCategory, *cat)
		agg.Categories = append(agg.Categories, label)
	}
	// Largest spend first; name breaks ties so output is deterministic.
	sort.Slice(agg.ByCategory, func(i, j int) bool {
		a, b := agg.ByCategory[i], agg.ByCategory[j]
		if a.Total.Cents != b.Total.Cents {
			return a.Total.Cents > b.Total.Cents
		}
		return a.Category < b.Category
	})
	sort.Strings(agg.Categories)

	return agg
}

// CategorySpend sums the amounts and counts the rows for one category label
// within the range, honoring the shared predicate. Used by the budget
// evaluator, which needs a single category rather than the full rollup.
func CategorySpend(txns []JoinedTransaction, r DateRange, category string, sharedOnly bool) (Money, int) {
	var total Money
	count := 0
	for _, t := range txns {
		if !r.Contains(t.Date) {
			continue
		}
		if sharedOnly && !IsSharedSpend(t) {
			continue
		}
		if CategoryLabel(t.Category) != CategoryLabel(category) {
			continue
		}
		total.Cents += t.Amount.Cents
		count++
	}
	return total, count
}

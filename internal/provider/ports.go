// Package provider talks to the external account-aggregation vendor. It
// exposes a small client port so the worker and its tests never depend on
// the concrete HTTP implementation.
package provider

import (
	"context"
	"encoding/json"

	"budgeteer/internal/core"
)

// Ports for the aggregation vendor.
type (
	AccountFetcher interface {
		FetchAccounts(ctx context.Context, userID string) ([]RawAccount, error)
	}

	TransactionFetcher interface {
		FetchTransactions(ctx context.Context, userID string, r core.DateRange) ([]RawTransaction, error)
	}

	Client interface {
		AccountFetcher
		TransactionFetcher
	}
)

// RawAccount is the vendor's account payload as it comes off the wire.
type RawAccount struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
}

// RawCategory is the vendor's hierarchical category. Older payloads omit it
// and carry only the flat Categories list on the transaction.
type RawCategory struct {
	Primary  string `json:"primary"`
	Detailed string `json:"detailed"`
}

// RawTransaction is the vendor's transaction payload. Amount is a signed
// decimal where spend is positive and refunds/inflows are negative.
type RawTransaction struct {
	TransactionID string      `json:"transaction_id"`
	AccountID     string      `json:"account_id"`
	Date          string      `json:"date"`
	Amount        json.Number `json:"amount"`
	MerchantName  string      `json:"merchant_name"`
	Category      RawCategory `json:"personal_finance_category"`
	Categories    []string    `json:"category"`
}

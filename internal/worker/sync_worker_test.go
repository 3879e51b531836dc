package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"budgeteer/internal/core"
	"budgeteer/internal/ledger"
	"budgeteer/internal/ledger/memory"
	"budgeteer/internal/provider"
)

func transactionFilterAll(userID string) ledger.TransactionFilter {
	return ledger.TransactionFilter{UserID: userID}
}

type fakeClient struct {
	accounts     []provider.RawAccount
	transactions []provider.RawTransaction
	lastRange    core.DateRange
}

func (f *fakeClient) FetchAccounts(_ context.Context, _ string) ([]provider.RawAccount, error) {
	return f.accounts, nil
}

func (f *fakeClient) FetchTransactions(_ context.Context, _ string, r core.DateRange) ([]provider.RawTransaction, error) {
	f.lastRange = r
	return f.transactions, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
}

func TestHandleSyncRequestIngestsAndMaps(t *testing.T) {
	store := memory.New()
	client := &fakeClient{
		accounts: []provider.RawAccount{
			{AccountID: "prov-acc-1", Name: "Checking", Type: "depository", Subtype: "checking"},
		},
		transactions: []provider.RawTransaction{
			{
				TransactionID: "prov-tx-1",
				AccountID:     "prov-acc-1",
				Date:          "2025-03-10",
				Amount:        json.Number("45.50"),
				MerchantName:  "Corner Market",
				Category:      provider.RawCategory{Primary: "FOOD_AND_DRINK", Detailed: "FOOD_AND_DRINK_GROCERIES"},
			},
			{
				TransactionID: "prov-tx-refund",
				AccountID:     "prov-acc-1",
				Date:          "2025-03-11",
				Amount:        json.Number("-20.00"),
			},
			{
				TransactionID: "prov-tx-orphan",
				AccountID:     "prov-acc-unknown",
				Date:          "2025-03-11",
				Amount:        json.Number("5.00"),
			},
		},
	}

	w := NewSyncWorker(store, client).WithClock(fixedNow)
	ctx := context.Background()

	if err := w.HandleSyncRequest(ctx, "user-1"); err != nil {
		t.Fatalf("HandleSyncRequest() error: %v", err)
	}

	accounts, err := store.ListAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListAccounts() error: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ProviderAccountID != "prov-acc-1" {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}

	txns, err := store.ListTransactions(ctx, transactionFilterAll("user-1"))
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("len(txns) = %d, want 1 (refund and orphan skipped)", len(txns))
	}
	if txns[0].Category != core.CategoryGrocery {
		t.Errorf("Category = %q, want %q", txns[0].Category, core.CategoryGrocery)
	}
	if txns[0].AccountID != accounts[0].ID {
		t.Errorf("AccountID = %q, want internal id %q", txns[0].AccountID, accounts[0].ID)
	}
	if txns[0].Amount.Cents != 4550 {
		t.Errorf("Amount.Cents = %d, want 4550", txns[0].Amount.Cents)
	}
}

func TestHandleSyncRequestIsIdempotent(t *testing.T) {
	store := memory.New()
	client := &fakeClient{
		accounts: []provider.RawAccount{
			{AccountID: "prov-acc-1", Name: "Checking"},
		},
		transactions: []provider.RawTransaction{
			{TransactionID: "prov-tx-1", AccountID: "prov-acc-1", Date: "2025-03-10", Amount: json.Number("10.00")},
		},
	}

	w := NewSyncWorker(store, client).WithClock(fixedNow)
	ctx := context.Background()

	if err := w.HandleSyncRequest(ctx, "user-1"); err != nil {
		t.Fatalf("first sync error: %v", err)
	}
	if err := w.HandleSyncRequest(ctx, "user-1"); err != nil {
		t.Fatalf("second sync error: %v", err)
	}

	txns, err := store.ListTransactions(ctx, transactionFilterAll("user-1"))
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("len(txns) = %d after duplicate sync, want 1", len(txns))
	}
}

func TestHandleSyncRequestWindow(t *testing.T) {
	store := memory.New()
	client := &fakeClient{}
	w := NewSyncWorker(store, client).WithClock(fixedNow)
	ctx := context.Background()

	// No accounts yet: the full initial window applies.
	if err := w.HandleSyncRequest(ctx, "user-1"); err != nil {
		t.Fatalf("HandleSyncRequest() error: %v", err)
	}
	if got := client.lastRange.Days(); got != initialWindowDays {
		t.Errorf("first sync window = %d days, want %d", got, initialWindowDays)
	}
	if client.lastRange.End.String() != "2025-03-16" {
		t.Errorf("window end = %s, want 2025-03-16 (exclusive tomorrow)", client.lastRange.End)
	}

	// With an account on file, the routine window applies.
	client.accounts = []provider.RawAccount{{AccountID: "prov-acc-1", Name: "Checking"}}
	if err := w.HandleSyncRequest(ctx, "user-1"); err != nil {
		t.Fatalf("HandleSyncRequest() error: %v", err)
	}
	if err := w.HandleSyncRequest(ctx, "user-1"); err != nil {
		t.Fatalf("HandleSyncRequest() error: %v", err)
	}
	if got := client.lastRange.Days(); got != syncWindowDays {
		t.Errorf("routine sync window = %d days, want %d", got, syncWindowDays)
	}
}

func TestHandleSyncRequestResyncsShared(t *testing.T) {
	store := memory.New()
	store.Seed(
		[]core.Account{{ID: "acc-1", UserID: "user-1", Name: "Joint", ProviderAccountID: "prov-acc-1", IsSharedSource: true}},
		nil, nil,
	)
	client := &fakeClient{
		accounts: []provider.RawAccount{
			{AccountID: "prov-acc-1", Name: "Joint"},
		},
		transactions: []provider.RawTransaction{
			{TransactionID: "prov-tx-1", AccountID: "prov-acc-1", Date: "2025-03-10", Amount: json.Number("10.00")},
			{TransactionID: "prov-tx-2", AccountID: "prov-acc-1", Date: "2025-03-11", Amount: json.Number("20.00")},
		},
	}

	w := NewSyncWorker(store, client).WithClock(fixedNow)
	ctx := context.Background()

	if err := w.HandleSyncRequest(ctx, "user-1"); err != nil {
		t.Fatalf("HandleSyncRequest() error: %v", err)
	}

	txns, err := store.ListTransactions(ctx, transactionFilterAll("user-1"))
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("len(txns) = %d, want 2", len(txns))
	}
	for _, txn := range txns {
		if !txn.IsShared {
			t.Errorf("transaction %s on shared-source account not marked shared", txn.ID)
		}
	}
}

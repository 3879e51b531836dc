package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"budgeteer/internal/core"
)

func TestFetchTransactionsSendsInclusiveEndDate(t *testing.T) {
	var got transactionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/get" {
			t.Errorf("path = %s, want /transactions/get", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(transactionsResponse{Transactions: []RawTransaction{
			{TransactionID: "tx-1", Amount: json.Number("10.00"), Date: "2025-03-01"},
		}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	r := core.DateRange{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 4, 1)}

	txns, err := c.FetchTransactions(context.Background(), "user-1", r)
	if err != nil {
		t.Fatalf("FetchTransactions() error: %v", err)
	}
	if len(txns) != 1 || txns[0].TransactionID != "tx-1" {
		t.Fatalf("unexpected transactions: %+v", txns)
	}
	if got.StartDate != "2025-03-01" {
		t.Errorf("StartDate = %s, want 2025-03-01", got.StartDate)
	}
	if got.EndDate != "2025-03-31" {
		t.Errorf("EndDate = %s, want 2025-03-31 (half-open upper bound pulled back)", got.EndDate)
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %s, want user-1", got.UserID)
	}
}

func TestFetchAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(accountsResponse{Accounts: []RawAccount{
			{AccountID: "prov-acc-1", Name: "Joint Checking", Type: "depository", Subtype: "checking"},
		}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	accounts, err := c.FetchAccounts(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FetchAccounts() error: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Name != "Joint Checking" {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}
}

func TestFetchAccountsSurfacesVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "bad")
	if _, err := c.FetchAccounts(context.Background(), "user-1"); err == nil {
		t.Fatal("FetchAccounts() expected error on 401")
	}
}

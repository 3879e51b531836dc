package provider

import (
	"encoding/json"
	"testing"

	"budgeteer/internal/core"
)

func TestMapCategory(t *testing.T) {
	tests := []struct {
		name     string
		category RawCategory
		legacy   []string
		want     string
	}{
		{
			name:     "detailed grocery wins over food primary",
			category: RawCategory{Primary: "FOOD_AND_DRINK", Detailed: "FOOD_AND_DRINK_GROCERIES"},
			want:     core.CategoryGrocery,
		},
		{
			name:     "food primary maps to restaurants",
			category: RawCategory{Primary: "FOOD_AND_DRINK", Detailed: "FOOD_AND_DRINK_FAST_FOOD"},
			want:     core.CategoryRestaurants,
		},
		{
			name:     "primary is case insensitive",
			category: RawCategory{Primary: "travel"},
			want:     core.CategoryTravel,
		},
		{
			name:   "legacy list used when hierarchy missing",
			legacy: []string{"Shops", "Clothing"},
			want:   core.CategoryShopping,
		},
		{
			name:     "hierarchy wins over legacy list",
			category: RawCategory{Primary: "MEDICAL"},
			legacy:   []string{"Travel"},
			want:     core.CategoryHealthcare,
		},
		{
			name:     "unknown everything falls back to other",
			category: RawCategory{Primary: "INCOME"},
			legacy:   []string{"Payroll"},
			want:     core.CategoryOther,
		},
		{
			name: "empty payload falls back to other",
			want: core.CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapCategory(tt.category, tt.legacy)
			if got != tt.want {
				t.Fatalf("MapCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAmountToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "12.34", want: 1234},
		{in: "12", want: 1200},
		{in: "0.005", want: 1},
		{in: "12.345", want: 1235},
		{in: "-45.67", want: -4567},
		{in: "0", want: 0},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := AmountToCents(json.Number(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("AmountToCents(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("AmountToCents(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("AmountToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToTransaction(t *testing.T) {
	raw := RawTransaction{
		TransactionID: "prov-tx-1",
		AccountID:     "prov-acc-1",
		Date:          "2025-03-12",
		Amount:        json.Number("45.50"),
		MerchantName:  "Corner Market",
		Category:      RawCategory{Primary: "FOOD_AND_DRINK", Detailed: "FOOD_AND_DRINK_GROCERIES"},
	}

	txn, ok, err := ToTransaction("user-1", "acc-internal", raw)
	if err != nil {
		t.Fatalf("ToTransaction() unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("ToTransaction() skipped a spend transaction")
	}
	if txn.Amount.Cents != 4550 {
		t.Errorf("Amount.Cents = %d, want 4550", txn.Amount.Cents)
	}
	if txn.Category != core.CategoryGrocery {
		t.Errorf("Category = %q, want %q", txn.Category, core.CategoryGrocery)
	}
	if txn.AccountID != "acc-internal" {
		t.Errorf("AccountID = %q, want acc-internal", txn.AccountID)
	}
	if txn.Date.String() != "2025-03-12" {
		t.Errorf("Date = %s, want 2025-03-12", txn.Date)
	}
	if txn.ProviderTransactionID != "prov-tx-1" {
		t.Errorf("ProviderTransactionID = %q", txn.ProviderTransactionID)
	}
}

func TestToTransactionSkipsInflows(t *testing.T) {
	raw := RawTransaction{
		TransactionID: "prov-tx-2",
		Date:          "2025-03-12",
		Amount:        json.Number("-120.00"),
	}

	_, ok, err := ToTransaction("user-1", "acc-internal", raw)
	if err != nil {
		t.Fatalf("ToTransaction() unexpected error: %v", err)
	}
	if ok {
		t.Fatal("ToTransaction() kept an inflow, want skip")
	}
}

func TestToTransactionRejectsBadDate(t *testing.T) {
	raw := RawTransaction{
		TransactionID: "prov-tx-3",
		Date:          "12/03/2025",
		Amount:        json.Number("10.00"),
	}

	if _, _, err := ToTransaction("user-1", "acc-internal", raw); err == nil {
		t.Fatal("ToTransaction() accepted a malformed date")
	}
}

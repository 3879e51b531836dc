// Package memory is an in-memory ledger.Store used by tests and the
// "memory" backend for local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgeteer/internal/core"
	"budgeteer/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	accounts     []core.Account
	transactions []core.Transaction
	budgets      []core.Budget
}

func New() *Store {
	return &Store{}
}

// Seed loads fixture records, replacing generated ids with fresh uuids when
// absent. Intended for tests and the demo backend.
func (s *Store) Seed(accounts []core.Account, txns []core.Transaction, budgets []core.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		s.accounts = append(s.accounts, a)
	}
	for _, t := range txns {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		s.transactions = append(s.transactions, t)
	}
	for _, b := range budgets {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		s.budgets = append(s.budgets, b)
	}
}

func (s *Store) ListTransactions(_ context.Context, f ledger.TransactionFilter) ([]core.JoinedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shared := make(map[string]bool, len(s.accounts))
	for _, a := range s.accounts {
		shared[a.ID] = a.IsSharedSource
	}

	var out []core.JoinedTransaction
	for _, t := range s.transactions {
		if t.UserID != f.UserID {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && !t.Date.Before(f.To.Time) {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Uncategorized && t.Category != "" {
			continue
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			continue
		}
		out = append(out, core.JoinedTransaction{Transaction: t, AccountSharedSource: shared[t.AccountID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date.Time)
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.JoinedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			return core.JoinedTransaction{Transaction: t, AccountSharedSource: s.sharedSourceLocked(t.AccountID)}, nil
		}
	}
	return core.JoinedTransaction{}, ledger.ErrNotFound
}

func (s *Store) UpdateTransaction(_ context.Context, userID, id string, patch ledger.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		t := &s.transactions[i]
		if t.ID != id || t.UserID != userID {
			continue
		}
		if patch.Category != nil {
			t.Category = *patch.Category
		}
		if patch.IsShared != nil {
			t.IsShared = *patch.IsShared
		}
		return *t, nil
	}
	return core.Transaction{}, ledger.ErrNotFound
}

func (s *Store) IngestTransactions(_ context.Context, userID string, txns []core.Transaction) (ledger.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]struct{})
	for _, t := range s.transactions {
		if t.UserID == userID {
			existing[t.ProviderTransactionID] = struct{}{}
		}
	}

	var res ledger.IngestResult
	for _, t := range txns {
		if _, dup := existing[t.ProviderTransactionID]; dup {
			res.Skipped++
			continue
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.UserID = userID
		s.transactions = append(s.transactions, t)
		existing[t.ProviderTransactionID] = struct{}{}
		res.Inserted++
	}
	return res, nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, userID, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return core.Account{}, ledger.ErrNotFound
}

func (s *Store) UpsertAccount(_ context.Context, account core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		a := &s.accounts[i]
		if a.UserID == account.UserID && a.ProviderAccountID == account.ProviderAccountID {
			a.Name = account.Name
			a.Type = account.Type
			a.Subtype = account.Subtype
			return *a, nil
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	s.accounts = append(s.accounts, account)
	return account, nil
}

func (s *Store) UpdateAccount(_ context.Context, userID, id string, patch ledger.AccountPatch) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		a := &s.accounts[i]
		if a.ID != id || a.UserID != userID {
			continue
		}
		if patch.IsSharedSource != nil {
			a.IsSharedSource = *patch.IsSharedSource
		}
		return *a, nil
	}
	return core.Account{}, ledger.ErrNotFound
}

func (s *Store) BulkMarkSharedByAccounts(_ context.Context, userID string, accountIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		ids[id] = struct{}{}
	}
	var affected int64
	for i := range s.transactions {
		t := &s.transactions[i]
		if t.UserID != userID || t.IsShared {
			continue
		}
		if _, ok := ids[t.AccountID]; !ok {
			continue
		}
		t.IsShared = true
		affected++
	}
	return affected, nil
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			return b, nil
		}
	}
	return core.Budget{}, ledger.ErrNotFound
}

func (s *Store) UpsertBudget(_ context.Context, budget core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		b := &s.budgets[i]
		if b.UserID == budget.UserID && strings.EqualFold(b.Category, budget.Category) {
			b.Amount = budget.Amount
			b.MaxVisits = budget.MaxVisits
			return *b, nil
		}
	}
	if budget.ID == "" {
		budget.ID = uuid.NewString()
	}
	if budget.PeriodType == "" {
		budget.PeriodType = core.PeriodTypeMonthly
	}
	s.budgets = append(s.budgets, budget)
	return budget, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.UserID == userID && strings.EqualFold(b.Category, category) {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return nil
		}
	}
	// Absent budget: still success.
	return nil
}

func (s *Store) sharedSourceLocked(accountID string) bool {
	for _, a := range s.accounts {
		if a.ID == accountID {
			return a.IsSharedSource
		}
	}
	return false
}

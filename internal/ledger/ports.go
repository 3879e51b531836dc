// Package ledger wires the pure core engine to a record store. It defines
// the outbound ports and the service the HTTP layer and worker call into.
package ledger

import (
	"context"
	"errors"

	"budgeteer/internal/core"
)

// ErrNotFound is returned when a record does not exist or is not owned by
// the requesting user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("record not found")

type (
	// TransactionFilter scopes a transaction read. From/To are half-open
	// [From, To). Category and AccountID are optional narrowing filters.
	// Uncategorized selects rows with an empty category; rollups present
	// those under a substitute label that no stored row ever carries, so
	// the label cannot be matched through Category.
	TransactionFilter struct {
		UserID        string
		From          core.Date
		To            core.Date
		Category      string
		AccountID     string
		Uncategorized bool
	}

	// TransactionPatch mutates category and/or shared flag. Nil fields are
	// left untouched.
	TransactionPatch struct {
		Category *string
		IsShared *bool
	}

	AccountPatch struct {
		IsSharedSource *bool
	}

	// IngestResult reports an idempotent import: rows written and rows
	// skipped because the provider transaction was already present.
	IngestResult struct {
		Inserted int
		Skipped  int
	}
)

// Store is the record-store port. Every operation is scoped by the owning
// user; implementations must never return another user's rows.
type Store interface {
	ListTransactions(ctx context.Context, f TransactionFilter) ([]core.JoinedTransaction, error)
	GetTransaction(ctx context.Context, userID, id string) (core.JoinedTransaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) (core.Transaction, error)
	IngestTransactions(ctx context.Context, userID string, txns []core.Transaction) (IngestResult, error)

	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	GetAccount(ctx context.Context, userID, id string) (core.Account, error)
	UpsertAccount(ctx context.Context, account core.Account) (core.Account, error)
	UpdateAccount(ctx context.Context, userID, id string, patch AccountPatch) (core.Account, error)
	BulkMarkSharedByAccounts(ctx context.Context, userID string, accountIDs []string) (int64, error)

	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	UpsertBudget(ctx context.Context, budget core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, category string) error
}

// SyncPublisher enqueues a provider-sync request for asynchronous handling.
type SyncPublisher interface {
	PublishSyncRequest(ctx context.Context, userID string) error
}

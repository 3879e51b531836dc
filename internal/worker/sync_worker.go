// Package worker runs provider syncs: it pulls accounts and transactions
// from the aggregation vendor and lands them in the record store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgeteer/internal/core"
	"budgeteer/internal/ledger"
	"budgeteer/internal/provider"
)

const (
	// syncWindowDays is the lookback for a routine sync. The ingest is
	// idempotent, so overlapping windows only bump the skip count.
	syncWindowDays = 30

	// initialWindowDays is the lookback when a user has no accounts yet.
	initialWindowDays = 730
)

// SyncWorker handles one provider-sync request end to end.
type SyncWorker struct {
	store  ledger.Store
	client provider.Client
	now    func() time.Time
}

func NewSyncWorker(store ledger.Store, client provider.Client) *SyncWorker {
	return &SyncWorker{
		store:  store,
		client: client,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (w *SyncWorker) WithClock(now func() time.Time) *SyncWorker {
	w.now = now
	return w
}

// HandleSyncRequest fetches the user's accounts and recent transactions
// from the vendor, ingests them idempotently, then re-applies the shared
// flag for shared-source accounts.
func (w *SyncWorker) HandleSyncRequest(ctx context.Context, userID string) error {
	slog.InfoContext(ctx, "Starting provider sync", "user_id", userID)

	existing, err := w.store.ListAccounts(ctx, userID)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	firstSync := len(existing) == 0

	byProviderID, err := w.syncAccounts(ctx, userID)
	if err != nil {
		return err
	}

	result, err := w.syncTransactions(ctx, userID, byProviderID, firstSync)
	if err != nil {
		return err
	}

	affected, err := w.resyncShared(ctx, userID)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Provider sync completed",
		"user_id", userID,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"shared_resynced", affected)

	return nil
}

// syncAccounts upserts the vendor's accounts and returns a map from the
// vendor's account id to the internal one.
func (w *SyncWorker) syncAccounts(ctx context.Context, userID string) (map[string]string, error) {
	raws, err := w.client.FetchAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}

	byProviderID := make(map[string]string, len(raws))
	for _, raw := range raws {
		account, err := w.store.UpsertAccount(ctx, provider.ToAccount(userID, raw))
		if err != nil {
			return nil, fmt.Errorf("upsert account %s: %w", raw.AccountID, err)
		}
		byProviderID[raw.AccountID] = account.ID
	}

	slog.InfoContext(ctx, "Accounts synced", "user_id", userID, "count", len(raws))
	return byProviderID, nil
}

func (w *SyncWorker) syncTransactions(ctx context.Context, userID string, byProviderID map[string]string, firstSync bool) (ledger.IngestResult, error) {
	window := syncWindowDays
	if firstSync {
		window = initialWindowDays
	}
	end := core.DateOf(w.now()).AddDays(1)
	r := core.DateRange{Start: end.AddDays(-window), End: end}

	raws, err := w.client.FetchTransactions(ctx, userID, r)
	if err != nil {
		return ledger.IngestResult{}, fmt.Errorf("fetch transactions: %w", err)
	}

	txns := make([]core.Transaction, 0, len(raws))
	for _, raw := range raws {
		accountID, ok := byProviderID[raw.AccountID]
		if !ok {
			slog.WarnContext(ctx, "Skipping transaction for unknown account",
				"user_id", userID,
				"provider_transaction_id", raw.TransactionID,
				"provider_account_id", raw.AccountID)
			continue
		}

		txn, keep, err := provider.ToTransaction(userID, accountID, raw)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed transaction",
				"user_id", userID,
				"provider_transaction_id", raw.TransactionID,
				"error", err)
			continue
		}
		if !keep {
			continue
		}
		txns = append(txns, txn)
	}

	result, err := w.store.IngestTransactions(ctx, userID, txns)
	if err != nil {
		return ledger.IngestResult{}, fmt.Errorf("ingest transactions: %w", err)
	}
	return result, nil
}

// resyncShared marks every transaction on a shared-source account as shared.
func (w *SyncWorker) resyncShared(ctx context.Context, userID string) (int64, error) {
	accounts, err := w.store.ListAccounts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list accounts for resync: %w", err)
	}

	var sharedIDs []string
	for _, a := range accounts {
		if a.IsSharedSource {
			sharedIDs = append(sharedIDs, a.ID)
		}
	}
	if len(sharedIDs) == 0 {
		return 0, nil
	}

	affected, err := w.store.BulkMarkSharedByAccounts(ctx, userID, sharedIDs)
	if err != nil {
		return 0, fmt.Errorf("bulk mark shared: %w", err)
	}
	return affected, nil
}

// Package storage implements ledger.Store on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"budgeteer/internal/core"
	"budgeteer/internal/ledger"
)

type Repository struct {
	db      *sql.DB
	queries *Queries
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, queries: New(db)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.JoinedTransaction, error) {
	q := TransactionQuery{
		UserID:        f.UserID,
		Category:      f.Category,
		AccountID:     f.AccountID,
		Uncategorized: f.Uncategorized,
	}
	if !f.From.IsZero() {
		q.DateFrom = f.From.String()
	}
	if !f.To.IsZero() {
		q.DateTo = f.To.String()
	}
	rows, err := r.queries.ListTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.JoinedTransaction, 0, len(rows))
	for _, row := range rows {
		t, err := joinedFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.JoinedTransaction, error) {
	row, err := r.queries.GetTransaction(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.JoinedTransaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.JoinedTransaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return joinedFromRow(row)
}

func (r *Repository) UpdateTransaction(ctx context.Context, userID, id string, patch ledger.TransactionPatch) (core.Transaction, error) {
	affected, err := r.queries.UpdateTransaction(ctx, userID, id, patch.Category, patch.IsShared)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if affected == 0 {
		return core.Transaction{}, ledger.ErrNotFound
	}
	row, err := r.queries.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("reread transaction: %w", err)
	}
	joined, err := joinedFromRow(row)
	if err != nil {
		return core.Transaction{}, err
	}
	return joined.Transaction, nil
}

func (r *Repository) IngestTransactions(ctx context.Context, userID string, txns []core.Transaction) (ledger.IngestResult, error) {
	var res ledger.IngestResult
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return res, fmt.Errorf("invalid transaction %q: %w", t.ProviderTransactionID, err)
		}
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		inserted, err := r.queries.InsertTransactionIgnoreDuplicate(ctx, TransactionRow{
			ID:                    id,
			UserID:                userID,
			AccountID:             t.AccountID,
			TxnDate:               t.Date.String(),
			AmountCents:           t.Amount.Cents,
			MerchantName:          t.MerchantName,
			Category:              t.Category,
			IsShared:              t.IsShared,
			ProviderTransactionID: t.ProviderTransactionID,
		})
		if err != nil {
			return res, fmt.Errorf("insert transaction: %w", err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}
	slog.InfoContext(ctx, "Ingested transactions",
		"user_id", userID,
		"inserted", res.Inserted,
		"skipped", res.Skipped)
	return res, nil
}

func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, accountFromRow(row))
	}
	return out, nil
}

func (r *Repository) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return accountFromRow(row), nil
}

func (r *Repository) UpsertAccount(ctx context.Context, account core.Account) (core.Account, error) {
	id := account.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := account.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	row, err := r.queries.UpsertAccount(ctx, AccountRow{
		ID:                id,
		UserID:            account.UserID,
		Name:              account.Name,
		Type:              account.Type,
		Subtype:           account.Subtype,
		IsSharedSource:    account.IsSharedSource,
		ProviderAccountID: account.ProviderAccountID,
		CreatedAt:         created,
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("upsert account: %w", err)
	}
	return accountFromRow(row), nil
}

func (r *Repository) UpdateAccount(ctx context.Context, userID, id string, patch ledger.AccountPatch) (core.Account, error) {
	if patch.IsSharedSource != nil {
		affected, err := r.queries.UpdateAccountSharedSource(ctx, userID, id, *patch.IsSharedSource)
		if err != nil {
			return core.Account{}, fmt.Errorf("update account: %w", err)
		}
		if affected == 0 {
			return core.Account{}, ledger.ErrNotFound
		}
	}
	return r.GetAccount(ctx, userID, id)
}

func (r *Repository) BulkMarkSharedByAccounts(ctx context.Context, userID string, accountIDs []string) (int64, error) {
	affected, err := r.queries.BulkMarkShared(ctx, userID, accountIDs)
	if err != nil {
		return 0, fmt.Errorf("bulk mark shared: %w", err)
	}
	return affected, nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, budgetFromRow(row))
	}
	return out, nil
}

func (r *Repository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return budgetFromRow(row), nil
}

func (r *Repository) UpsertBudget(ctx context.Context, budget core.Budget) (core.Budget, error) {
	id := budget.ID
	if id == "" {
		id = uuid.NewString()
	}
	var visits sql.NullInt64
	if budget.MaxVisits != nil {
		visits = sql.NullInt64{Int64: int64(*budget.MaxVisits), Valid: true}
	}
	row, err := r.queries.UpsertBudget(ctx, BudgetRow{
		ID:          id,
		UserID:      budget.UserID,
		Category:    budget.Category,
		AmountCents: budget.Amount.Cents,
		PeriodType:  core.PeriodTypeMonthly,
		MaxVisits:   visits,
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return budgetFromRow(row), nil
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, category string) error {
	// Deleting an absent budget deletes zero rows, which is still success.
	if err := r.queries.DeleteBudget(ctx, userID, category); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func accountFromRow(row AccountRow) core.Account {
	return core.Account{
		ID:                row.ID,
		UserID:            row.UserID,
		Name:              row.Name,
		Type:              row.Type,
		Subtype:           row.Subtype,
		IsSharedSource:    row.IsSharedSource,
		ProviderAccountID: row.ProviderAccountID,
		CreatedAt:         row.CreatedAt,
	}
}

func budgetFromRow(row BudgetRow) core.Budget {
	b := core.Budget{
		ID:         row.ID,
		UserID:     row.UserID,
		Category:   row.Category,
		Amount:     core.Money{Cents: row.AmountCents},
		PeriodType: row.PeriodType,
	}
	if row.MaxVisits.Valid {
		v := int(row.MaxVisits.Int64)
		b.MaxVisits = &v
	}
	return b
}

func joinedFromRow(row JoinedTransactionRow) (core.JoinedTransaction, error) {
	date, err := core.ParseDate(row.TxnDate)
	if err != nil {
		return core.JoinedTransaction{}, fmt.Errorf("stored date %q: %w", row.TxnDate, err)
	}
	return core.JoinedTransaction{
		Transaction: core.Transaction{
			ID:                    row.ID,
			UserID:                row.UserID,
			AccountID:             row.AccountID,
			Date:                  date,
			Amount:                core.Money{Cents: row.AmountCents},
			MerchantName:          row.MerchantName,
			Category:              row.Category,
			IsShared:              row.IsShared,
			ProviderTransactionID: row.ProviderTransactionID,
		},
		AccountSharedSource: row.AccountSharedSource,
	}, nil
}

package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Queries is the low-level SQL layer. It deals in row structs; mapping to
// core types and error translation happen in Repository.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

type (
	AccountRow struct {
		ID                string
		UserID            string
		Name              string
		Type              string
		Subtype           string
		IsSharedSource    bool
		ProviderAccountID string
		CreatedAt         time.Time
	}

	TransactionRow struct {
		ID                    string
		UserID                string
		AccountID             string
		TxnDate               string
		AmountCents           int64
		MerchantName          string
		Category              string
		IsShared              bool
		ProviderTransactionID string
	}

	// JoinedTransactionRow includes the owning account's shared-source flag.
	JoinedTransactionRow struct {
		TransactionRow
		AccountSharedSource bool
	}

	BudgetRow struct {
		ID          string
		UserID      string
		Category    string
		AmountCents int64
		PeriodType  string
		MaxVisits   sql.NullInt64
	}

	// TransactionQuery filters ListTransactions. Date bounds are half-open
	// ISO strings; empty strings disable the corresponding predicate.
	// Uncategorized matches rows whose category is the empty string.
	TransactionQuery struct {
		UserID        string
		DateFrom      string
		DateTo        string
		Category      string
		AccountID     string
		Uncategorized bool
	}
)

const joinedTransactionColumns = `
	t.id, t.user_id, t.account_id, t.txn_date, t.amount_cents,
	t.merchant_name, t.category, t.is_shared, t.provider_transaction_id,
	a.is_shared_source`

func scanJoinedTransaction(sc interface{ Scan(...any) error }) (JoinedTransactionRow, error) {
	var row JoinedTransactionRow
	err := sc.Scan(
		&row.ID, &row.UserID, &row.AccountID, &row.TxnDate, &row.AmountCents,
		&row.MerchantName, &row.Category, &row.IsShared, &row.ProviderTransactionID,
		&row.AccountSharedSource,
	)
	return row, err
}

// ListTransactions returns the user's transactions joined with their
// account's shared-source flag, newest first.
func (q *Queries) ListTransactions(ctx context.Context, f TransactionQuery) ([]JoinedTransactionRow, error) {
	var sb strings.Builder
	sb.WriteString("SELECT")
	sb.WriteString(joinedTransactionColumns)
	sb.WriteString(`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.user_id = ?`)
	args := []any{f.UserID}

	if f.DateFrom != "" {
		sb.WriteString(" AND t.txn_date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		sb.WriteString(" AND t.txn_date < ?")
		args = append(args, f.DateTo)
	}
	if f.Category != "" {
		sb.WriteString(" AND t.category = ?")
		args = append(args, f.Category)
	}
	if f.Uncategorized {
		sb.WriteString(" AND t.category = ''")
	}
	if f.AccountID != "" {
		sb.WriteString(" AND t.account_id = ?")
		args = append(args, f.AccountID)
	}
	sb.WriteString(" ORDER BY t.txn_date DESC, t.id")

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JoinedTransactionRow
	for rows.Next() {
		row, err := scanJoinedTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (q *Queries) GetTransaction(ctx context.Context, userID, id string) (JoinedTransactionRow, error) {
	row := q.db.QueryRowContext(ctx, `SELECT`+joinedTransactionColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.user_id = ? AND t.id = ?`, userID, id)
	return scanJoinedTransaction(row)
}

// UpdateTransaction patches category and/or shared flag on a single row.
// Passing nil leaves the field untouched.
func (q *Queries) UpdateTransaction(ctx context.Context, userID, id string, category *string, isShared *bool) (int64, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *category)
	}
	if isShared != nil {
		sets = append(sets, "is_shared = ?")
		args = append(args, *isShared)
	}
	args = append(args, userID, id)

	res, err := q.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE user_id = ? AND id = ?",
		args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertTransactionIgnoreDuplicate inserts one transaction, skipping
// silently when (user_id, provider_transaction_id) already exists. Returns
// true when a row was written.
func (q *Queries) InsertTransactionIgnoreDuplicate(ctx context.Context, row TransactionRow) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, user_id, account_id, txn_date, amount_cents, merchant_name, category, is_shared, provider_transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider_transaction_id) DO NOTHING`,
		row.ID, row.UserID, row.AccountID, row.TxnDate, row.AmountCents,
		row.MerchantName, row.Category, row.IsShared, row.ProviderTransactionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// BulkMarkShared flips is_shared for every not-yet-shared transaction of
// the user under the given accounts, as one statement.
func (q *Queries) BulkMarkShared(ctx context.Context, userID string, accountIDs []string) (int64, error) {
	if len(accountIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(accountIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(accountIDs)+1)
	args = append(args, userID)
	for _, id := range accountIDs {
		args = append(args, id)
	}
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions SET is_shared = 1
		WHERE user_id = ? AND is_shared = 0 AND account_id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const accountColumns = "id, user_id, name, type, subtype, is_shared_source, provider_account_id, created_at"

func scanAccount(sc interface{ Scan(...any) error }) (AccountRow, error) {
	var row AccountRow
	err := sc.Scan(&row.ID, &row.UserID, &row.Name, &row.Type, &row.Subtype,
		&row.IsSharedSource, &row.ProviderAccountID, &row.CreatedAt)
	return row, err
}

func (q *Queries) ListAccounts(ctx context.Context, userID string) ([]AccountRow, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = ? ORDER BY name, id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountRow
	for rows.Next() {
		row, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (q *Queries) GetAccount(ctx context.Context, userID, id string) (AccountRow, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = ? AND id = ?", userID, id)
	return scanAccount(row)
}

// UpsertAccount inserts the account or refreshes its provider metadata when
// (user_id, provider_account_id) already exists. The shared-source flag is
// user-controlled and never overwritten by a sync.
func (q *Queries) UpsertAccount(ctx context.Context, row AccountRow) (AccountRow, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, type, subtype, is_shared_source, provider_account_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider_account_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			subtype = excluded.subtype`,
		row.ID, row.UserID, row.Name, row.Type, row.Subtype,
		row.IsSharedSource, row.ProviderAccountID, row.CreatedAt)
	if err != nil {
		return AccountRow{}, err
	}
	got := q.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = ? AND provider_account_id = ?",
		row.UserID, row.ProviderAccountID)
	return scanAccount(got)
}

func (q *Queries) UpdateAccountSharedSource(ctx context.Context, userID, id string, isSharedSource bool) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE accounts SET is_shared_source = ? WHERE user_id = ? AND id = ?",
		isSharedSource, userID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const budgetColumns = "id, user_id, category, amount_cents, period_type, max_visits"

func scanBudget(sc interface{ Scan(...any) error }) (BudgetRow, error) {
	var row BudgetRow
	err := sc.Scan(&row.ID, &row.UserID, &row.Category, &row.AmountCents,
		&row.PeriodType, &row.MaxVisits)
	return row, err
}

func (q *Queries) ListBudgets(ctx context.Context, userID string) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? ORDER BY category", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BudgetRow
	for rows.Next() {
		row, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (q *Queries) GetBudget(ctx context.Context, userID, id string) (BudgetRow, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND id = ?", userID, id)
	return scanBudget(row)
}

// UpsertBudget keeps at most one budget per (user, category). The category
// column collates NOCASE, so the conflict target and the reread below both
// match case-insensitively.
func (q *Queries) UpsertBudget(ctx context.Context, row BudgetRow) (BudgetRow, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, amount_cents, period_type, max_visits)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category) DO UPDATE SET
			amount_cents = excluded.amount_cents,
			max_visits = excluded.max_visits`,
		row.ID, row.UserID, row.Category, row.AmountCents, row.PeriodType, row.MaxVisits)
	if err != nil {
		return BudgetRow{}, err
	}
	got := q.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND category = ?",
		row.UserID, row.Category)
	return scanBudget(got)
}

func (q *Queries) DeleteBudget(ctx context.Context, userID, category string) error {
	_, err := q.db.ExecContext(ctx,
		"DELETE FROM budgets WHERE user_id = ? AND category = ?", userID, category)
	return err
}

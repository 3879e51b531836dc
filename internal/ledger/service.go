package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budgeteer/internal/core"
)

// ErrSyncUnavailable is returned when no sync publisher is configured.
var ErrSyncUnavailable = errors.New("sync publisher not configured")

// Service orchestrates reads and writes: it resolves date ranges, pulls
// joined transactions from the store, runs the core engine over them, and
// applies single-row mutations. It holds no per-request state.
type Service struct {
	store Store
	pub   SyncPublisher
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSyncPublisher attaches the publisher used by RequestSync.
func WithSyncPublisher(pub SyncPublisher) Option {
	return func(s *Service) { s.pub = pub }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OverviewQuery selects the range and filters for an aggregation read.
type OverviewQuery struct {
	Period     core.Period
	Month      int // only for PeriodMonth
	Year       int
	SharedOnly bool
	Category   string
	AccountID  string
}

// Overview resolves the query's date range and returns the full rollup for
// it. The returned Aggregation carries the resolved range so callers never
// recompute bounds.
func (s *Service) Overview(ctx context.Context, userID string, q OverviewQuery) (core.Aggregation, error) {
	r, err := s.ResolveOverviewRange(q)
	if err != nil {
		return core.Aggregation{}, fmt.Errorf("resolve period: %w", err)
	}
	category, uncategorized := categoryFilter(q.Category)
	txns, err := s.store.ListTransactions(ctx, TransactionFilter{
		UserID:        userID,
		From:          r.Start,
		To:            r.End,
		Category:      category,
		AccountID:     q.AccountID,
		Uncategorized: uncategorized,
	})
	if err != nil {
		return core.Aggregation{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.Aggregate(txns, r, core.AggregateOptions{SharedOnly: q.SharedOnly}), nil
}

// ResolveOverviewRange computes the window q covers as of the service clock,
// without touching the store. Callers that cache overview results key on the
// resolved range so entries for clock-relative periods lapse when the window
// moves.
func (s *Service) ResolveOverviewRange(q OverviewQuery) (core.DateRange, error) {
	return core.ResolveRange(q.Period, s.now(), q.Month, q.Year)
}

// categoryFilter translates the Uncategorized rollup label back into the
// empty-category predicate. Stored rows never carry the label itself, so
// without the translation the one category the overview always advertises
// would filter to nothing.
func categoryFilter(category string) (string, bool) {
	if category == core.UncategorizedLabel {
		return "", true
	}
	return category, false
}

// BudgetStatuses evaluates every budget of the user against the current
// calendar month. The month's transactions are fetched once and shared
// across evaluations.
func (s *Service) BudgetStatuses(ctx context.Context, userID string, sharedOnly bool) ([]core.BudgetStatus, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	txns, err := s.monthTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	statuses := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		statuses = append(statuses, core.EvaluateBudget(b, txns, s.now(), sharedOnly))
	}
	return statuses, nil
}

// BudgetStatus evaluates a single budget by id. A budget that does not
// exist or belongs to another user yields ErrNotFound.
func (s *Service) BudgetStatus(ctx context.Context, userID, budgetID string, sharedOnly bool) (core.BudgetStatus, error) {
	b, err := s.store.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	txns, err := s.monthTransactions(ctx, userID)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.EvaluateBudget(b, txns, s.now(), sharedOnly), nil
}

// UpsertBudget creates or updates the user's budget for a category.
func (s *Service) UpsertBudget(ctx context.Context, userID, category string, amountCents int64, maxVisits *int) (core.Budget, error) {
	b := core.Budget{
		UserID:     userID,
		Category:   strings.TrimSpace(category),
		Amount:     core.Money{Cents: amountCents},
		PeriodType: core.PeriodTypeMonthly,
		MaxVisits:  maxVisits,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	return s.store.UpsertBudget(ctx, b)
}

// DeleteBudget removes the user's budget for a category. Deleting an absent
// budget is a successful no-op.
func (s *Service) DeleteBudget(ctx context.Context, userID, category string) error {
	return s.store.DeleteBudget(ctx, userID, category)
}

// TrendForCategory returns the three-month spend trend for one category.
func (s *Service) TrendForCategory(ctx context.Context, userID, category string, sharedOnly bool) ([]core.TrendPoint, error) {
	today := core.DateOf(s.now())
	year, month := today.Year(), int(today.Month())-core.TrendMonths+1
	for month < 1 {
		month += 12
		year--
	}
	from := core.NewDate(year, month, 1)
	to := core.MonthRange(today.Year(), int(today.Month())).End
	cat, uncategorized := categoryFilter(category)
	txns, err := s.store.ListTransactions(ctx, TransactionFilter{
		UserID:        userID,
		From:          from,
		To:            to,
		Category:      cat,
		Uncategorized: uncategorized,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.Trend(txns, category, s.now(), sharedOnly), nil
}

// Recategorize assigns a caller-supplied category to the user's
// transaction and returns the delta needed to adjust in-memory rollups.
// The category is intentionally free text; the closed enum only binds
// provider imports.
func (s *Service) Recategorize(ctx context.Context, userID, transactionID, category string) (core.RecategorizeDelta, error) {
	cat := strings.TrimSpace(category)
	return s.updateTransaction(ctx, userID, transactionID, TransactionPatch{Category: &cat})
}

// SetShared sets the per-transaction shared flag.
func (s *Service) SetShared(ctx context.Context, userID, transactionID string, shared bool) (core.RecategorizeDelta, error) {
	return s.updateTransaction(ctx, userID, transactionID, TransactionPatch{IsShared: &shared})
}

// UpdateTransaction applies a combined patch, used by the HTTP layer when a
// request carries both fields.
func (s *Service) UpdateTransaction(ctx context.Context, userID, transactionID string, patch TransactionPatch) (core.RecategorizeDelta, error) {
	return s.updateTransaction(ctx, userID, transactionID, patch)
}

func (s *Service) updateTransaction(ctx context.Context, userID, transactionID string, patch TransactionPatch) (core.RecategorizeDelta, error) {
	if patch.Category == nil && patch.IsShared == nil {
		return core.RecategorizeDelta{}, errors.New("empty patch")
	}
	before, err := s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return core.RecategorizeDelta{}, err
	}
	after, err := s.store.UpdateTransaction(ctx, userID, transactionID, patch)
	if err != nil {
		return core.RecategorizeDelta{}, err
	}
	return core.RecategorizeDelta{
		TransactionID:    after.ID,
		Amount:           after.Amount,
		PreviousCategory: before.Category,
		NewCategory:      after.Category,
		PreviousShared:   before.IsShared,
		NewShared:        after.IsShared,
	}, nil
}

// SetSharedSource toggles an account's shared-source flag.
func (s *Service) SetSharedSource(ctx context.Context, userID, accountID string, shared bool) (core.Account, error) {
	return s.store.UpdateAccount(ctx, userID, accountID, AccountPatch{IsSharedSource: &shared})
}

// ResyncShared flips the shared flag on every transaction under the user's
// shared-source accounts, as one filtered bulk update.
func (s *Service) ResyncShared(ctx context.Context, userID string) (int64, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}
	var ids []string
	for _, a := range accounts {
		if a.IsSharedSource {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	affected, err := s.store.BulkMarkSharedByAccounts(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk mark shared: %w", err)
	}
	slog.InfoContext(ctx, "Resynced shared transactions",
		"user_id", userID,
		"accounts", len(ids),
		"affected", affected)
	return affected, nil
}

// Accounts lists the user's accounts.
func (s *Service) Accounts(ctx context.Context, userID string) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

// RequestSync enqueues an asynchronous provider sync for the user.
func (s *Service) RequestSync(ctx context.Context, userID string) error {
	if s.pub == nil {
		return ErrSyncUnavailable
	}
	if err := s.pub.PublishSyncRequest(ctx, userID); err != nil {
		return fmt.Errorf("publish sync request: %w", err)
	}
	return nil
}

func (s *Service) monthTransactions(ctx context.Context, userID string) ([]core.JoinedTransaction, error) {
	today := core.DateOf(s.now())
	r := core.MonthRange(today.Year(), int(today.Month()))
	txns, err := s.store.ListTransactions(ctx, TransactionFilter{
		UserID: userID,
		From:   r.Start,
		To:     r.End,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

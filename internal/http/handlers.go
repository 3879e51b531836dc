package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"budgeteer/internal/auth"
	"budgeteer/internal/core"
	"budgeteer/internal/ledger"
	applog "budgeteer/internal/log"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	q, err := parseOverviewQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	rng, err := s.svc.ResolveOverviewRange(q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	key := overviewCacheKey(userID, q, rng)
	if agg, ok := s.overviewCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Overview cache hit", "user_id", userID)
		writeJSON(w, http.StatusOK, toOverview(agg))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	agg, err := s.svc.Overview(ctx, userID, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.overviewCache.Set(key, agg)
	writeJSON(w, http.StatusOK, toOverview(agg))
}

// overviewCacheKey keys on the resolved range rather than the period tag:
// "currentMonth" names a different window after the month rolls over, and a
// key built from the tag alone would keep serving the old window until the
// TTL expired.
func overviewCacheKey(userID string, q ledger.OverviewQuery, rng core.DateRange) string {
	return strings.Join([]string{
		userID,
		"overview",
		rng.String(),
		strconv.FormatBool(q.SharedOnly),
		q.Category,
		q.AccountID,
	}, ":")
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sharedOnly, err := parseBoolParam(r.URL.Query(), "sharedOnly")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	key := userID + ":budgets:" + strconv.FormatBool(sharedOnly)
	if statuses, ok := s.budgetsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toBudgetStatuses(statuses))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	statuses, err := s.svc.BudgetStatuses(ctx, userID, sharedOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.budgetsCache.Set(key, statuses)
	writeJSON(w, http.StatusOK, toBudgetStatuses(statuses))
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	sharedOnly, err := parseBoolParam(r.URL.Query(), "sharedOnly")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	status, err := s.svc.BudgetStatus(ctx, userID, r.PathValue("id"), sharedOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetStatus(status))
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	req, cents, err := parseBudgetRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	b, err := s.svc.UpsertBudget(ctx, userID, req.Category, cents, req.MaxVisits)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateUser(userID)
	slog.InfoContext(r.Context(), "Budget upserted",
		"user_id", userID,
		"category", b.Category,
		"amount_cents", b.Amount.Cents)
	writeJSON(w, http.StatusOK, toBudget(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	category := r.PathValue("category")
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	if err := s.svc.DeleteBudget(ctx, userID, category); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing category")
		return
	}
	sharedOnly, err := parseBoolParam(r.URL.Query(), "sharedOnly")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	key := userID + ":trend:" + category + ":" + strconv.FormatBool(sharedOnly)
	if points, ok := s.trendCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toTrend(points))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	points, err := s.svc.TrendForCategory(ctx, userID, category, sharedOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.trendCache.Set(key, points)
	writeJSON(w, http.StatusOK, toTrend(points))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	patch, err := parseTransactionPatch(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	delta, err := s.svc.UpdateTransaction(ctx, userID, r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateUser(userID)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransactionUpdated(r.Context(), userID, delta.TransactionID, delta.Amount.Cents, delta.NewCategory)
	writeJSON(w, http.StatusOK, toDelta(delta))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	accounts, err := s.svc.Accounts(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccounts(accounts))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	shared, err := parseAccountPatch(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	account, err := s.svc.SetSharedSource(ctx, userID, r.PathValue("id"), shared)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateUser(userID)
	writeJSON(w, http.StatusOK, toAccount(account))
}

func (s *Server) handleResyncShared(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	affected, err := s.svc.ResyncShared(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateUser(userID)
	writeJSON(w, http.StatusOK, map[string]int64{"affected": affected})
}

func (s *Server) handleRequestSync(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	if err := s.svc.RequestSync(ctx, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

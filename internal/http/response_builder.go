package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgeteer/internal/core"
	"budgeteer/internal/ledger"
	applog "budgeteer/internal/log"
)

// Wire representations. Money travels twice: raw cents for arithmetic on
// the client, a fixed two-place string for display.
type (
	moneyDTO struct {
		Cents     int64  `json:"cents"`
		Formatted string `json:"formatted"`
	}

	rangeDTO struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}

	transactionDTO struct {
		ID           string   `json:"id"`
		AccountID    string   `json:"accountId"`
		Date         string   `json:"date"`
		Amount       moneyDTO `json:"amount"`
		MerchantName string   `json:"merchantName,omitempty"`
		Category     string   `json:"category,omitempty"`
		IsShared     bool     `json:"isShared"`
	}

	accountSummaryDTO struct {
		AccountID    string           `json:"accountId"`
		Total        moneyDTO         `json:"total"`
		Count        int              `json:"count"`
		Transactions []transactionDTO `json:"transactions"`
	}

	categoryRollupDTO struct {
		Category string   `json:"category"`
		Total    moneyDTO `json:"total"`
		Count    int      `json:"count"`
	}

	overviewResponse struct {
		Range      rangeDTO            `json:"range"`
		Total      moneyDTO            `json:"total"`
		Count      int                 `json:"count"`
		ByAccount  []accountSummaryDTO `json:"byAccount"`
		ByCategory []categoryRollupDTO `json:"byCategory"`
		Categories []string            `json:"categories"`
	}

	budgetDTO struct {
		ID         string   `json:"id"`
		Category   string   `json:"category"`
		Amount     moneyDTO `json:"amount"`
		PeriodType string   `json:"periodType"`
		MaxVisits  *int     `json:"maxVisits,omitempty"`
	}

	budgetStatusDTO struct {
		Budget          budgetDTO `json:"budget"`
		MonthToDate     moneyDTO  `json:"monthToDate"`
		VisitCount      int       `json:"visitCount"`
		Remaining       moneyDTO  `json:"remaining"`
		RemainingVisits *int      `json:"remainingVisits,omitempty"`
		Projected       moneyDTO  `json:"projected"`
		WeeklyAmount    moneyDTO  `json:"weeklyAmount"`
	}

	trendPointDTO struct {
		Label          string   `json:"label"`
		MonthIndex     int      `json:"monthIndex"`
		Year           int      `json:"year"`
		Total          moneyDTO `json:"total"`
		IsCurrentMonth bool     `json:"isCurrentMonth"`
	}

	deltaResponse struct {
		TransactionID    string   `json:"transactionId"`
		Amount           moneyDTO `json:"amount"`
		PreviousCategory string   `json:"previousCategory"`
		NewCategory      string   `json:"newCategory"`
		PreviousShared   bool     `json:"previousShared"`
		NewShared        bool     `json:"newShared"`
	}

	accountDTO struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Type           string `json:"type,omitempty"`
		Subtype        string `json:"subtype,omitempty"`
		IsSharedSource bool   `json:"isSharedSource"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func toMoney(m core.Money) moneyDTO {
	return moneyDTO{Cents: m.Cents, Formatted: m.StringFixed()}
}

func toTransaction(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Date:         t.Date.String(),
		Amount:       toMoney(t.Amount),
		MerchantName: t.MerchantName,
		Category:     t.Category,
		IsShared:     t.IsShared,
	}
}

func toOverview(agg core.Aggregation) overviewResponse {
	out := overviewResponse{
		Range:      rangeDTO{Start: agg.Range.Start.String(), End: agg.Range.End.String()},
		Total:      toMoney(agg.Total),
		Count:      agg.Count,
		ByAccount:  make([]accountSummaryDTO, 0, len(agg.ByAccount)),
		ByCategory: make([]categoryRollupDTO, 0, len(agg.ByCategory)),
		Categories: agg.Categories,
	}
	if out.Categories == nil {
		out.Categories = []string{}
	}
	for _, acc := range agg.ByAccount {
		summary := accountSummaryDTO{
			AccountID:    acc.AccountID,
			Total:        toMoney(acc.Total),
			Count:        acc.Count,
			Transactions: make([]transactionDTO, 0, len(acc.Transactions)),
		}
		for _, t := range acc.Transactions {
			summary.Transactions = append(summary.Transactions, toTransaction(t.Transaction))
		}
		out.ByAccount = append(out.ByAccount, summary)
	}
	for _, cat := range agg.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryRollupDTO{
			Category: cat.Category,
			Total:    toMoney(cat.Total),
			Count:    cat.Count,
		})
	}
	return out
}

func toBudget(b core.Budget) budgetDTO {
	return budgetDTO{
		ID:         b.ID,
		Category:   b.Category,
		Amount:     toMoney(b.Amount),
		PeriodType: b.PeriodType,
		MaxVisits:  b.MaxVisits,
	}
}

func toBudgetStatus(s core.BudgetStatus) budgetStatusDTO {
	return budgetStatusDTO{
		Budget:          toBudget(s.Budget),
		MonthToDate:     toMoney(s.MonthToDate),
		VisitCount:      s.VisitCount,
		Remaining:       toMoney(s.Remaining),
		RemainingVisits: s.RemainingVisits,
		Projected:       toMoney(s.Projected),
		WeeklyAmount:    toMoney(s.WeeklyAmount),
	}
}

func toBudgetStatuses(statuses []core.BudgetStatus) []budgetStatusDTO {
	out := make([]budgetStatusDTO, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, toBudgetStatus(s))
	}
	return out
}

func toTrend(points []core.TrendPoint) []trendPointDTO {
	out := make([]trendPointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, trendPointDTO{
			Label:          p.Label,
			MonthIndex:     p.MonthIndex,
			Year:           p.Year,
			Total:          toMoney(p.Total),
			IsCurrentMonth: p.IsCurrentMonth,
		})
	}
	return out
}

func toDelta(d core.RecategorizeDelta) deltaResponse {
	return deltaResponse{
		TransactionID:    d.TransactionID,
		Amount:           toMoney(d.Amount),
		PreviousCategory: d.PreviousCategory,
		NewCategory:      d.NewCategory,
		PreviousShared:   d.PreviousShared,
		NewShared:        d.NewShared,
	}
}

func toAccount(a core.Account) accountDTO {
	return accountDTO{
		ID:             a.ID,
		Name:           a.Name,
		Type:           a.Type,
		Subtype:        a.Subtype,
		IsSharedSource: a.IsSharedSource,
	}
}

func toAccounts(accounts []core.Account) []accountDTO {
	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccount(a))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// validationErrs is the set of domain errors that indicate a well-formed
// but unprocessable request.
var validationErrs = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrEmptyCategory,
	core.ErrInvalidVisits,
	core.ErrInvalidPeriod,
	core.ErrEmptyAccountRef,
}

// writeServiceError translates service-layer failures to HTTP statuses.
// Internal errors are logged with detail but surface a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeError(w, http.StatusUnprocessableEntity, reqErr.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ledger.ErrSyncUnavailable):
		writeError(w, http.StatusServiceUnavailable, "sync is not available")
	case isValidationErr(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		op := applog.OpRead
		if r.Method != http.MethodGet {
			op = applog.OpUpdate
		}
		sl := applog.NewStructuredLogger(applog.FromContext(r.Context()))
		sl.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationErr(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

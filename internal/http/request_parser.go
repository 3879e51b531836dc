package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgeteer/internal/core"
	"budgeteer/internal/ledger"
)

// maxBodyBytes caps request bodies; every write payload here is tiny.
const maxBodyBytes = 1 << 20

// requestError is a client-side parse or validation failure. Handlers map
// it to 422 and echo the message.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) *requestError {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// parseOverviewQuery reads the period selector and optional filters from
// the query string. Unknown periods and malformed flags are rejected rather
// than defaulted, so a typo never silently changes the range.
func parseOverviewQuery(q url.Values) (ledger.OverviewQuery, error) {
	period, err := core.ParsePeriod(q.Get("period"))
	if err != nil {
		return ledger.OverviewQuery{}, badRequest("%v", err)
	}
	out := ledger.OverviewQuery{
		Period:    period,
		Category:  strings.TrimSpace(q.Get("category")),
		AccountID: strings.TrimSpace(q.Get("accountId")),
	}
	if out.SharedOnly, err = parseBoolParam(q, "sharedOnly"); err != nil {
		return ledger.OverviewQuery{}, err
	}
	if period == core.PeriodMonth {
		if out.Month, err = parseIntParam(q, "month"); err != nil {
			return ledger.OverviewQuery{}, err
		}
		if out.Year, err = parseIntParam(q, "year"); err != nil {
			return ledger.OverviewQuery{}, err
		}
	}
	return out, nil
}

func parseBoolParam(q url.Values, name string) (bool, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest("invalid %s %q", name, v)
	}
	return b, nil
}

func parseIntParam(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, badRequest("missing %s", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid %s %q", name, v)
	}
	return n, nil
}

// budgetRequest is the PUT /budgets payload. Amount is a decimal string so
// clients never deal in cents or floats.
type budgetRequest struct {
	Category  string `json:"category"`
	Amount    string `json:"amount"`
	MaxVisits *int   `json:"maxVisits"`
}

func parseBudgetRequest(r *http.Request) (budgetRequest, int64, error) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		return budgetRequest{}, 0, err
	}
	cents, err := core.ParseAmountToCents(req.Amount)
	if err != nil {
		return budgetRequest{}, 0, badRequest("invalid amount %q", req.Amount)
	}
	return req, cents, nil
}

// transactionPatchRequest carries the two mutable transaction fields. Both
// are pointers so "absent" and "set to zero value" stay distinct.
type transactionPatchRequest struct {
	Category *string `json:"category"`
	IsShared *bool   `json:"isShared"`
}

func parseTransactionPatch(r *http.Request) (ledger.TransactionPatch, error) {
	var req transactionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		return ledger.TransactionPatch{}, err
	}
	if req.Category == nil && req.IsShared == nil {
		return ledger.TransactionPatch{}, badRequest("empty patch")
	}
	if req.Category != nil {
		trimmed := strings.TrimSpace(*req.Category)
		req.Category = &trimmed
	}
	return ledger.TransactionPatch{Category: req.Category, IsShared: req.IsShared}, nil
}

type accountPatchRequest struct {
	IsSharedSource *bool `json:"isSharedSource"`
}

func parseAccountPatch(r *http.Request) (bool, error) {
	var req accountPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		return false, err
	}
	if req.IsSharedSource == nil {
		return false, badRequest("empty patch")
	}
	return *req.IsSharedSource, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

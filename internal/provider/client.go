package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"budgeteer/internal/core"
)

const defaultTimeout = 30 * time.Second

// HTTPClient is the vendor client. It is constructed and passed in wherever
// needed; there is no package-level instance.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

type ClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client, mainly for tests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) { h.client = c }
}

func NewHTTPClient(baseURL, token string, opts ...ClientOption) *HTTPClient {
	h := &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type accountsRequest struct {
	UserID string `json:"user_id"`
}

type accountsResponse struct {
	Accounts []RawAccount `json:"accounts"`
}

type transactionsRequest struct {
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type transactionsResponse struct {
	Transactions []RawTransaction `json:"transactions"`
}

func (h *HTTPClient) FetchAccounts(ctx context.Context, userID string) ([]RawAccount, error) {
	var out accountsResponse
	if err := h.post(ctx, "/accounts/get", accountsRequest{UserID: userID}, &out); err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}
	return out.Accounts, nil
}

// FetchTransactions returns transactions dated inside [r.Start, r.End).
// The vendor API takes an inclusive end date, so the upper bound is pulled
// back one day before it goes on the wire.
func (h *HTTPClient) FetchTransactions(ctx context.Context, userID string, r core.DateRange) ([]RawTransaction, error) {
	req := transactionsRequest{
		UserID:    userID,
		StartDate: r.Start.String(),
		EndDate:   r.End.AddDays(-1).String(),
	}
	var out transactionsResponse
	if err := h.post(ctx, "/transactions/get", req, &out); err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	return out.Transactions, nil
}

func (h *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.token)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("call %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

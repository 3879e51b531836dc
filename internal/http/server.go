// Package http exposes the ledger over a JSON API. Every /api/v1 route is
// bearer-authenticated; aggregation reads are cached per user and writes
// invalidate that user's cache slice.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"budgeteer/internal/auth"
	"budgeteer/internal/cache"
	"budgeteer/internal/core"
	"budgeteer/internal/ledger"
	applog "budgeteer/internal/log"
	"budgeteer/internal/middleware/ratelimit"
	"budgeteer/internal/middleware/security"
	"budgeteer/internal/middleware/trace"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 15 * time.Second
	// storeTimeout bounds each store-backed read so a slow query cannot
	// hold a handler open indefinitely.
	storeTimeout = 7 * time.Second
)

type Server struct {
	http.Server
	svc      *ledger.Service
	detector *security.Detector
	limiter  *ratelimit.Limiter

	overviewCache *cache.LRUCache[core.Aggregation]
	budgetsCache  *cache.LRUCache[[]core.BudgetStatus]
	trendCache    *cache.LRUCache[[]core.TrendPoint]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes, auth and the middleware chain, returning a server
// ready for ListenAndServe. cacheTTL bounds how stale a cached aggregation
// may be served.
func NewServer(addr string, svc *ledger.Service, verifier auth.TokenVerifier, cacheTTL time.Duration) *Server {
	s := &Server{
		svc:           svc,
		detector:      security.NewDetector(),
		limiter:       ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		overviewCache: cache.NewLRUCache[core.Aggregation](200, cacheTTL),
		budgetsCache:  cache.NewLRUCache[[]core.BudgetStatus](100, cacheTTL),
		trendCache:    cache.NewLRUCache[[]core.TrendPoint](200, cacheTTL),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.Register(s.budgetsCache)
	s.cacheManager.Register(s.trendCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/overview", s.handleOverview)
	api.HandleFunc("GET /api/v1/budgets", s.handleListBudgets)
	api.HandleFunc("PUT /api/v1/budgets", s.handleUpsertBudget)
	api.HandleFunc("GET /api/v1/budgets/{id}", s.handleBudgetStatus)
	api.HandleFunc("DELETE /api/v1/budgets/{category}", s.handleDeleteBudget)
	api.HandleFunc("GET /api/v1/trend", s.handleTrend)
	api.HandleFunc("PATCH /api/v1/transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("GET /api/v1/accounts", s.handleListAccounts)
	api.HandleFunc("PATCH /api/v1/accounts/{id}", s.handleUpdateAccount)
	api.HandleFunc("POST /api/v1/accounts/resync-shared", s.handleResyncShared)
	api.HandleFunc("POST /api/v1/sync", s.handleRequestSync)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.Handle("/api/v1/", auth.NewMiddleware(verifier).Middleware(api))

	extractIP := s.detector.ExtractClientIP
	handler := s.suspicionLogging(http.Handler(mux))
	handler = applog.ComponentMiddleware(applog.ComponentHTTP)(handler)
	handler = s.limiter.Middleware(extractIP, rateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(extractIP).Middleware(handler)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

// Shutdown stops the cleanup goroutines before draining the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// invalidateUser drops every cached aggregate for one user. Any write may
// shift totals in any cached view, so the whole slice goes.
func (s *Server) invalidateUser(userID string) {
	prefix := userID + ":"
	s.overviewCache.InvalidatePrefix(prefix)
	s.budgetsCache.InvalidatePrefix(prefix)
	s.trendCache.InvalidatePrefix(prefix)
}

// suspicionLogging flags requests matching known probe patterns. They are
// still served; auth decides access, this only feeds the log.
func (s *Server) suspicionLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded", "path", r.URL.Path)
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

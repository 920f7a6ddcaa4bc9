package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"lifedash/internal/cache"
	"lifedash/internal/core"
	"lifedash/internal/stats"
)

// DashboardSource aggregates the month summary and module overview.
type DashboardSource interface {
	MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error)
	Overview(ctx context.Context) []stats.CategoryGroup
}

// TransactionWriter persists new transactions.
type TransactionWriter interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
}

// TransactionReader lists stored transactions.
type TransactionReader interface {
	ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
}

// RecurringAdmin manages recurring definitions.
type RecurringAdmin interface {
	CreateRecurring(ctx context.Context, d core.RecurringDefinition) (int64, error)
	ListRecurring(ctx context.Context) ([]core.RecurringDefinition, error)
	SetRecurringActive(ctx context.Context, id int64, active bool) error
	DeleteRecurring(ctx context.Context, id int64) error
}

// SweepRunner materializes due recurring occurrences.
type SweepRunner interface {
	ProcessDue(ctx context.Context, today time.Time) (int, error)
}

// EventReader lists calendar events from a date key onward.
type EventReader interface {
	ListEventsFrom(ctx context.Context, fromKey string) ([]core.Event, error)
}

type Server struct {
	http.Server
	dashboard   DashboardSource
	txWriter    TransactionWriter
	txReader    TransactionReader
	recurring   RecurringAdmin
	sweeper     SweepRunner
	events      EventReader
	rateLimiter *rateLimiter
	now         func() time.Time

	summaryCache  *cache.LRUCache[core.MonthSummary]
	overviewCache *cache.LRUCache[[]stats.CategoryGroup]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run http.Server.
func NewServer(addr string, dashboard DashboardSource, txWriter TransactionWriter,
	txReader TransactionReader, recurring RecurringAdmin, sweeper SweepRunner,
	events EventReader, cacheTTL time.Duration) *Server {

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		dashboard:        dashboard,
		txWriter:         txWriter,
		txReader:         txReader,
		recurring:        recurring,
		sweeper:          sweeper,
		events:           events,
		rateLimiter:      newRateLimiter(),
		now:              time.Now,
		summaryCache:     cache.NewLRUCache[core.MonthSummary](100, cacheTTL),
		overviewCache:    cache.NewLRUCache[[]stats.CategoryGroup](10, cacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/dashboard/summary", s.withSecurityHeaders(s.handleMonthSummary))
	mux.HandleFunc("/api/dashboard/overview", s.withSecurityHeaders(s.handleOverview))
	mux.HandleFunc("/api/transactions", s.withSecurityHeaders(s.handleTransactions))
	mux.HandleFunc("/api/recurring", s.withSecurityHeaders(s.handleRecurring))
	mux.HandleFunc("/api/recurring/", s.withSecurityHeaders(s.handleRecurringItem))
	mux.HandleFunc("/api/recurring/sweep", s.withSecurityHeaders(s.handleSweep))
	mux.HandleFunc("/api/events/upcoming", s.withSecurityHeaders(s.handleUpcomingEvents))

	return s
}

// startCacheCleanup runs periodic cleanup for both caches
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			summaryCleaned := s.summaryCache.CleanExpired()
			overviewCleaned := s.overviewCache.CleanExpired()
			if summaryCleaned > 0 || overviewCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"summary_entries_removed", summaryCleaned,
					"overview_entries_removed", overviewCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// flushCaches drops cached dashboard responses after a write.
func (s *Server) flushCaches() {
	s.summaryCache.Flush()
	s.overviewCache.Flush()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

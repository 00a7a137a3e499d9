// Package http exposes the REST API: authentication, the finance
// resources and the derived analytics.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type Server struct {
	http.Server

	storage       *storage.SQLiteRepository
	authManager   *auth.Manager
	transactions  *services.TransactionService
	recurring     *services.RecurringService
	notifications *services.NotificationService
	rateLimiter   *rateLimiter

	// Cached analytics payloads, keyed per user, dropped on writes.
	analyticsCache *cache.LRUCache[map[string]any]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(
	addr string,
	repo *storage.SQLiteRepository,
	authManager *auth.Manager,
	transactions *services.TransactionService,
	recurring *services.RecurringService,
	notifications *services.NotificationService,
) *Server {
	s := &Server{
		storage:          repo,
		authManager:      authManager,
		transactions:     transactions,
		recurring:        recurring,
		notifications:    notifications,
		rateLimiter:      newRateLimiter(),
		analyticsCache:   cache.NewLRUCache[map[string]any](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	r := mux.NewRouter()
	r.Use(s.withRequestLogging)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(authManager.Middleware)

	protected.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	protected.HandleFunc("/time/current", s.handleCurrentTime).Methods(http.MethodGet)

	protected.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	protected.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	protected.HandleFunc("/accounts/{id:[0-9]+}", s.handleGetAccount).Methods(http.MethodGet)
	protected.HandleFunc("/accounts/{id:[0-9]+}", s.handleUpdateAccount).Methods(http.MethodPut)
	protected.HandleFunc("/accounts/{id:[0-9]+}", s.handleDeleteAccount).Methods(http.MethodDelete)

	protected.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	protected.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	protected.HandleFunc("/categories/{id:[0-9]+}", s.handleUpdateCategory).Methods(http.MethodPut)
	protected.HandleFunc("/categories/{id:[0-9]+}", s.handleDeleteCategory).Methods(http.MethodDelete)

	protected.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	protected.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	protected.HandleFunc("/transactions/{id:[0-9]+}", s.handleGetTransaction).Methods(http.MethodGet)
	protected.HandleFunc("/transactions/{id:[0-9]+}", s.handleUpdateTransaction).Methods(http.MethodPut)
	protected.HandleFunc("/transactions/{id:[0-9]+}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	protected.HandleFunc("/budgets", s.handleListBudgets).Methods(http.MethodGet)
	protected.HandleFunc("/budgets", s.handleCreateBudget).Methods(http.MethodPost)
	protected.HandleFunc("/budgets/{id:[0-9]+}", s.handleGetBudget).Methods(http.MethodGet)
	protected.HandleFunc("/budgets/{id:[0-9]+}", s.handleUpdateBudget).Methods(http.MethodPut)
	protected.HandleFunc("/budgets/{id:[0-9]+}", s.handleDeleteBudget).Methods(http.MethodDelete)

	protected.HandleFunc("/recurring", s.handleListRecurring).Methods(http.MethodGet)
	protected.HandleFunc("/recurring", s.handleCreateRecurring).Methods(http.MethodPost)
	protected.HandleFunc("/recurring/due", s.handleDueRecurring).Methods(http.MethodGet)
	protected.HandleFunc("/recurring/upcoming", s.handleUpcomingRecurring).Methods(http.MethodGet)
	protected.HandleFunc("/recurring/{id:[0-9]+}", s.handleGetRecurring).Methods(http.MethodGet)
	protected.HandleFunc("/recurring/{id:[0-9]+}", s.handleUpdateRecurring).Methods(http.MethodPut)
	protected.HandleFunc("/recurring/{id:[0-9]+}", s.handleDeleteRecurring).Methods(http.MethodDelete)
	protected.HandleFunc("/recurring/{id:[0-9]+}/execute", s.handleExecuteRecurring).Methods(http.MethodPost)

	protected.HandleFunc("/groups", s.handleListGroups).Methods(http.MethodGet)
	protected.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	protected.HandleFunc("/groups/{id:[0-9]+}", s.handleGetGroup).Methods(http.MethodGet)
	protected.HandleFunc("/groups/{id:[0-9]+}", s.handleDeleteGroup).Methods(http.MethodDelete)
	protected.HandleFunc("/groups/{id:[0-9]+}/members", s.handleListGroupMembers).Methods(http.MethodGet)
	protected.HandleFunc("/groups/{id:[0-9]+}/members", s.handleAddGroupMember).Methods(http.MethodPost)
	protected.HandleFunc("/groups/{id:[0-9]+}/members/{userID:[0-9]+}", s.handleRemoveGroupMember).Methods(http.MethodDelete)
	protected.HandleFunc("/groups/{id:[0-9]+}/expense-summary", s.handleGroupExpenseSummary).Methods(http.MethodGet)

	protected.HandleFunc("/analytics/dashboard", s.handleDashboard).Methods(http.MethodGet)
	protected.HandleFunc("/analytics/spending-by-category", s.handleSpendingByCategory).Methods(http.MethodGet)
	protected.HandleFunc("/analytics/monthly-trend", s.handleMonthlyTrend).Methods(http.MethodGet)
	protected.HandleFunc("/analytics/yearly-summary", s.handleYearlySummary).Methods(http.MethodGet)
	protected.HandleFunc("/analytics/monthly-report", s.handleMonthlyReport).Methods(http.MethodGet)
	protected.HandleFunc("/analytics/unusual-spending", s.handleUnusualSpendingStats).Methods(http.MethodGet)
	protected.HandleFunc("/analytics/rolling-expense", s.handleRollingExpense).Methods(http.MethodGet)
	protected.HandleFunc("/analytics/budget-status", s.handleBudgetStatus).Methods(http.MethodGet)

	protected.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/summary", s.handleNotificationSummary).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/{id:[0-9]+}/read", s.handleMarkNotificationRead).Methods(http.MethodPut)
	protected.HandleFunc("/notifications/read-all", s.handleMarkAllNotificationsRead).Methods(http.MethodPut)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go s.startCacheCleanup()

	return s
}

// withRequestLogging adds security headers, a request ID, write rate
// limiting and request logging.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter captures the status code for the completion log line.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.analyticsCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.storage.ListUserIDs(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

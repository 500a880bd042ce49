// Package http exposes the ledger as a bearer-token JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"cashflow/internal/auth"
	"cashflow/internal/cache"
	"cashflow/internal/services"
)

type contextKey string

const sessionKey contextKey = "session"

type Server struct {
	http.Server
	ledger      *services.LedgerService
	jwtSecret   string
	tokenTTL    time.Duration
	rateLimiter *rateLimiter

	// Dashboard reads are memoized per user and invalidated on mutation.
	summaryCache *cache.LRUCache[services.SummaryReport]

	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger *services.LedgerService, jwtSecret string, tokenTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:       ledger,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[services.SummaryReport](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.wrap(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.wrap(s.handleLogin))
	mux.HandleFunc("POST /api/reset-pin", s.wrap(s.handleResetPIN))

	mux.HandleFunc("GET /api/transactions", s.wrap(s.withAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.wrap(s.withAuth(s.handleCreateTransaction)))
	mux.HandleFunc("PUT /api/transactions/{id}", s.wrap(s.withAuth(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.wrap(s.withAuth(s.handleDeleteTransaction)))

	mux.HandleFunc("GET /api/summary", s.wrap(s.withAuth(s.handleSummary)))
	mux.HandleFunc("GET /api/insights", s.wrap(s.withAuth(s.handleInsights)))
	mux.HandleFunc("GET /api/notifications", s.wrap(s.withAuth(s.handleNotifications)))
	mux.HandleFunc("GET /api/monthly-savings", s.wrap(s.withAuth(s.handleMonthlySavings)))

	mux.HandleFunc("GET /api/settings", s.wrap(s.withAuth(s.handleGetSettings)))
	mux.HandleFunc("PUT /api/settings", s.wrap(s.withAuth(s.handleSaveSettings)))
	mux.HandleFunc("PUT /api/profile", s.wrap(s.withAuth(s.handleUpdateProfile)))

	mux.HandleFunc("GET /api/reflections", s.wrap(s.withAuth(s.handleListReflections)))
	mux.HandleFunc("POST /api/reflections", s.wrap(s.withAuth(s.handleAddReflection)))
	mux.HandleFunc("DELETE /api/reflections/{id}", s.wrap(s.withAuth(s.handleDeleteReflection)))
	mux.HandleFunc("DELETE /api/reflections", s.wrap(s.withAuth(s.handleDeleteAllReflections)))

	mux.HandleFunc("GET /api/export", s.wrap(s.withAuth(s.handleExport)))
	mux.HandleFunc("POST /api/import", s.wrap(s.withAuth(s.handleImport)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// wrap adds security headers, rate limiting, request IDs and request logging.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
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
		ctx := context.WithValue(r.Context(), contextKey("request_id"), requestID)
		r = r.WithContext(ctx)

		// Rate limit mutating requests.
		mutating := r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete
		if mutating && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

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

// withAuth verifies the bearer token and stores the session in the request
// context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		session, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			slog.WarnContext(r.Context(), "Rejected token", "error", err)
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next(w, r.WithContext(ctx))
	}
}

// invalidateUser drops every cached read for the user after a mutation.
func (s *Server) invalidateUser(email string) {
	s.summaryCache.DeletePrefix(email + ":")
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

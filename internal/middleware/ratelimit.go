package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter tracks request counts per key within a fixed window.
// This limiter is a per-process abuse brake for the auth endpoints; it is
// unrelated to the daily generation quota, which lives in the entitlement
// service.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger

	mu      sync.RWMutex
	entries map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
func NewRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		entries:     make(map[string]*rateLimitEntry),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether a request from key should proceed, counting it.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[key]
	if !exists {
		rl.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return true
	}

	if now.Sub(entry.windowStart) > rl.window {
		entry.count = 1
		entry.windowStart = now
		return true
	}

	if entry.count < rl.maxAttempts {
		entry.count++
		return true
	}
	return false
}

// RecordFailure counts a failed attempt without checking the limit.
// Used so failed logins weigh against the limit.
func (rl *RateLimiter) RecordFailure(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[key]
	if !exists || now.Sub(entry.windowStart) > rl.window {
		rl.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return
	}
	entry.count++
}

// Reset clears the limit for a key, e.g. after a successful login.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.entries, key)
}

// TimeUntilReset returns how long until the window expires for a key.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	entry, exists := rl.entries[key]
	if !exists {
		return 0
	}
	elapsed := time.Since(entry.windowStart)
	if elapsed >= rl.window {
		return 0
	}
	return rl.window - elapsed
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, entry := range rl.entries {
			if now.Sub(entry.windowStart) > rl.window {
				delete(rl.entries, key)
			}
		}
		rl.mu.Unlock()
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware wraps a rate limiter for use as HTTP middleware.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a rate limit middleware.
func NewRateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, logger: logger}
}

// Limit returns middleware that rejects over-limit requests with 429.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)

		if !m.limiter.Allow(clientIP) {
			m.logger.Warn("rate limit exceeded",
				"ip", clientIP,
				"path", r.URL.Path,
				"method", r.Method,
			)

			retryAfter := int(m.limiter.TimeUntilReset(clientIP).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Auth Rate Limiter
// =============================================================================

// AuthRateLimiter bundles the limiters for authentication endpoints:
// login gets 5 attempts per 15 minutes, registration 3 per hour.
type AuthRateLimiter struct {
	loginLimiter    *RateLimiter
	registerLimiter *RateLimiter
	logger          *slog.Logger
}

// NewAuthRateLimiter creates the auth endpoint limiters with defaults.
func NewAuthRateLimiter(logger *slog.Logger) *AuthRateLimiter {
	return &AuthRateLimiter{
		loginLimiter:    NewRateLimiter(5, 15*time.Minute, logger),
		registerLimiter: NewRateLimiter(3, time.Hour, logger),
		logger:          logger,
	}
}

// LimitLogin returns middleware for rate limiting login attempts.
func (a *AuthRateLimiter) LimitLogin(next http.Handler) http.Handler {
	return NewRateLimitMiddleware(a.loginLimiter, a.logger).Limit(next)
}

// LimitRegister returns middleware for rate limiting registration attempts.
func (a *AuthRateLimiter) LimitRegister(next http.Handler) http.Handler {
	return NewRateLimitMiddleware(a.registerLimiter, a.logger).Limit(next)
}

// RecordFailedLogin counts a failed login attempt against the IP's limit.
func (a *AuthRateLimiter) RecordFailedLogin(ip string) {
	a.loginLimiter.RecordFailure(ip)
}

// ResetLogin clears the limit for an IP after a successful login.
func (a *AuthRateLimiter) ResetLogin(ip string) {
	a.loginLimiter.Reset(ip)
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP extracts the client IP, considering proxy headers.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For may hold "client, proxy1, proxy2".
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

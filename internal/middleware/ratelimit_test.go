package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// =============================================================================
// Rate Limiter Tests
// =============================================================================

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute, testLogger())

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("attempt over the limit should be blocked")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, testLogger())

	if !rl.Allow("10.0.0.1") {
		t.Error("first key should be allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second key should not be affected by first key's count")
	}
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond, testLogger())

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first attempt should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("second attempt within window should be blocked")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow("10.0.0.1") {
		t.Error("attempt after window expiry should be allowed")
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, testLogger())

	rl.Allow("10.0.0.1")
	if rl.Allow("10.0.0.1") {
		t.Fatal("should be blocked before reset")
	}

	rl.Reset("10.0.0.1")
	if !rl.Allow("10.0.0.1") {
		t.Error("should be allowed after reset")
	}
}

func TestRateLimiter_RecordFailureCountsAgainstLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, testLogger())

	rl.RecordFailure("10.0.0.1")
	rl.RecordFailure("10.0.0.1")

	if rl.Allow("10.0.0.1") {
		t.Error("recorded failures should exhaust the limit")
	}
}

func TestRateLimiter_TimeUntilReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, testLogger())

	if got := rl.TimeUntilReset("unknown"); got != 0 {
		t.Errorf("unknown key should have zero reset time, got %v", got)
	}

	rl.Allow("10.0.0.1")
	got := rl.TimeUntilReset("10.0.0.1")
	if got <= 0 || got > time.Minute {
		t.Errorf("expected reset time in (0, 1m], got %v", got)
	}
}

// =============================================================================
// Rate Limit Middleware Tests
// =============================================================================

func TestRateLimitMiddleware_Returns429(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, testLogger())
	mw := NewRateLimitMiddleware(rl, testLogger())

	handler := mw.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:54321"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error body, got Content-Type %q", ct)
	}
}

// =============================================================================
// Client IP Extraction Tests
// =============================================================================

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.10:43210",
			want:       "192.168.1.10",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-forwarded-for chain uses first",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2, 10.0.0.3"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

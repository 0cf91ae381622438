package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurityHeadersMiddleware_SetsHeaders(t *testing.T) {
	mw := NewSecurityHeadersMiddleware(true)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/pricing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
	}

	for _, tc := range tests {
		if got := rec.Header().Get(tc.header); got != tc.expected {
			t.Errorf("%s: expected %q, got %q", tc.header, tc.expected, got)
		}
	}

	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "default-src 'none'") {
		t.Errorf("expected restrictive CSP, got %q", csp)
	}
}

func TestSecurityHeadersMiddleware_HSTS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Production sets HSTS.
	rec := httptest.NewRecorder()
	NewSecurityHeadersMiddleware(true).Handler(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	hsts := rec.Header().Get("Strict-Transport-Security")
	if !strings.Contains(hsts, "max-age=") || !strings.Contains(hsts, "includeSubDomains") {
		t.Errorf("expected HSTS in production, got %q", hsts)
	}

	// Development does not set HSTS.
	rec = httptest.NewRecorder()
	NewSecurityHeadersMiddleware(false).Handler(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("expected no HSTS in development, got %q", got)
	}
}

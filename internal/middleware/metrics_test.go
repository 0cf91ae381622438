package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMetricsAuth_DisabledPassesThrough(t *testing.T) {
	mw := NewMetricsAuth("", "")

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected pass-through when auth disabled, got %d", rec.Code)
	}
}

func TestMetricsAuth_RequiresCredentials(t *testing.T) {
	mw := NewMetricsAuth("prom", "scrape-secret")

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		user       string
		pass       string
		noAuth     bool
		wantStatus int
	}{
		{"no credentials", "", "", true, http.StatusUnauthorized},
		{"wrong password", "prom", "wrong", false, http.StatusUnauthorized},
		{"wrong username", "grafana", "scrape-secret", false, http.StatusUnauthorized},
		{"correct credentials", "prom", "scrape-secret", false, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/metrics", nil)
			if !tc.noAuth {
				req.SetBasicAuth(tc.user, tc.pass)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			if tc.wantStatus == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header on 401")
			}
		})
	}
}

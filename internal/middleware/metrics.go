package middleware

import (
	"crypto/subtle"
	"net/http"
)

// MetricsAuth guards the Prometheus scrape endpoint with HTTP basic auth.
// When no credentials are configured the guard is a no-op, which is only
// acceptable in development.
type MetricsAuth struct {
	username string
	password string
}

// NewMetricsAuth creates a metrics auth guard. Empty username and password
// disable authentication entirely.
func NewMetricsAuth(username, password string) *MetricsAuth {
	return &MetricsAuth{username: username, password: password}
}

func (m *MetricsAuth) enabled() bool {
	return m.username != "" || m.password != ""
}

// Handler wraps next with a basic auth check. Credentials are compared in
// constant time.
func (m *MetricsAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled() {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if ok {
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(m.username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(m.password)) == 1
			if userOK && passOK {
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="namehive metrics"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

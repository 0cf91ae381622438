// Package middleware contains HTTP middleware for the Name Hive API.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hivelabs/namehive/internal/auth"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/handler"
	"github.com/hivelabs/namehive/internal/service"
	"github.com/hivelabs/namehive/internal/session"
)

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware loads and enforces request identity.
type AuthMiddleware struct {
	userService service.UserService
	logger      *slog.Logger
	isSecure    bool // Secure flag on cookies, true in production
}

// NewAuthMiddleware creates an AuthMiddleware instance.
func NewAuthMiddleware(userService service.UserService, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		userService: userService,
		logger:      logger,
		isSecure:    isSecure,
	}
}

// WithUser attempts to load the user from the session cookie.
//
// The user's subscription state is read fresh from the database on every
// request, so a subscription change takes effect immediately; the tier is
// never cached in the session. Requests without a valid session continue
// unauthenticated.
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.userService.GetBySessionToken(r.Context(), cookie.Value)
		if err != nil {
			// Invalid or expired session, clear the cookie and continue.
			ClearSessionCookie(w, m.isSecure)
			next.ServeHTTP(w, r)
			return
		}

		r = r.WithContext(auth.SetUser(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// WithVisitor ensures unauthenticated requests carry a visitor pseudo-ID,
// minting one and setting the cookie on first contact. Authenticated
// requests pass through untouched; their identity is the account.
//
// Must run after WithUser.
func (m *AuthMiddleware) WithVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		pseudoID := ""
		if cookie, err := r.Cookie(session.VisitorCookieName); err == nil && domain.IsPseudoID(cookie.Value) {
			pseudoID = cookie.Value
		}
		if pseudoID == "" {
			pseudoID = domain.MintPseudoID()
			http.SetCookie(w, &http.Cookie{
				Name:     session.VisitorCookieName,
				Value:    pseudoID,
				Path:     session.CookiePath,
				MaxAge:   session.VisitorCookieMaxAge,
				HttpOnly: true,
				Secure:   m.isSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		r = r.WithContext(auth.SetVisitorID(r.Context(), pseudoID))
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects unauthenticated requests with 401.
// Must run after WithUser.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from non-administrators with 403.
// Must run after WithUser.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		if !user.IsAdmin {
			m.logger.Warn("admin route denied",
				"user_id", user.ID,
				"path", r.URL.Path,
			)
			handler.ForbiddenResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Cookie Helpers
// =============================================================================

// SetSessionCookie sets the session cookie on the response.
//
// HttpOnly blocks JavaScript access, SameSite=Lax prevents CSRF while
// allowing normal navigation, and Secure is enabled in production.
func SetSessionCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     session.CookiePath,
		MaxAge:   session.CookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     session.CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// =============================================================================
// Middleware Stack
// =============================================================================

// Stack composes middleware functions into one. The first middleware in the
// list is the outermost: it runs first on the request and last on the
// response.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

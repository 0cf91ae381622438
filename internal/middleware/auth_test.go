package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/hivelabs/namehive/internal/auth"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/session"
)

// =============================================================================
// Mock UserService Implementation
// =============================================================================

// mockUserService implements the service.UserService interface for testing.
type mockUserService struct {
	GetBySessionTokenFunc func(ctx context.Context, token string) (*domain.User, error)
}

func (m *mockUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Logout(ctx context.Context, token string) error {
	return nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if m.GetBySessionTokenFunc != nil {
		return m.GetBySessionTokenFunc(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) UpdateProfile(ctx context.Context, params domain.ProfileUpdateParams) error {
	return errors.New("not implemented")
}

func (m *mockUserService) ChangePassword(ctx context.Context, params domain.PasswordChangeParams) error {
	return errors.New("not implemented")
}

func (m *mockUserService) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return 0, errors.New("not implemented")
}

func (m *mockUserService) UpdateStripeCustomer(ctx context.Context, userID uuid.UUID, stripeCustomerID string) error {
	return errors.New("not implemented")
}

func (m *mockUserService) UpdateSubscription(ctx context.Context, userID uuid.UUID, status domain.SubscriptionStatus, plan domain.SubscriptionInterval, subscriptionID string) error {
	return errors.New("not implemented")
}

func (m *mockUserService) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// WithUser Tests
// =============================================================================

func TestWithUser_NoCookie(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)

	var gotUser *domain.User
	handler := mw.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = auth.GetUser(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/quota", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotUser != nil {
		t.Errorf("expected no user in context, got %+v", gotUser)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected request to continue with 200, got %d", rec.Code)
	}
}

func TestWithUser_ValidSession(t *testing.T) {
	want := &domain.User{ID: uuid.New(), Email: "bee@example.com"}
	svc := &mockUserService{
		GetBySessionTokenFunc: func(ctx context.Context, token string) (*domain.User, error) {
			if token != "valid-token" {
				t.Errorf("expected token %q, got %q", "valid-token", token)
			}
			return want, nil
		},
	}
	mw := NewAuthMiddleware(svc, testLogger(), false)

	var gotUser *domain.User
	handler := mw.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = auth.GetUser(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotUser == nil || gotUser.ID != want.ID {
		t.Errorf("expected user %v in context, got %+v", want.ID, gotUser)
	}
}

func TestWithUser_InvalidSessionClearsCookie(t *testing.T) {
	svc := &mockUserService{
		GetBySessionTokenFunc: func(ctx context.Context, token string) (*domain.User, error) {
			return nil, domain.Unauthorized("AuthMiddleware.WithUser", "invalid session")
		},
	}
	mw := NewAuthMiddleware(svc, testLogger(), false)

	handler := mw.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) != nil {
			t.Error("expected no user in context after invalid session")
		}
	}))

	req := httptest.NewRequest("GET", "/api/quota", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "stale-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

// =============================================================================
// WithVisitor Tests
// =============================================================================

func TestWithVisitor_MintsPseudoID(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)

	var gotID string
	handler := mw.WithVisitor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = auth.GetVisitorID(r.Context())
	}))

	req := httptest.NewRequest("POST", "/api/generate", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !domain.IsPseudoID(gotID) {
		t.Errorf("expected a minted pseudo-ID in context, got %q", gotID)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.VisitorCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected visitor cookie to be set")
	}
	if cookie.Value != gotID {
		t.Errorf("cookie value %q does not match context ID %q", cookie.Value, gotID)
	}
	if !cookie.HttpOnly {
		t.Error("expected visitor cookie to be HttpOnly")
	}
}

func TestWithVisitor_ReusesExistingCookie(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)
	existing := domain.MintPseudoID()

	var gotID string
	handler := mw.WithVisitor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = auth.GetVisitorID(r.Context())
	}))

	req := httptest.NewRequest("POST", "/api/generate", nil)
	req.AddCookie(&http.Cookie{Name: session.VisitorCookieName, Value: existing})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotID != existing {
		t.Errorf("expected existing pseudo-ID %q, got %q", existing, gotID)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no Set-Cookie when a valid visitor cookie exists")
	}
}

func TestWithVisitor_RejectsForgedCookie(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)

	var gotID string
	handler := mw.WithVisitor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = auth.GetVisitorID(r.Context())
	}))

	req := httptest.NewRequest("POST", "/api/generate", nil)
	req.AddCookie(&http.Cookie{Name: session.VisitorCookieName, Value: "not-a-pseudo-id"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotID == "not-a-pseudo-id" {
		t.Error("expected forged visitor cookie to be replaced")
	}
	if !domain.IsPseudoID(gotID) {
		t.Errorf("expected a fresh pseudo-ID, got %q", gotID)
	}
}

func TestWithVisitor_SkipsAuthenticatedRequests(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)
	user := &domain.User{ID: uuid.New(), Email: "bee@example.com"}

	handler := mw.WithVisitor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetVisitorID(r.Context()) != "" {
			t.Error("expected no visitor ID for authenticated request")
		}
	}))

	req := httptest.NewRequest("POST", "/api/generate", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no visitor cookie for authenticated request")
	}
}

// =============================================================================
// RequireUser / RequireAdmin Tests
// =============================================================================

func TestRequireUser_Unauthenticated(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)

	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/favorites", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireUser_Authenticated(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)
	user := &domain.User{ID: uuid.New()}

	called := false
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/api/favorites", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected handler to be reached")
	}
}

func TestRequireAdmin(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)

	tests := []struct {
		name       string
		user       *domain.User
		wantStatus int
	}{
		{"unauthenticated", nil, http.StatusUnauthorized},
		{"regular user", &domain.User{ID: uuid.New()}, http.StatusForbidden},
		{"admin", &domain.User{ID: uuid.New(), IsAdmin: true}, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("POST", "/admin/blog", nil)
			if tc.user != nil {
				req = req.WithContext(auth.SetUser(req.Context(), tc.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

// =============================================================================
// Stack Tests
// =============================================================================

func TestStack_Order(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Stack(tag("outer"), tag("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	want := []string{"outer", "inner", "handler"}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

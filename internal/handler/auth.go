package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hivelabs/namehive/internal/auth"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/service"
	"github.com/hivelabs/namehive/internal/session"
)

// AuthHandler handles registration, login, logout, and account endpoints.
//
// Routes handled:
// - POST   /api/auth/register
// - POST   /api/auth/login
// - POST   /api/auth/logout
// - GET    /api/auth/me
// - PATCH  /api/auth/me
// - POST   /api/auth/password
type AuthHandler struct {
	userService service.UserService
	logger      *slog.Logger
	isSecure    bool
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(userService service.UserService, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
		isSecure:    isSecure,
	}
}

// userResponse is the JSON shape for an account. The password hash and
// Stripe identifiers never leave the server.
type userResponse struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name,omitempty"`
	SubscriptionStatus string `json:"subscription_status"`
	SubscriptionPlan   string `json:"subscription_plan,omitempty"`
	IsAdmin            bool   `json:"is_admin,omitempty"`
	CreatedAt          string `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                 u.ID.String(),
		Email:              u.Email,
		Name:               u.Name,
		SubscriptionStatus: string(u.SubscriptionStatus),
		SubscriptionPlan:   string(u.SubscriptionPlan),
		IsAdmin:            u.IsAdmin,
		CreatedAt:          u.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// POST /api/auth/register
// =============================================================================

// Register creates an account and starts a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("AuthHandler.Register", "Invalid request body"))
		return
	}

	user, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Log the new account in immediately so the client doesn't need a
	// second round trip.
	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// The account exists; the client can log in explicitly.
		writeJSON(w, http.StatusCreated, map[string]interface{}{"user": toUserResponse(user)})
		return
	}

	setSessionCookie(w, result.Token, h.isSecure)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": toUserResponse(result.User)})
}

// =============================================================================
// POST /api/auth/login
// =============================================================================

// Login authenticates an account and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("AuthHandler.Login", "Invalid request body"))
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	setSessionCookie(w, result.Token, h.isSecure)
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": toUserResponse(result.User)})
}

// =============================================================================
// POST /api/auth/logout
// =============================================================================

// Logout invalidates the current session. Always succeeds from the client's
// perspective.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		if err := h.userService.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("logout failed", "error", err)
		}
	}

	clearSessionCookie(w, h.isSecure)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// =============================================================================
// GET /api/auth/me
// =============================================================================

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": toUserResponse(user)})
}

// =============================================================================
// PATCH /api/auth/me
// =============================================================================

// UpdateProfile updates the account's display name.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("AuthHandler.UpdateProfile", "Invalid request body"))
		return
	}

	if err := h.userService.UpdateProfile(r.Context(), domain.ProfileUpdateParams{
		UserID: user.ID,
		Name:   req.Name,
	}); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user.Name = req.Name
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": toUserResponse(user)})
}

// =============================================================================
// POST /api/auth/password
// =============================================================================

// ChangePassword changes the account password. All other sessions are
// invalidated; the current cookie is cleared too, so the client must log in
// again with the new password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("AuthHandler.ChangePassword", "Invalid request body"))
		return
	}

	if err := h.userService.ChangePassword(r.Context(), domain.PasswordChangeParams{
		UserID:          user.ID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	clearSessionCookie(w, h.isSecure)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

// =============================================================================
// Cookie Helpers
// =============================================================================

// Duplicating the cookie writes here keeps the handler package free of a
// middleware import; the constants live in the shared session package.

func setSessionCookie(w http.ResponseWriter, token string, isSecure bool) {
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

func clearSessionCookie(w http.ResponseWriter, isSecure bool) {
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

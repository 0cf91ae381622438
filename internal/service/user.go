// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/metrics"
	"github.com/hivelabs/namehive/internal/repository"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Cost 12 provides good security (~250ms on modern hardware) while being
	// fast enough for login flows.
	//
	// SECURITY NOTE: This should NOT be configurable at runtime to prevent
	// accidental weakening. If you need to change it, do so here and redeploy.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes for session tokens.
	// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
	SessionTokenBytes = 32

	// SessionDuration is how long a session remains valid.
	SessionDuration = 7 * 24 * time.Hour

	// MinPasswordLength is the minimum password length per NIST SP 800-63B.
	MinPasswordLength = 8

	// MaxPasswordLength prevents DoS via bcrypt on very long passwords.
	// bcrypt has a 72-byte limit anyway, but we cap earlier for clarity.
	MaxPasswordLength = 72
)

// =============================================================================
// Interface Definition
// =============================================================================

// UserService defines the interface for user-related operations.
type UserService interface {
	// Register creates a new user account.
	// Returns domain.ECONFLICT if email already exists.
	// Returns domain.EINVALID for validation errors.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error)

	// Login authenticates a user and creates a new session.
	// Returns the user and raw session token on success.
	// Returns domain.EUNAUTHORIZED for invalid credentials.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// Logout invalidates a session by its raw token.
	// This is idempotent - calling with an invalid token is not an error.
	Logout(ctx context.Context, token string) error

	// GetByID retrieves a user by their ID.
	// Returns domain.ENOTFOUND if user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetBySessionToken retrieves a user by their session token.
	// Returns domain.EUNAUTHORIZED if token is invalid or expired.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// UpdateProfile updates a user's profile information.
	// Returns domain.ENOTFOUND if user does not exist.
	UpdateProfile(ctx context.Context, params domain.ProfileUpdateParams) error

	// ChangePassword changes a user's password.
	// Validates the current password before allowing the change.
	// Invalidates all existing sessions after password change.
	// Returns domain.EUNAUTHORIZED if current password is wrong.
	ChangePassword(ctx context.Context, params domain.PasswordChangeParams) error

	// DeleteExpiredSessions removes all expired sessions and reports how many
	// were removed. Called periodically by the maintenance worker.
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// =========================================================================
	// Billing Methods
	// =========================================================================

	// UpdateStripeCustomer saves the Stripe customer ID for a user.
	UpdateStripeCustomer(ctx context.Context, userID uuid.UUID, stripeCustomerID string) error

	// UpdateSubscription updates a user's subscription status, plan, and ID.
	// The new status takes effect on the caller's next request; nothing about
	// the old tier is cached anywhere.
	UpdateSubscription(ctx context.Context, userID uuid.UUID, status domain.SubscriptionStatus, plan domain.SubscriptionInterval, subscriptionID string) error

	// GetByStripeCustomerID retrieves a user by their Stripe customer ID.
	// Returns domain.ENOTFOUND if no user has that customer ID.
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.User, error)
}

// =============================================================================
// Implementation
// =============================================================================

// userService is the concrete implementation of UserService.
type userService struct {
	queries *repository.Queries
	logger  *slog.Logger

	// isAdminEmail marks accounts that get the admin flag at registration.
	// Backed by the ADMIN_EMAILS config list.
	isAdminEmail func(email string) bool
}

// NewUserService creates a new UserService instance.
func NewUserService(queries *repository.Queries, isAdminEmail func(string) bool, logger *slog.Logger) UserService {
	if isAdminEmail == nil {
		isAdminEmail = func(string) bool { return false }
	}
	return &userService{
		queries:      queries,
		logger:       logger,
		isAdminEmail: isAdminEmail,
	}
}

// =============================================================================
// Register Implementation
// =============================================================================

// Register creates a new user account with the provided parameters.
//
// Security Considerations:
// - Password is hashed with bcrypt cost 12
// - Timing attacks are mitigated by always hashing even on duplicate email
// - The raw password is never logged or stored
func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	const op = "UserService.Register"

	// Validate and normalize input
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Name = strings.TrimSpace(params.Name)

	if err := validateEmail(params.Email); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid email address")
	}
	if params.Name == "" {
		return nil, domain.Invalid(op, "Name is required")
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid password")
	}

	// Check if email already exists
	_, err := s.queries.GetUserByEmail(ctx, params.Email)
	if err == nil {
		// User exists - to prevent timing attacks, we hash the password anyway
		_, _ = bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
		return nil, domain.Conflict(op, "Email already registered")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check email availability")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	repoUser, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		Email:        params.Email,
		PasswordHash: string(passwordHash),
		Name:         params.Name,
		IsAdmin:      s.isAdminEmail(params.Email),
	})
	if err != nil {
		// Check for unique constraint violation (race condition)
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return nil, domain.Conflict(op, "Email already registered")
		}
		return nil, domain.Internal(err, op, "Failed to create user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	metrics.SignupsTotal.Inc()
	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)

	return user, nil
}

// =============================================================================
// Login Implementation
// =============================================================================

// Login authenticates a user and creates a new session.
//
// Security Considerations:
// - Constant-time password comparison via bcrypt
// - Generic error message prevents email enumeration
// - Session token is only returned once (not stored anywhere in plaintext)
// - Token is hashed before storage (if DB is compromised, tokens are useless)
func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Use a dummy hash to maintain constant time
			dummyHash := "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW" // bcrypt hash of "dummy"
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	err = bcrypt.CompareHashAndPassword([]byte(repoUser.PasswordHash), []byte(password))
	if err != nil {
		// Password mismatch - use same error message as user not found
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate session token")
	}
	tokenHash := hashSessionToken(token)
	expiresAt := time.Now().Add(SessionDuration)

	_, err = s.queries.CreateSession(ctx, repository.CreateSessionParams{
		UserID:    repoUser.ID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create session")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	s.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)

	// Return result with user and RAW token (not hash)
	return &domain.LoginResult{
		User:  user,
		Token: token,
	}, nil
}

// =============================================================================
// Logout Implementation
// =============================================================================

// Logout invalidates a session. Calling with an invalid or already-deleted
// token simply does nothing and returns success.
func (s *userService) Logout(ctx context.Context, token string) error {
	if token == "" || len(token) != 64 {
		return nil // Idempotent - nothing to invalidate
	}

	tokenHash := hashSessionToken(token)

	if err := s.queries.DeleteSession(ctx, tokenHash); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to delete session", "error", err)
		}
	}

	s.logger.Debug("session invalidated")
	return nil
}

// =============================================================================
// GetByID Implementation
// =============================================================================

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	repoUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// =============================================================================
// GetBySessionToken Implementation
// =============================================================================

// GetBySessionToken retrieves a user by their session token.
//
// The subscription fields on the returned user are whatever the database
// holds right now. Callers classify the tier from this fresh row, so a
// subscription change is visible on the very next request.
func (s *userService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "UserService.GetBySessionToken"

	if token == "" || len(token) != 64 {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	tokenHash := hashSessionToken(token)

	session, err := s.queries.GetSessionByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	repoUser, err := s.queries.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Unlikely but possible if user was deleted
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// =============================================================================
// UpdateProfile Implementation
// =============================================================================

// UpdateProfile updates a user's profile information.
func (s *userService) UpdateProfile(ctx context.Context, params domain.ProfileUpdateParams) error {
	const op = "UserService.UpdateProfile"

	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return domain.Invalid(op, "Name is required")
	}

	_, err := s.queries.GetUserByID(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "user", params.UserID.String())
		}
		return domain.Internal(err, op, "Failed to retrieve user")
	}

	err = s.queries.UpdateUserProfile(ctx, repository.UpdateUserProfileParams{
		ID:   params.UserID,
		Name: params.Name,
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update profile")
	}

	s.logger.Info("user profile updated", "user_id", params.UserID)
	return nil
}

// =============================================================================
// ChangePassword Implementation
// =============================================================================

// ChangePassword changes a user's password.
//
// Security Considerations:
// - Current password must be verified to prevent session hijacking attacks
// - All sessions are invalidated to force re-authentication
func (s *userService) ChangePassword(ctx context.Context, params domain.PasswordChangeParams) error {
	const op = "UserService.ChangePassword"

	if err := validatePassword(params.NewPassword); err != nil {
		return domain.Wrap(err, domain.EINVALID, op, "Invalid new password")
	}

	repoUser, err := s.queries.GetUserByID(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "user", params.UserID.String())
		}
		return domain.Internal(err, op, "Failed to retrieve user")
	}

	err = bcrypt.CompareHashAndPassword([]byte(repoUser.PasswordHash), []byte(params.CurrentPassword))
	if err != nil {
		return domain.Unauthorized(op, "Current password is incorrect")
	}

	newPasswordHash, err := bcrypt.GenerateFromPassword([]byte(params.NewPassword), BcryptCost)
	if err != nil {
		return domain.Internal(err, op, "Failed to hash new password")
	}

	err = s.queries.UpdateUserPassword(ctx, repository.UpdateUserPasswordParams{
		ID:           params.UserID,
		PasswordHash: string(newPasswordHash),
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update password")
	}

	// Invalidate all user sessions (force re-authentication)
	if err := s.queries.DeleteSessionsForUser(ctx, params.UserID); err != nil {
		// Log but don't fail - password was changed successfully
		s.logger.Warn("failed to delete user sessions after password change", "user_id", params.UserID, "error", err)
	}

	s.logger.Info("user password changed", "user_id", params.UserID)
	return nil
}

// =============================================================================
// DeleteExpiredSessions Implementation
// =============================================================================

// DeleteExpiredSessions removes all expired sessions.
func (s *userService) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	const op = "UserService.DeleteExpiredSessions"

	deleted, err := s.queries.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, domain.Internal(err, op, "Failed to delete expired sessions")
	}

	if deleted > 0 {
		s.logger.Info("expired sessions cleaned up", "deleted", deleted)
	}
	return deleted, nil
}

// =============================================================================
// Billing Methods Implementation
// =============================================================================

// UpdateStripeCustomer saves the Stripe customer ID for a user.
func (s *userService) UpdateStripeCustomer(ctx context.Context, userID uuid.UUID, stripeCustomerID string) error {
	const op = "UserService.UpdateStripeCustomer"

	err := s.queries.UpdateStripeCustomer(ctx, repository.UpdateStripeCustomerParams{
		ID:               userID,
		StripeCustomerID: stripeCustomerID,
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update Stripe customer ID")
	}

	s.logger.Info("stripe customer ID updated", "user_id", userID, "stripe_customer_id", stripeCustomerID)
	return nil
}

// UpdateSubscription updates a user's subscription status, plan, and subscription ID.
func (s *userService) UpdateSubscription(ctx context.Context, userID uuid.UUID, status domain.SubscriptionStatus, plan domain.SubscriptionInterval, subscriptionID string) error {
	const op = "UserService.UpdateSubscription"

	err := s.queries.UpdateSubscription(ctx, repository.UpdateSubscriptionParams{
		ID:                 userID,
		SubscriptionStatus: string(status),
		SubscriptionPlan:   domain.ToNullString(string(plan)),
		SubscriptionID:     domain.ToNullString(subscriptionID),
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update subscription")
	}

	s.logger.Info("subscription updated", "user_id", userID, "status", status, "plan", plan)
	return nil
}

// GetByStripeCustomerID retrieves a user by their Stripe customer ID.
func (s *userService) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.User, error) {
	const op = "UserService.GetByStripeCustomerID"

	repoUser, err := s.queries.GetUserByStripeCustomerID(ctx, stripeCustomerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", stripeCustomerID)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user by Stripe customer ID")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// generateSessionToken creates a cryptographically secure session token,
// hex-encoded to 64 characters (256 bits of entropy).
func generateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashSessionToken creates a SHA-256 hash of a session token.
//
// We hash session tokens before storing them because:
//  1. If the database is compromised, attackers cannot use the hashes directly
//  2. SHA-256 is fast enough for per-request validation
//  3. Unlike passwords, session tokens are high-entropy random values,
//     so SHA-256 is sufficient (bcrypt would be overkill and slow)
func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// repoUserToDomain converts a repository.User to domain.User,
// translating database types (sql.Null*) to plain Go types.
func repoUserToDomain(u repository.User) *domain.User {
	return &domain.User{
		ID:                 u.ID,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		Name:               u.Name,
		StripeCustomerID:   domain.NullStringValue(u.StripeCustomerID),
		SubscriptionStatus: domain.SubscriptionStatus(u.SubscriptionStatus),
		SubscriptionPlan:   domain.SubscriptionInterval(domain.NullStringValue(u.SubscriptionPlan)),
		SubscriptionID:     domain.NullStringValue(u.SubscriptionID),
		IsAdmin:            u.IsAdmin,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// validateEmail validates an email address format.
//
// Checks:
// - Basic format validation (contains @, has domain)
// - Length limits (RFC 5321: 254 chars max)
func validateEmail(email string) error {
	if email == "" {
		return domain.Invalid("", "Email is required")
	}
	if len(email) > 254 {
		return domain.Invalid("", "Email must be 254 characters or less")
	}

	atIndex := strings.Index(email, "@")
	if atIndex != strings.LastIndex(email, "@") {
		return domain.Invalid("", "Email must contain exactly one @ symbol")
	}
	if atIndex <= 0 {
		return domain.Invalid("", "Email must contain exactly one @ symbol")
	}
	if atIndex == len(email)-1 {
		return domain.Invalid("", "Email cannot end with @")
	}
	if !strings.Contains(email[atIndex+1:], ".") {
		return domain.Invalid("", "Email domain must contain a dot")
	}
	if strings.Contains(email, "..") {
		return domain.Invalid("", "Email cannot contain consecutive dots")
	}
	return nil
}

// validatePassword validates password strength requirements.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid("", "Password must be 72 characters or less")
	}
	return nil
}

// Ensure userService implements UserService
var _ UserService = (*userService)(nil)

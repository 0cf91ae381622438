package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User is the database row for the users table.
type User struct {
	ID                 uuid.UUID
	Email              string
	PasswordHash       string
	Name               string
	StripeCustomerID   sql.NullString
	SubscriptionStatus string
	SubscriptionPlan   sql.NullString
	SubscriptionID     sql.NullString
	IsAdmin            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const userColumns = `id, email, password_hash, name, stripe_customer_id,
subscription_status, subscription_plan, subscription_id, is_admin, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.StripeCustomerID,
		&u.SubscriptionStatus,
		&u.SubscriptionPlan,
		&u.SubscriptionID,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// CreateUserParams holds input for CreateUser.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	IsAdmin      bool
}

// CreateUser inserts a new user with an inactive subscription.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO users (email, password_hash, name, is_admin)
VALUES ($1, $2, $3, $4)
RETURNING `+userColumns,
		arg.Email, arg.PasswordHash, arg.Name, arg.IsAdmin,
	)
	return scanUser(row)
}

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email (stored lowercase).
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByStripeCustomerID fetches a user by their Stripe customer ID.
func (q *Queries) GetUserByStripeCustomerID(ctx context.Context, customerID string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE stripe_customer_id = $1`, customerID)
	return scanUser(row)
}

// UpdateUserProfileParams holds input for UpdateUserProfile.
type UpdateUserProfileParams struct {
	ID   uuid.UUID
	Name string
}

// UpdateUserProfile updates mutable profile fields.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx, `
UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1`,
		arg.ID, arg.Name,
	)
	return err
}

// UpdateUserPasswordParams holds input for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	ID           uuid.UUID
	PasswordHash string
}

// UpdateUserPassword replaces the stored password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, `
UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		arg.ID, arg.PasswordHash,
	)
	return err
}

// UpdateStripeCustomerParams holds input for UpdateStripeCustomer.
type UpdateStripeCustomerParams struct {
	ID               uuid.UUID
	StripeCustomerID string
}

// UpdateStripeCustomer saves the Stripe customer ID for a user.
func (q *Queries) UpdateStripeCustomer(ctx context.Context, arg UpdateStripeCustomerParams) error {
	_, err := q.db.ExecContext(ctx, `
UPDATE users SET stripe_customer_id = $2, updated_at = NOW() WHERE id = $1`,
		arg.ID, arg.StripeCustomerID,
	)
	return err
}

// UpdateSubscriptionParams holds input for UpdateSubscription.
type UpdateSubscriptionParams struct {
	ID                 uuid.UUID
	SubscriptionStatus string
	SubscriptionPlan   sql.NullString
	SubscriptionID     sql.NullString
}

// UpdateSubscription updates a user's subscription state from billing events.
func (q *Queries) UpdateSubscription(ctx context.Context, arg UpdateSubscriptionParams) error {
	_, err := q.db.ExecContext(ctx, `
UPDATE users
SET subscription_status = $2,
    subscription_plan = COALESCE($3, subscription_plan),
    subscription_id = COALESCE($4, subscription_id),
    updated_at = NOW()
WHERE id = $1`,
		arg.ID, arg.SubscriptionStatus, arg.SubscriptionPlan, arg.SubscriptionID,
	)
	return err
}

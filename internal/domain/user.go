// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and related types for authentication.
// These types are separate from the repository models so business logic never
// leaks sql.Null* handling, and the domain layer stays decoupled from the
// database layer.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the possible states of a user's subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// SubscriptionInterval is the billing period of a paid plan.
type SubscriptionInterval string

const (
	SubscriptionIntervalMonthly SubscriptionInterval = "monthly"
	SubscriptionIntervalYearly  SubscriptionInterval = "yearly"
)

// User represents a registered Name Hive account.
type User struct {
	ID                 uuid.UUID
	Email              string
	PasswordHash       string // Never expose this in API responses
	Name               string
	StripeCustomerID   string
	SubscriptionStatus SubscriptionStatus
	SubscriptionPlan   SubscriptionInterval // empty when never subscribed
	SubscriptionID     string
	IsAdmin            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsPremium reports whether the user's subscription currently entitles them
// to the premium allowance. Trialing counts as premium; past_due and
// canceled do not.
func (u *User) IsPremium() bool {
	return u.SubscriptionStatus == SubscriptionStatusActive ||
		u.SubscriptionStatus == SubscriptionStatusTrialing
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session represents an authenticated session.
//
// Sessions are stored in the database with a hashed token.
// The raw token is only given to the client once (at login).
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the validated parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string // Raw password, will be hashed by service
	Name     string
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed) - only returned once
}

// PasswordChangeParams contains parameters for changing a user's password.
type PasswordChangeParams struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// ProfileUpdateParams contains parameters for updating a user's profile.
type ProfileUpdateParams struct {
	UserID uuid.UUID
	Name   string
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// ToNullString converts a string to sql.NullString (empty string -> NULL).
func ToNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// Package auth provides request identity context helpers.
//
// It is imported by both the middleware and handler packages without causing
// import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/hivelabs/namehive/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	userContextKey    contextKey = "user"
	visitorContextKey contextKey = "visitor"
)

// GetUser retrieves the authenticated user from the context.
// Returns nil if no user is authenticated.
func GetUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetUserFromRequest retrieves the authenticated user from the request context.
func GetUserFromRequest(r *http.Request) *domain.User {
	return GetUser(r.Context())
}

// SetUser stores a user in the context. Called by the session middleware
// after validating a session token.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetVisitorID retrieves the visitor pseudo-ID from the context.
// Returns an empty string when the visitor middleware did not run.
func GetVisitorID(ctx context.Context) string {
	id, ok := ctx.Value(visitorContextKey).(string)
	if !ok {
		return ""
	}
	return id
}

// SetVisitorID stores a visitor pseudo-ID in the context.
func SetVisitorID(ctx context.Context, pseudoID string) context.Context {
	return context.WithValue(ctx, visitorContextKey, pseudoID)
}

// CallerFromRequest resolves the request to an entitlement caller: the
// authenticated user when present, otherwise the visitor pseudo-ID.
func CallerFromRequest(r *http.Request) domain.Caller {
	if user := GetUser(r.Context()); user != nil {
		return domain.AccountCaller(user)
	}
	return domain.AnonymousCaller(GetVisitorID(r.Context()))
}

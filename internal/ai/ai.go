// Package ai defines the provider interface for AI-powered name generation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hivelabs/namehive/internal/domain"
)

// NameProvider generates name suggestions from a validated request.
type NameProvider interface {
	// Name identifies the provider in results and logs ("anthropic", "mock").
	Name() string

	// GenerateNames produces suggestions for one generation request.
	GenerateNames(ctx context.Context, params GenerateParams) (*Result, error)
}

// GenerateParams contains parameters for a name generation call.
type GenerateParams struct {
	GeneratorType string        // validated generator slug
	Keywords      string        // free-text description of the thing being named
	Style         string        // optional tone hint
	Count         int           // how many suggestions to produce
	UserID        uuid.NullUUID // account for usage tracking, invalid for visitors
}

// Result contains the suggestions plus token usage for cost monitoring.
type Result struct {
	Suggestions []domain.NameSuggestion
	Usage       UsageInfo
}

// UsageInfo tracks API usage for billing and monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	CostCents    int           // Estimated cost in cents
	Duration     time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIBadOutput indicates the model returned text that could not be
	// parsed into suggestions
	EAIBadOutput = errors.New("ai response was not parseable")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

// Package service contains the business logic layer.
//
// This file implements the generator service: the single path every name
// generation request takes. It validates input, consults the entitlement
// gate, and calls the configured AI provider.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hivelabs/namehive/internal/ai"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/metrics"
)

// =============================================================================
// Interface Definition
// =============================================================================

// GeneratorService runs one name generation end to end.
type GeneratorService interface {
	// Generate validates the request, consumes one quota unit, and produces
	// suggestions. One call is one ledger event regardless of Count.
	// Returns domain.EINVALID for bad input and domain.EPAYMENT when the
	// caller's daily allowance is exhausted; quota is consumed only when
	// neither applies.
	Generate(ctx context.Context, caller domain.Caller, params domain.GenerateParams) (*domain.GenerationResult, *domain.QuotaStatus, error)
}

// =============================================================================
// Implementation
// =============================================================================

type generatorService struct {
	entitlement EntitlementService
	provider    ai.NameProvider
	logger      *slog.Logger
}

// NewGeneratorService creates a GeneratorService.
func NewGeneratorService(entitlement EntitlementService, provider ai.NameProvider, logger *slog.Logger) GeneratorService {
	return &generatorService{
		entitlement: entitlement,
		provider:    provider,
		logger:      logger,
	}
}

func (s *generatorService) Generate(ctx context.Context, caller domain.Caller, params domain.GenerateParams) (*domain.GenerationResult, *domain.QuotaStatus, error) {
	const op = "GeneratorService.Generate"

	normalized, err := validateGenerateParams(op, params)
	if err != nil {
		return nil, nil, err
	}

	properties, _ := json.Marshal(map[string]any{
		"style": normalized.Style,
		"count": normalized.Count,
	})

	status, err := s.entitlement.TryConsume(ctx, caller, normalized.GeneratorType, properties)
	if err != nil {
		if domain.ErrorCode(err) == domain.EPAYMENT {
			metrics.QuotaDenialsTotal.WithLabelValues(string(caller.Tier)).Inc()
		}
		return nil, nil, err
	}

	result, err := s.provider.GenerateNames(ctx, ai.GenerateParams{
		GeneratorType: normalized.GeneratorType,
		Keywords:      normalized.Keywords,
		Style:         normalized.Style,
		Count:         normalized.Count,
		UserID:        callerUserID(caller),
	})
	if err != nil {
		metrics.AIAPICalls.WithLabelValues(s.provider.Name(), "error").Inc()
		s.logger.Error("name generation failed",
			"provider", s.provider.Name(),
			"generator_type", normalized.GeneratorType,
			"tier", caller.Tier,
			"error", err)
		// The quota unit is already consumed. Accepted: retried requests
		// burn quota, which keeps the ledger append-only and simple.
		return nil, status, domain.Internal(err, op, "Name generation failed. Please try again.")
	}

	metrics.AIAPICalls.WithLabelValues(s.provider.Name(), "success").Inc()
	metrics.GenerationsTotal.WithLabelValues(string(caller.Tier), normalized.GeneratorType).Inc()
	metrics.AITokensTotal.WithLabelValues("input").Add(float64(result.Usage.InputTokens))
	metrics.AITokensTotal.WithLabelValues("output").Add(float64(result.Usage.OutputTokens))
	metrics.AICostCentsTotal.Add(float64(result.Usage.CostCents))

	s.logger.Info("names generated",
		"generator_type", normalized.GeneratorType,
		"tier", caller.Tier,
		"count", len(result.Suggestions),
		"provider", s.provider.Name(),
		"remaining", status.Remaining)

	return &domain.GenerationResult{
		GeneratorType: normalized.GeneratorType,
		Suggestions:   result.Suggestions,
		Provider:      s.provider.Name(),
	}, status, nil
}

// validateGenerateParams normalizes and validates one generation request.
func validateGenerateParams(op string, params domain.GenerateParams) (domain.GenerateParams, error) {
	fields := map[string]string{}

	params.GeneratorType = domain.NormalizeGeneratorType(params.GeneratorType)
	if params.GeneratorType == "" {
		fields["generator_type"] = "Generator type is required"
	}
	if len(params.Keywords) > domain.MaxKeywordsLen {
		fields["keywords"] = "Keywords must be 200 characters or less"
	}
	if params.Count < 0 {
		fields["count"] = "Count cannot be negative"
	}
	if len(fields) > 0 {
		return params, &domain.ValidationError{Op: op, Fields: fields}
	}

	if params.Count == 0 {
		params.Count = domain.DefaultSuggestionCount
	}
	if params.Count > domain.MaxSuggestionCount {
		params.Count = domain.MaxSuggestionCount
	}
	return params, nil
}

// callerUserID maps the caller to the nullable account id used for AI usage
// attribution.
func callerUserID(caller domain.Caller) uuid.NullUUID {
	if caller.IsAnonymous() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: caller.UserID, Valid: true}
}

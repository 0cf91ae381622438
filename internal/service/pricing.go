package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PricingService manages the public pricing table. Stripe stays the source
// of truth for billing; this table only drives display.
type PricingService interface {
	// List returns all plans, cheapest first. When activeOnly is set,
	// deactivated plans are filtered out for the public page.
	List(ctx context.Context, activeOnly bool) ([]domain.PricingPlan, error)

	// GetByCode fetches one plan by its stable code.
	GetByCode(ctx context.Context, code string) (*domain.PricingPlan, error)

	// Update applies an admin edit to a plan's display fields.
	Update(ctx context.Context, params domain.PricingUpdateParams) (*domain.PricingPlan, error)
}

// =============================================================================
// Service Implementation
// =============================================================================

type pricingService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewPricingService creates the pricing service.
func NewPricingService(queries *repository.Queries, logger *slog.Logger) PricingService {
	return &pricingService{queries: queries, logger: logger}
}

var _ PricingService = (*pricingService)(nil)

func (s *pricingService) List(ctx context.Context, activeOnly bool) ([]domain.PricingPlan, error) {
	const op = "PricingService.List"

	plans, err := s.queries.ListPricingPlans(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list pricing plans")
	}

	result := make([]domain.PricingPlan, 0, len(plans))
	for _, p := range plans {
		if activeOnly && !p.Active {
			continue
		}
		result = append(result, repoPricingPlanToDomain(p))
	}
	return result, nil
}

func (s *pricingService) GetByCode(ctx context.Context, code string) (*domain.PricingPlan, error) {
	const op = "PricingService.GetByCode"

	plan, err := s.queries.GetPricingPlanByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Pricing plan", code)
		}
		return nil, domain.Internal(err, op, "Failed to fetch pricing plan")
	}

	result := repoPricingPlanToDomain(plan)
	return &result, nil
}

func (s *pricingService) Update(ctx context.Context, params domain.PricingUpdateParams) (*domain.PricingPlan, error) {
	const op = "PricingService.Update"

	fields := map[string]string{}
	params.Code = strings.TrimSpace(params.Code)
	params.Name = strings.TrimSpace(params.Name)

	if params.Code == "" {
		fields["code"] = "Plan code is required"
	}
	if params.Name == "" {
		fields["name"] = "Name is required"
	}
	if params.PriceCents <= 0 {
		fields["price_cents"] = "Price must be a positive amount"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Op: op, Fields: fields}
	}

	plan, err := s.queries.UpdatePricingPlan(ctx, repository.UpdatePricingPlanParams{
		Code:       params.Code,
		Name:       params.Name,
		PriceCents: int32(params.PriceCents),
		Active:     params.Active,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Pricing plan", params.Code)
		}
		return nil, domain.Internal(err, op, "Failed to update pricing plan")
	}

	s.logger.Info("pricing plan updated",
		"code", plan.Code,
		"price_cents", plan.PriceCents,
		"active", plan.Active,
	)

	result := repoPricingPlanToDomain(plan)
	return &result, nil
}

func repoPricingPlanToDomain(p repository.PricingPlan) domain.PricingPlan {
	return domain.PricingPlan{
		ID:         p.ID,
		Code:       p.Code,
		Name:       p.Name,
		PriceCents: int(p.PriceCents),
		Interval:   domain.SubscriptionInterval(p.Interval),
		Active:     p.Active,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

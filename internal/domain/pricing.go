package domain

import (
	"time"

	"github.com/google/uuid"
)

// Well-known pricing plan codes. The pricing table is data, not code, so
// admins can adjust display prices without a deploy; these constants only
// exist for seeding and tests.
const (
	PlanCodePremiumMonthly = "premium-monthly"
	PlanCodePremiumYearly  = "premium-yearly"
)

// PricingPlan is a row of the public pricing table shown on the marketing
// site. Stripe remains the source of truth for what is actually charged;
// this table only drives display and the admin pricing editor.
type PricingPlan struct {
	ID         uuid.UUID
	Code       string
	Name       string
	PriceCents int
	Interval   SubscriptionInterval
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PricingUpdateParams contains validated input for the admin pricing editor.
type PricingUpdateParams struct {
	Code       string
	Name       string
	PriceCents int
	Active     bool
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// PricingPlan is the database row for the pricing_plans table.
type PricingPlan struct {
	ID         uuid.UUID
	Code       string
	Name       string
	PriceCents int32
	Interval   string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const pricingColumns = `id, code, name, price_cents, billing_interval, active, created_at, updated_at`

func scanPricingPlan(row *sql.Row) (PricingPlan, error) {
	var p PricingPlan
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.Interval, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListPricingPlans returns all plans, cheapest first.
func (q *Queries) ListPricingPlans(ctx context.Context) ([]PricingPlan, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+pricingColumns+` FROM pricing_plans ORDER BY price_cents ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []PricingPlan
	for rows.Next() {
		var p PricingPlan
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.PriceCents, &p.Interval, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetPricingPlanByCode fetches one plan by its stable code.
func (q *Queries) GetPricingPlanByCode(ctx context.Context, code string) (PricingPlan, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+pricingColumns+` FROM pricing_plans WHERE code = $1`, code)
	return scanPricingPlan(row)
}

// UpdatePricingPlanParams holds input for UpdatePricingPlan.
type UpdatePricingPlanParams struct {
	Code       string
	Name       string
	PriceCents int32
	Active     bool
}

// UpdatePricingPlan updates the display fields of a plan.
func (q *Queries) UpdatePricingPlan(ctx context.Context, arg UpdatePricingPlanParams) (PricingPlan, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE pricing_plans
SET name = $2, price_cents = $3, active = $4, updated_at = NOW()
WHERE code = $1
RETURNING `+pricingColumns,
		arg.Code, arg.Name, arg.PriceCents, arg.Active,
	)
	return scanPricingPlan(row)
}

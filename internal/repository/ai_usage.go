package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AIUsage is the database row for one provider API call.
type AIUsage struct {
	ID            uuid.UUID
	UserID        uuid.NullUUID
	Model         string
	GeneratorType string
	InputTokens   int32
	OutputTokens  int32
	CostCents     int32
	CreatedAt     time.Time
}

// CreateAIUsageParams holds input for CreateAIUsage.
type CreateAIUsageParams struct {
	UserID        uuid.NullUUID
	Model         string
	GeneratorType string
	InputTokens   int32
	OutputTokens  int32
	CostCents     int32
}

// CreateAIUsage records token usage and cost for one provider call.
func (q *Queries) CreateAIUsage(ctx context.Context, arg CreateAIUsageParams) (AIUsage, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO ai_usage (user_id, model, generator_type, input_tokens, output_tokens, cost_cents)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, model, generator_type, input_tokens, output_tokens, cost_cents, created_at`,
		arg.UserID, arg.Model, arg.GeneratorType, arg.InputTokens, arg.OutputTokens, arg.CostCents,
	)
	var u AIUsage
	err := row.Scan(&u.ID, &u.UserID, &u.Model, &u.GeneratorType, &u.InputTokens, &u.OutputTokens, &u.CostCents, &u.CreatedAt)
	return u, err
}

// SumAICostCentsSince totals provider spend accrued since a point in time.
// The maintenance worker logs this daily.
func (q *Queries) SumAICostCentsSince(ctx context.Context, since time.Time) (int64, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(cost_cents), 0) FROM ai_usage WHERE created_at >= $1`,
		since,
	)
	var total int64
	err := row.Scan(&total)
	return total, err
}

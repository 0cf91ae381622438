package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// UsageEvent is the database row for the usage_events ledger table.
// Rows are append-only: the entitlement subsystem inserts and counts,
// never updates or deletes.
type UsageEvent struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	GeneratorType string
	Day           string
	IsPremium     bool
	Properties    pqtype.NullRawMessage
	CreatedAt     time.Time
}

// CountUsageEventsParams holds input for CountUsageEvents.
type CountUsageEventsParams struct {
	UserID uuid.UUID
	Day    string
}

// CountUsageEvents counts ledger rows for a user on a UTC calendar day.
func (q *Queries) CountUsageEvents(ctx context.Context, arg CountUsageEventsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM usage_events WHERE user_id = $1 AND day = $2`,
		arg.UserID, arg.Day,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// CreateUsageEventParams holds input for CreateUsageEvent.
type CreateUsageEventParams struct {
	UserID        uuid.UUID
	GeneratorType string
	Day           string
	IsPremium     bool
	Properties    pqtype.NullRawMessage
}

// CreateUsageEvent appends one generation event to the ledger.
func (q *Queries) CreateUsageEvent(ctx context.Context, arg CreateUsageEventParams) (UsageEvent, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO usage_events (user_id, generator_type, day, is_premium, properties)
VALUES ($1, $2, $3, $4, COALESCE($5, '{}'::jsonb))
RETURNING id, user_id, generator_type, day, is_premium, properties, created_at`,
		arg.UserID, arg.GeneratorType, arg.Day, arg.IsPremium, arg.Properties,
	)
	var e UsageEvent
	err := row.Scan(&e.ID, &e.UserID, &e.GeneratorType, &e.Day, &e.IsPremium, &e.Properties, &e.CreatedAt)
	return e, err
}

// CountUsageEventsByDay aggregates ledger rows per generator type for a day.
// Used by the maintenance worker's daily stats rollup.
func (q *Queries) CountUsageEventsByDay(ctx context.Context, day string) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT generator_type, COUNT(*) FROM usage_events WHERE day = $1 GROUP BY generator_type`,
		day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var generatorType string
		var count int64
		if err := rows.Scan(&generatorType, &count); err != nil {
			return nil, err
		}
		counts[generatorType] = count
	}
	return counts, rows.Err()
}

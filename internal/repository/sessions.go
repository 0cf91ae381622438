package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the database row for the sessions table.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateSessionParams holds input for CreateSession.
type CreateSessionParams struct {
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
}

// CreateSession inserts a new session row.
func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO sessions (user_id, token_hash, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, token_hash, expires_at, created_at`,
		arg.UserID, arg.TokenHash, arg.ExpiresAt,
	)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

// GetSessionByTokenHash fetches a session by its hashed token.
func (q *Queries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT id, user_id, token_hash, expires_at, created_at
FROM sessions WHERE token_hash = $1`,
		tokenHash,
	)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

// DeleteSession removes a session by its hashed token.
func (q *Queries) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

// DeleteSessionsForUser removes all of a user's sessions (e.g., after a
// password change).
func (q *Queries) DeleteSessionsForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// DeleteExpiredSessions removes all expired sessions and reports how many
// were deleted.
func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

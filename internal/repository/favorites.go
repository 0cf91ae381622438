package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Favorite is the database row for the favorites table.
type Favorite struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Tagline       sql.NullString
	GeneratorType string
	CreatedAt     time.Time
}

// CreateFavoriteParams holds input for CreateFavorite.
type CreateFavoriteParams struct {
	UserID        uuid.UUID
	Name          string
	Tagline       sql.NullString
	GeneratorType string
}

// CreateFavorite saves a generated name for a user. The (user_id, name,
// generator_type) unique index makes repeat saves conflict.
func (q *Queries) CreateFavorite(ctx context.Context, arg CreateFavoriteParams) (Favorite, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO favorites (user_id, name, tagline, generator_type)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, name, tagline, generator_type, created_at`,
		arg.UserID, arg.Name, arg.Tagline, arg.GeneratorType,
	)
	var f Favorite
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Tagline, &f.GeneratorType, &f.CreatedAt)
	return f, err
}

// ListFavoritesByUser returns a user's saved names, newest first.
func (q *Queries) ListFavoritesByUser(ctx context.Context, userID uuid.UUID) ([]Favorite, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT id, user_id, name, tagline, generator_type, created_at
FROM favorites WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Tagline, &f.GeneratorType, &f.CreatedAt); err != nil {
			return nil, err
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// DeleteFavoriteParams holds input for DeleteFavorite.
type DeleteFavoriteParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// DeleteFavorite removes a favorite, scoped to its owner. Returns the number
// of rows deleted so callers can distinguish "not found".
func (q *Queries) DeleteFavorite(ctx context.Context, arg DeleteFavoriteParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
DELETE FROM favorites WHERE id = $1 AND user_id = $2`,
		arg.ID, arg.UserID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

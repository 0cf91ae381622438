package domain

import (
	"time"

	"github.com/google/uuid"
)

// Favorite is a name an authenticated user saved from a generation result.
type Favorite struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Tagline       string
	GeneratorType string
	CreatedAt     time.Time
}

// FavoriteParams contains validated input for saving a favorite.
type FavoriteParams struct {
	UserID        uuid.UUID
	Name          string
	Tagline       string
	GeneratorType string
}

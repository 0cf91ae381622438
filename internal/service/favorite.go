// Package service contains the business logic layer.
//
// This file implements saved names for authenticated users.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// FavoriteService manages a user's saved names.
type FavoriteService interface {
	// Save stores a generated name for later.
	// Returns domain.ECONFLICT if the same name is already saved.
	// Returns domain.EINVALID for validation errors.
	Save(ctx context.Context, params domain.FavoriteParams) (*domain.Favorite, error)

	// List returns the user's saved names, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error)

	// Delete removes a saved name, scoped to its owner.
	// Returns domain.ENOTFOUND if it does not exist or belongs to someone else.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// =============================================================================
// Implementation
// =============================================================================

type favoriteService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewFavoriteService creates a FavoriteService.
func NewFavoriteService(queries *repository.Queries, logger *slog.Logger) FavoriteService {
	return &favoriteService{
		queries: queries,
		logger:  logger,
	}
}

func (s *favoriteService) Save(ctx context.Context, params domain.FavoriteParams) (*domain.Favorite, error) {
	const op = "FavoriteService.Save"

	params.Name = strings.TrimSpace(params.Name)
	params.Tagline = strings.TrimSpace(params.Tagline)
	params.GeneratorType = domain.NormalizeGeneratorType(params.GeneratorType)

	if params.Name == "" {
		return nil, domain.Invalid(op, "Name is required")
	}
	if params.GeneratorType == "" {
		return nil, domain.Invalid(op, "Generator type is required")
	}

	repoFav, err := s.queries.CreateFavorite(ctx, repository.CreateFavoriteParams{
		UserID:        params.UserID,
		Name:          params.Name,
		Tagline:       domain.ToNullString(params.Tagline),
		GeneratorType: params.GeneratorType,
	})
	if err != nil {
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return nil, domain.Conflict(op, "Name is already saved")
		}
		return nil, domain.Internal(err, op, "Failed to save name")
	}

	s.logger.Info("favorite saved", "user_id", params.UserID, "name", params.Name)
	return repoFavoriteToDomain(repoFav), nil
}

func (s *favoriteService) List(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	const op = "FavoriteService.List"

	repoFavs, err := s.queries.ListFavoritesByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list saved names")
	}

	favorites := make([]domain.Favorite, 0, len(repoFavs))
	for _, f := range repoFavs {
		favorites = append(favorites, *repoFavoriteToDomain(f))
	}
	return favorites, nil
}

func (s *favoriteService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	const op = "FavoriteService.Delete"

	deleted, err := s.queries.DeleteFavorite(ctx, repository.DeleteFavoriteParams{
		ID:     id,
		UserID: userID,
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Internal(err, op, "Failed to delete saved name")
	}
	if deleted == 0 {
		return domain.NotFound(op, "favorite", id.String())
	}

	s.logger.Info("favorite deleted", "user_id", userID, "favorite_id", id)
	return nil
}

func repoFavoriteToDomain(f repository.Favorite) *domain.Favorite {
	return &domain.Favorite{
		ID:            f.ID,
		UserID:        f.UserID,
		Name:          f.Name,
		Tagline:       domain.NullStringValue(f.Tagline),
		GeneratorType: f.GeneratorType,
		CreatedAt:     f.CreatedAt,
	}
}

var _ FavoriteService = (*favoriteService)(nil)

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hivelabs/namehive/internal/auth"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/service"
)

// FavoriteHandler handles saved-name endpoints. All routes require an
// authenticated user.
//
// Routes handled:
// - POST   /api/favorites
// - GET    /api/favorites
// - DELETE /api/favorites/{id}
type FavoriteHandler struct {
	favorites service.FavoriteService
	logger    *slog.Logger
}

// NewFavoriteHandler creates a FavoriteHandler.
func NewFavoriteHandler(favorites service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

type favoriteResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Tagline       string `json:"tagline,omitempty"`
	GeneratorType string `json:"generator_type"`
	CreatedAt     string `json:"created_at"`
}

func toFavoriteResponse(f domain.Favorite) favoriteResponse {
	return favoriteResponse{
		ID:            f.ID.String(),
		Name:          f.Name,
		Tagline:       f.Tagline,
		GeneratorType: f.GeneratorType,
		CreatedAt:     f.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// POST /api/favorites
// =============================================================================

// Save stores a generated name on the user's list.
func (h *FavoriteHandler) Save(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req struct {
		Name          string `json:"name"`
		Tagline       string `json:"tagline"`
		GeneratorType string `json:"generator_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("FavoriteHandler.Save", "Invalid request body"))
		return
	}

	favorite, err := h.favorites.Save(r.Context(), domain.FavoriteParams{
		UserID:        user.ID,
		Name:          req.Name,
		Tagline:       req.Tagline,
		GeneratorType: req.GeneratorType,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"favorite": toFavoriteResponse(*favorite)})
}

// =============================================================================
// GET /api/favorites
// =============================================================================

// List returns the user's saved names, newest first.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	favorites, err := h.favorites.List(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]favoriteResponse, 0, len(favorites))
	for _, f := range favorites {
		items = append(items, toFavoriteResponse(f))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"favorites": items})
}

// =============================================================================
// DELETE /api/favorites/{id}
// =============================================================================

// Delete removes one saved name. Scoped to the owner; deleting someone
// else's favorite reads as not found.
func (h *FavoriteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("FavoriteHandler.Delete", "Invalid favorite ID"))
		return
	}

	if err := h.favorites.Delete(r.Context(), id, user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

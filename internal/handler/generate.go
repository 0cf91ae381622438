package handler

import (
	"log/slog"
	"net/http"

	"github.com/hivelabs/namehive/internal/auth"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/service"
)

// GenerateHandler handles name generation and quota endpoints.
//
// Routes handled:
// - POST /api/generate
// - GET  /api/quota
type GenerateHandler struct {
	generator   service.GeneratorService
	entitlement service.EntitlementService
	logger      *slog.Logger
}

// NewGenerateHandler creates a GenerateHandler.
func NewGenerateHandler(generator service.GeneratorService, entitlement service.EntitlementService, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		generator:   generator,
		entitlement: entitlement,
		logger:      logger,
	}
}

// =============================================================================
// POST /api/generate
// =============================================================================

// Generate runs one name generation for the caller, consuming one unit of
// today's allowance. Works for anonymous visitors and accounts alike; the
// caller class decides the allowance.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GeneratorType string `json:"generator_type"`
		Keywords      string `json:"keywords"`
		Style         string `json:"style"`
		Count         int    `json:"count"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("GenerateHandler.Generate", "Invalid request body"))
		return
	}

	caller := auth.CallerFromRequest(r)
	result, quota, err := h.generator.Generate(r.Context(), caller, domain.GenerateParams{
		GeneratorType: req.GeneratorType,
		Keywords:      req.Keywords,
		Style:         req.Style,
		Count:         req.Count,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": result,
		"quota":  quota,
	})
}

// =============================================================================
// GET /api/quota
// =============================================================================

// Quota returns the caller's remaining allowance for today without
// consuming anything.
func (h *GenerateHandler) Quota(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromRequest(r)
	status := h.entitlement.Status(r.Context(), caller)
	writeJSON(w, http.StatusOK, map[string]interface{}{"quota": status})
}

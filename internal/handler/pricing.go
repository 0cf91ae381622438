package handler

import (
	"log/slog"
	"net/http"

	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/service"
)

// PricingHandler handles the public pricing table and its admin editor.
//
// Routes handled:
// - GET /api/pricing
// - PUT /admin/pricing/{code}
//
// The /admin route must sit behind RequireAdmin middleware.
type PricingHandler struct {
	pricing service.PricingService
	logger  *slog.Logger
}

// NewPricingHandler creates a PricingHandler.
func NewPricingHandler(pricing service.PricingService, logger *slog.Logger) *PricingHandler {
	return &PricingHandler{pricing: pricing, logger: logger}
}

type pricingPlanResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
	Interval   string `json:"interval"`
	Active     bool   `json:"active"`
}

func toPricingPlanResponse(p domain.PricingPlan) pricingPlanResponse {
	return pricingPlanResponse{
		Code:       p.Code,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Interval:   string(p.Interval),
		Active:     p.Active,
	}
}

// =============================================================================
// GET /api/pricing
// =============================================================================

// List returns the active pricing plans for the marketing page.
func (h *PricingHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.pricing.List(r.Context(), true)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]pricingPlanResponse, 0, len(plans))
	for _, p := range plans {
		items = append(items, toPricingPlanResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": items})
}

// =============================================================================
// PUT /admin/pricing/{code}
// =============================================================================

// Update applies an admin edit to a plan's display fields.
func (h *PricingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		PriceCents int    `json:"price_cents"`
		Active     bool   `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("PricingHandler.Update", "Invalid request body"))
		return
	}

	plan, err := h.pricing.Update(r.Context(), domain.PricingUpdateParams{
		Code:       r.PathValue("code"),
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Active:     req.Active,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"plan": toPricingPlanResponse(*plan)})
}

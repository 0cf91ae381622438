package handler

import (
	"log/slog"
	"net/http"

	"github.com/hivelabs/namehive/internal/auth"
	"github.com/hivelabs/namehive/internal/billing"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/service"
)

// BillingHandler handles subscription management endpoints. All routes
// require an authenticated user.
//
// Routes handled:
// - POST /api/billing/checkout
// - POST /api/billing/portal
// - POST /api/billing/cancel
// - POST /api/billing/reactivate
type BillingHandler struct {
	billing     billing.Service
	userService service.UserService
	baseURL     string // public site URL for checkout redirects
	logger      *slog.Logger
}

// NewBillingHandler creates a BillingHandler.
// billingService may be nil when Stripe is not configured; all routes then
// answer 503.
func NewBillingHandler(billingService billing.Service, userService service.UserService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing:     billingService,
		userService: userService,
		baseURL:     baseURL,
		logger:      logger,
	}
}

func (h *BillingHandler) configured(w http.ResponseWriter) bool {
	if h.billing == nil {
		writeJSONError(w, http.StatusServiceUnavailable, domain.EINTERNAL, "Billing is not configured", nil)
		return false
	}
	return true
}

// =============================================================================
// POST /api/billing/checkout
// =============================================================================

// Checkout creates a Stripe Checkout session for upgrading to Premium and
// returns its URL. Creates the Stripe customer lazily on first use.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.Checkout"

	if !h.configured(w) {
		return
	}
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req struct {
		Interval string `json:"interval"` // "monthly" or "yearly"
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Invalid request body"))
		return
	}

	priceID := h.billing.PriceIDForInterval(domain.SubscriptionInterval(req.Interval))
	if priceID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Interval must be 'monthly' or 'yearly'"))
		return
	}

	if user.IsPremium() {
		ErrorResponse(w, r, h.logger, domain.Conflict(op, "Account already has an active subscription"))
		return
	}

	customerID := user.StripeCustomerID
	if customerID == "" {
		id, err := h.billing.CreateCustomer(user.Email, user.Name)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Failed to create billing account"))
			return
		}
		if err := h.userService.UpdateStripeCustomer(r.Context(), user.ID, id); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		customerID = id
	}

	url, err := h.billing.CreateCheckoutSession(
		customerID,
		priceID,
		h.baseURL+"/account?checkout=success",
		h.baseURL+"/pricing?checkout=canceled",
	)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Failed to start checkout"))
		return
	}

	h.logger.Info("checkout session created", "user_id", user.ID, "interval", req.Interval)
	writeJSON(w, http.StatusOK, map[string]string{"checkout_url": url})
}

// =============================================================================
// POST /api/billing/portal
// =============================================================================

// Portal creates a Stripe Customer Portal session and returns its URL.
func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.Portal"

	if !h.configured(w) {
		return
	}
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if user.StripeCustomerID == "" {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "Billing account", user.ID.String()))
		return
	}

	url, err := h.billing.CreatePortalSession(user.StripeCustomerID, h.baseURL+"/account")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Failed to open billing portal"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"portal_url": url})
}

// =============================================================================
// POST /api/billing/cancel
// =============================================================================

// Cancel schedules the subscription to end at the current period's close.
// The user keeps the premium allowance until Stripe reports the deletion.
func (h *BillingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.Cancel"

	if !h.configured(w) {
		return
	}
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if user.SubscriptionID == "" {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "Subscription", user.ID.String()))
		return
	}

	if err := h.billing.CancelSubscription(user.SubscriptionID); err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Failed to cancel subscription"))
		return
	}

	h.logger.Info("subscription cancel scheduled", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancel_scheduled"})
}

// =============================================================================
// POST /api/billing/reactivate
// =============================================================================

// Reactivate removes a scheduled cancellation before the period ends.
func (h *BillingHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.Reactivate"

	if !h.configured(w) {
		return
	}
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if user.SubscriptionID == "" {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "Subscription", user.ID.String()))
		return
	}

	if err := h.billing.ReactivateSubscription(user.SubscriptionID); err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "Failed to reactivate subscription"))
		return
	}

	h.logger.Info("subscription reactivated", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reactivated"})
}

package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v79"

	"github.com/hivelabs/namehive/internal/billing"
	"github.com/hivelabs/namehive/internal/domain"
	"github.com/hivelabs/namehive/internal/metrics"
	"github.com/hivelabs/namehive/internal/service"
)

// WebhookHandler handles incoming Stripe billing events.
//
// Route:
//   - POST /webhooks/stripe
//
// This route is PUBLIC; authentication is the Stripe webhook signature.
// Subscription changes applied here take effect on the user's very next
// generation request, because the tier is re-derived per request.
type WebhookHandler struct {
	billing     billing.Service
	userService service.UserService
	logger      *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, userService service.UserService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing:     billingService,
		userService: userService,
		logger:      logger,
	}
}

// HandleStripeWebhook verifies and dispatches a Stripe event.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := h.billing.VerifyWebhookSignature(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)
	metrics.SubscriptionEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(event)
	case "customer.subscription.created", "customer.subscription.updated":
		h.handleSubscriptionChanged(event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	case "invoice.payment_succeeded":
		h.handlePaymentSucceeded(event)
	case "invoice.payment_failed":
		h.handlePaymentFailed(event)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	// Acknowledge even when processing failed internally; Stripe retries
	// only on non-2xx, and our failures are logged, not recoverable by
	// replaying the same payload.
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("failed to parse checkout session", "error", err)
		return
	}

	if sess.Customer == nil || sess.Subscription == nil {
		h.logger.Warn("checkout session missing customer or subscription", "session_id", sess.ID)
		return
	}

	ctx := webhookCtx()
	user, err := h.userService.GetByStripeCustomerID(ctx, sess.Customer.ID)
	if err != nil {
		// The subscription.created event usually lands first and carries
		// the same linkage, so this is not fatal.
		h.logger.Info("user not found for checkout completion",
			"customer_id", sess.Customer.ID, "subscription_id", sess.Subscription.ID)
		return
	}

	if err := h.userService.UpdateSubscription(ctx, user.ID,
		domain.SubscriptionStatusActive, user.SubscriptionPlan, sess.Subscription.ID); err != nil {
		h.logger.Error("failed to update subscription on checkout", "error", err, "user_id", user.ID)
	}
}

func (h *WebhookHandler) handleSubscriptionChanged(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err, "type", event.Type)
		return
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription event missing customer", "subscription_id", sub.ID)
		return
	}

	ctx := webhookCtx()
	user, err := h.userService.GetByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		h.logger.Warn("user not found for subscription event",
			"customer_id", sub.Customer.ID, "subscription_id", sub.ID)
		return
	}

	var plan domain.SubscriptionInterval
	if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		plan = h.billing.IntervalForPriceID(sub.Items.Data[0].Price.ID)
	}

	status := billing.StatusFromStripe(sub.Status)
	if err := h.userService.UpdateSubscription(ctx, user.ID, status, plan, sub.ID); err != nil {
		h.logger.Error("failed to update subscription", "error", err, "user_id", user.ID)
		return
	}

	h.logger.Info("subscription event processed",
		"user_id", user.ID, "status", status, "plan", plan)
}

func (h *WebhookHandler) handleSubscriptionDeleted(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription deleted event", "error", err)
		return
	}

	if sub.Customer == nil {
		h.logger.Warn("subscription deleted event missing customer", "subscription_id", sub.ID)
		return
	}

	ctx := webhookCtx()
	user, err := h.userService.GetByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		h.logger.Warn("user not found for subscription deletion", "customer_id", sub.Customer.ID)
		return
	}

	if err := h.userService.UpdateSubscription(ctx, user.ID,
		domain.SubscriptionStatusCanceled, "", ""); err != nil {
		h.logger.Error("failed to deactivate subscription", "error", err, "user_id", user.ID)
		return
	}

	h.logger.Info("subscription deleted", "user_id", user.ID, "subscription_id", sub.ID)
}

func (h *WebhookHandler) handlePaymentSucceeded(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse payment succeeded event", "error", err)
		return
	}
	if invoice.Customer == nil {
		return
	}

	ctx := webhookCtx()
	user, err := h.userService.GetByStripeCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("user not found for payment succeeded", "customer_id", invoice.Customer.ID)
		return
	}

	// Recovery from past_due back to the premium allowance.
	if user.SubscriptionStatus != domain.SubscriptionStatusActive {
		if err := h.userService.UpdateSubscription(ctx, user.ID,
			domain.SubscriptionStatusActive, user.SubscriptionPlan, user.SubscriptionID); err != nil {
			h.logger.Error("failed to reactivate on payment success", "error", err, "user_id", user.ID)
		}
	}
}

func (h *WebhookHandler) handlePaymentFailed(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse payment failed event", "error", err)
		return
	}
	if invoice.Customer == nil {
		return
	}

	ctx := webhookCtx()
	user, err := h.userService.GetByStripeCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		h.logger.Debug("user not found for payment failed", "customer_id", invoice.Customer.ID)
		return
	}

	if err := h.userService.UpdateSubscription(ctx, user.ID,
		domain.SubscriptionStatusPastDue, user.SubscriptionPlan, user.SubscriptionID); err != nil {
		h.logger.Error("failed to set past_due on payment failure", "error", err, "user_id", user.ID)
		return
	}

	h.logger.Warn("payment failed", "user_id", user.ID, "customer_id", invoice.Customer.ID)
}

// webhookCtx returns a background context. Webhooks are asynchronous events
// with no user request context attached.
func webhookCtx() context.Context {
	return context.Background()
}

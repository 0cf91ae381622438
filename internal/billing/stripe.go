// Package billing provides Stripe integration for Premium subscriptions.
package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/hivelabs/namehive/internal/domain"
)

// Service defines the interface for billing operations.
type Service interface {
	// CreateCustomer creates a new Stripe customer for the given email.
	CreateCustomer(email, name string) (string, error)

	// CreateCheckoutSession creates a Stripe Checkout session for upgrading
	// to Premium. Returns the checkout URL to redirect the user to.
	CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error)

	// CreatePortalSession creates a Stripe Customer Portal session.
	// Returns the portal URL to redirect the user to.
	CreatePortalSession(customerID, returnURL string) (string, error)

	// GetSubscription retrieves a Stripe subscription by ID.
	GetSubscription(subscriptionID string) (*stripe.Subscription, error)

	// CancelSubscription sets a subscription to cancel at period end.
	CancelSubscription(subscriptionID string) error

	// ReactivateSubscription removes the cancel_at_period_end flag.
	ReactivateSubscription(subscriptionID string) error

	// VerifyWebhookSignature verifies the Stripe webhook signature and
	// returns the decoded event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// PriceIDForInterval returns the configured Stripe price ID for a billing
	// interval, or an empty string when none is configured.
	PriceIDForInterval(interval domain.SubscriptionInterval) string

	// IntervalForPriceID returns the billing interval a Stripe price ID
	// belongs to, or an empty string for unknown prices.
	IntervalForPriceID(priceID string) domain.SubscriptionInterval
}

// PriceConfig holds the Stripe price IDs for the Premium plan.
type PriceConfig struct {
	PremiumMonthlyPriceID string
	PremiumYearlyPriceID  string
}

type stripeService struct {
	webhookSecret   string
	prices          PriceConfig
	priceToInterval map[string]domain.SubscriptionInterval
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey authenticates Stripe API calls. The webhookSecret verifies
// incoming webhook signatures. The prices map Stripe price IDs to billing
// intervals.
func NewStripeService(secretKey, webhookSecret string, prices PriceConfig) Service {
	stripe.Key = secretKey

	priceToInterval := make(map[string]domain.SubscriptionInterval)
	if prices.PremiumMonthlyPriceID != "" {
		priceToInterval[prices.PremiumMonthlyPriceID] = domain.SubscriptionIntervalMonthly
	}
	if prices.PremiumYearlyPriceID != "" {
		priceToInterval[prices.PremiumYearlyPriceID] = domain.SubscriptionIntervalYearly
	}

	return &stripeService{
		webhookSecret:   webhookSecret,
		prices:          prices,
		priceToInterval: priceToInterval,
	}
}

func (s *stripeService) CreateCustomer(email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeService) CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreatePortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) GetSubscription(subscriptionID string) (*stripe.Subscription, error) {
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription: %w", err)
	}
	return sub, nil
}

func (s *stripeService) CancelSubscription(subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	_, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return fmt.Errorf("stripe cancel subscription: %w", err)
	}
	return nil
}

func (s *stripeService) ReactivateSubscription(subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}
	_, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return fmt.Errorf("stripe reactivate subscription: %w", err)
	}
	return nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) PriceIDForInterval(interval domain.SubscriptionInterval) string {
	switch interval {
	case domain.SubscriptionIntervalMonthly:
		return s.prices.PremiumMonthlyPriceID
	case domain.SubscriptionIntervalYearly:
		return s.prices.PremiumYearlyPriceID
	}
	return ""
}

func (s *stripeService) IntervalForPriceID(priceID string) domain.SubscriptionInterval {
	return s.priceToInterval[priceID]
}

// StatusFromStripe maps a Stripe subscription status to the domain status.
// Statuses Stripe may add later fall back to inactive, which is the safe
// default for entitlement purposes.
func StatusFromStripe(status stripe.SubscriptionStatus) domain.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return domain.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusPastDue:
		return domain.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return domain.SubscriptionStatusCanceled
	case stripe.SubscriptionStatusUnpaid:
		return domain.SubscriptionStatusUnpaid
	default:
		return domain.SubscriptionStatusInactive
	}
}

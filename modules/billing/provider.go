package billing

import (
	"context"
	"time"
)

// Provider abstracts the payment provider. The production implementation is
// Stripe; a signature-verifying dev implementation exists for local work.
//
// ParseWebhook must verify the signature against the exact raw body bytes
// before any decoding: re-serializing parsed JSON changes the byte sequence
// and breaks HMAC verification.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout for the plan.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// CreatePortalSession returns a billing portal link for the customer.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error)

	// CancelSubscription cancels the provider-side subscription immediately.
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// ParseWebhook authenticates and decodes a webhook delivery into a
	// normalized Event. Returns ErrSignatureInvalid when authentication
	// fails.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)

	// LookupSubscription fetches the canonical subscription state from the
	// provider, used to resolve tenant metadata and period boundaries.
	LookupSubscription(ctx context.Context, subscriptionID string) (*SubscriptionState, error)

	// SignatureHeader names the HTTP header carrying the webhook signature.
	SignatureHeader() string
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID    string
	CompanyID  string // propagated through metadata so webhooks can resolve the tenant
	Plan       string
	Email      string
	SuccessURL string
	CancelURL  string
}

// SubscriptionState is the canonical provider-side subscription snapshot.
type SubscriptionState struct {
	ID                string
	CustomerID        string
	Status            string
	PriceID           string
	CompanyID         string // from subscription metadata
	Plan              string // from subscription metadata
	PeriodEnd         *time.Time
	CancelAtPeriodEnd bool
}

// mapProviderStatus maps a provider subscription status string onto the
// internal lifecycle state. Unknown statuses map to inactive rather than
// erroring, mirroring the accept-and-no-op posture for unknown events.
func mapProviderStatus(s string) Status {
	switch s {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrial
	case "past_due", "unpaid":
		return StatusPastDue
	case "canceled":
		return StatusCanceled
	default:
		return StatusInactive
	}
}

package billing

import (
	"time"

	"github.com/google/uuid"
)

// PlanID identifies a service tier.
type PlanID string

const (
	PlanBasic   PlanID = "basic"
	PlanPro     PlanID = "pro"
	PlanPremium PlanID = "premium"
)

// Status represents the lifecycle state of a tenant subscription.
type Status string

const (
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusInactive Status = "inactive"
	StatusNone     Status = "none"
)

// Subscription is the tenant subscription record: one per company, stored as
// flat columns on the companies row. It is never hard-deleted; cancellation
// keeps the prior period end as the access grace boundary.
type Subscription struct {
	CompanyID            uuid.UUID
	Plan                 PlanID
	Status               Status
	StripeCustomerID     string
	StripeSubscriptionID string
	CurrentPeriodEnd     *time.Time
	TrialEndsAt          *time.Time // set once at signup, immutable afterward
	StartedAt            *time.Time
	CancelAtPeriodEnd    bool
	ConnectedAccountID   string // Stripe Connect account collecting this tenant's own payments

	// Revision is the optimistic concurrency token. Save only commits when
	// the stored revision still matches, so concurrent webhook deliveries
	// cannot silently overwrite each other.
	Revision  int64
	UpdatedAt time.Time
}

// IsActive reports whether the subscription is in the paid active state.
func (s *Subscription) IsActive() bool { return s.Status == StatusActive }

// InTrial reports whether the trial window is still open at now.
func (s *Subscription) InTrial(now time.Time) bool {
	return s.Status == StatusTrial && s.TrialEndsAt != nil && now.Before(*s.TrialEndsAt)
}

// InGracePeriod reports whether a canceled subscription still has access
// because the already-paid period has not elapsed.
func (s *Subscription) InGracePeriod(now time.Time) bool {
	return s.Status == StatusCanceled && s.CurrentPeriodEnd != nil && now.Before(*s.CurrentPeriodEnd)
}

// EventKind discriminates the recognized billing event types. Anything the
// provider sends that does not map onto one of these becomes EventUnknown
// and is acknowledged without effect.
type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout_completed"
	EventInvoicePaid         EventKind = "invoice_paid"
	EventPaymentFailed       EventKind = "payment_failed"
	EventSubscriptionUpdated EventKind = "subscription_updated"
	EventSubscriptionDeleted EventKind = "subscription_deleted"
	EventUnknown             EventKind = "unknown"
)

// Event is the normalized, signature-verified billing event handed to the
// reconciler. Fields are populated per kind; absent fields stay zero.
type Event struct {
	Kind         EventKind
	ProviderType string // original provider event name, for logging

	CompanyID         string // tenant id from event metadata
	Plan              string // plan id from event metadata
	SubscriptionID    string
	CustomerID        string
	Status            Status // mapped provider status (subscription_updated)
	PeriodEnd         *time.Time
	CancelAtPeriodEnd bool
}

// CheckoutSession is a hosted checkout created for a tenant.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PortalSession is a pre-authenticated billing portal link.
type PortalSession struct {
	URL string `json:"url"`
}

package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stackdek/stackdek/pkg/logger"
)

// Reconciler maps verified billing events onto tenant subscription records.
// Every branch assigns fields rather than incrementing anything, so replaying
// a delivery converges on the same final state.
//
// Events for one tenant may arrive out of order; each event's fields are
// applied as of arrival without comparing sequence numbers, so a late
// delivery can transiently write a stale period end. Concurrent deliveries
// are serialized through the store's revision check instead of racing
// last-write-wins.
type Reconciler struct {
	store    Store
	provider Provider
	catalog  *Catalog
	log      *slog.Logger
	now      func() time.Time
}

// NewReconciler creates a reconciler over the given store and provider.
func NewReconciler(store Store, provider Provider, catalog *Catalog, log *slog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		provider: provider,
		catalog:  catalog,
		log:      log,
		now:      time.Now,
	}
}

// Outcome reports what a single event application did.
type Outcome struct {
	Applied   bool // false for recognized-but-not-applicable and unknown events
	EventType string
	CompanyID uuid.UUID
}

// Apply processes one verified event. A revision conflict is retried once
// against freshly loaded state; recognized events missing tenant metadata
// fail with ErrMissingMetadata, unknown events succeed as no-ops.
func (r *Reconciler) Apply(ctx context.Context, event *Event) (Outcome, error) {
	outcome, err := r.applyOnce(ctx, event)
	if errors.Is(err, ErrRevisionConflict) {
		r.log.WarnContext(ctx, "billing event lost revision race, retrying",
			logger.EventType(event.ProviderType))
		outcome, err = r.applyOnce(ctx, event)
	}
	return outcome, err
}

func (r *Reconciler) applyOnce(ctx context.Context, event *Event) (Outcome, error) {
	outcome := Outcome{EventType: event.ProviderType}

	switch event.Kind {
	case EventCheckoutCompleted:
		return r.applyCheckoutCompleted(ctx, event, outcome)
	case EventInvoicePaid:
		return r.applyInvoicePaid(ctx, event, outcome)
	case EventPaymentFailed:
		return r.applyPaymentFailed(ctx, event, outcome)
	case EventSubscriptionUpdated:
		return r.applySubscriptionUpdated(ctx, event, outcome)
	case EventSubscriptionDeleted:
		return r.applySubscriptionDeleted(ctx, event, outcome)
	default:
		r.log.InfoContext(ctx, "ignoring unrecognized billing event",
			logger.EventType(event.ProviderType))
		return outcome, nil
	}
}

func (r *Reconciler) applyCheckoutCompleted(ctx context.Context, event *Event, outcome Outcome) (Outcome, error) {
	companyID, err := parseCompanyID(event.CompanyID)
	if err != nil {
		return outcome, err
	}
	outcome.CompanyID = companyID

	planID := PlanID(event.Plan)
	subscriptionID := event.SubscriptionID
	customerID := event.CustomerID
	periodEnd := event.PeriodEnd

	// The checkout session payload carries metadata but not period
	// boundaries; the canonical subscription object does.
	if subscriptionID != "" {
		state, err := r.provider.LookupSubscription(ctx, subscriptionID)
		if err != nil {
			return outcome, errors.Join(ErrStorageWrite, err)
		}
		if state.CustomerID != "" {
			customerID = state.CustomerID
		}
		if state.PeriodEnd != nil {
			periodEnd = state.PeriodEnd
		}
		if planID == "" {
			planID = r.resolvePlan(state)
		}
	}
	if planID == "" || !r.catalog.Has(planID) {
		return outcome, errors.Join(ErrMissingMetadata, errors.New("checkout event has no resolvable plan"))
	}

	sub, err := r.load(ctx, companyID)
	if err != nil {
		return outcome, err
	}

	now := r.now().UTC()
	sub.Plan = planID
	sub.Status = StatusActive
	sub.StripeSubscriptionID = subscriptionID
	sub.StripeCustomerID = customerID
	sub.CurrentPeriodEnd = periodEnd
	sub.CancelAtPeriodEnd = false
	if sub.StartedAt == nil {
		sub.StartedAt = &now
	}

	return r.save(ctx, sub, outcome)
}

func (r *Reconciler) applyInvoicePaid(ctx context.Context, event *Event, outcome Outcome) (Outcome, error) {
	sub, ok, err := r.resolveBySubscription(ctx, event, &outcome)
	if err != nil || !ok {
		return outcome, err
	}

	sub.Status = StatusActive
	if event.PeriodEnd != nil {
		sub.CurrentPeriodEnd = event.PeriodEnd
	}
	if event.CustomerID != "" {
		sub.StripeCustomerID = event.CustomerID
	}
	if sub.StripeSubscriptionID == "" {
		sub.StripeSubscriptionID = event.SubscriptionID
	}

	return r.save(ctx, sub, outcome)
}

func (r *Reconciler) applyPaymentFailed(ctx context.Context, event *Event, outcome Outcome) (Outcome, error) {
	sub, ok, err := r.resolveBySubscription(ctx, event, &outcome)
	if err != nil || !ok {
		return outcome, err
	}

	sub.Status = StatusPastDue

	return r.save(ctx, sub, outcome)
}

func (r *Reconciler) applySubscriptionUpdated(ctx context.Context, event *Event, outcome Outcome) (Outcome, error) {
	sub, ok, err := r.resolveBySubscription(ctx, event, &outcome)
	if err != nil || !ok {
		return outcome, err
	}

	sub.Status = event.Status
	sub.CancelAtPeriodEnd = event.CancelAtPeriodEnd
	if event.PeriodEnd != nil {
		sub.CurrentPeriodEnd = event.PeriodEnd
	}
	if planID := PlanID(event.Plan); planID != "" && r.catalog.Has(planID) {
		sub.Plan = planID
	}
	if sub.StripeSubscriptionID == "" {
		sub.StripeSubscriptionID = event.SubscriptionID
	}

	return r.save(ctx, sub, outcome)
}

func (r *Reconciler) applySubscriptionDeleted(ctx context.Context, event *Event, outcome Outcome) (Outcome, error) {
	sub, ok, err := r.resolveBySubscription(ctx, event, &outcome)
	if err != nil || !ok {
		return outcome, err
	}

	// Keep the last known period end untouched: it is the grace boundary the
	// tenant already paid for.
	sub.Status = StatusCanceled
	sub.CancelAtPeriodEnd = false

	return r.save(ctx, sub, outcome)
}

// resolveBySubscription loads the tenant record an event targets. Events
// without a subscription reference (one-time payments) are not applicable and
// resolve to a successful no-op. Tenant identity comes from the event's own
// metadata when present, otherwise from the canonical subscription object.
func (r *Reconciler) resolveBySubscription(ctx context.Context, event *Event, outcome *Outcome) (*Subscription, bool, error) {
	if event.CompanyID == "" && event.SubscriptionID == "" {
		r.log.InfoContext(ctx, "billing event has no subscription reference, skipping",
			logger.EventType(event.ProviderType))
		return nil, false, nil
	}

	companyRaw := event.CompanyID
	if companyRaw == "" {
		state, err := r.provider.LookupSubscription(ctx, event.SubscriptionID)
		if err != nil {
			return nil, false, errors.Join(ErrStorageWrite, err)
		}
		companyRaw = state.CompanyID
	}

	companyID, err := parseCompanyID(companyRaw)
	if err != nil {
		return nil, false, err
	}
	outcome.CompanyID = companyID

	sub, err := r.load(ctx, companyID)
	if err != nil {
		return nil, false, err
	}
	return sub, true, nil
}

// resolvePlan maps provider subscription state to a catalog plan, preferring
// explicit metadata over the price id.
func (r *Reconciler) resolvePlan(state *SubscriptionState) PlanID {
	if state.Plan != "" && r.catalog.Has(PlanID(state.Plan)) {
		return PlanID(state.Plan)
	}
	if plan, ok := r.catalog.PlanByPriceID(state.PriceID); ok {
		return plan.ID
	}
	return ""
}

func (r *Reconciler) load(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	sub, err := r.store.Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			// The tenant id in the event does not exist here. A redelivery
			// can never succeed, so treat it like missing metadata.
			return nil, errors.Join(ErrMissingMetadata, err)
		}
		return nil, err
	}
	return sub, nil
}

func (r *Reconciler) save(ctx context.Context, sub *Subscription, outcome Outcome) (Outcome, error) {
	if err := r.store.Save(ctx, sub); err != nil {
		return outcome, err
	}
	outcome.Applied = true
	r.log.InfoContext(ctx, "billing event applied",
		logger.EventType(outcome.EventType),
		logger.CompanyID(sub.CompanyID.String()),
		logger.Plan(string(sub.Plan)),
		logger.SubscriptionStatus(string(sub.Status)))
	return outcome, nil
}

func parseCompanyID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, errors.Join(ErrMissingMetadata, errors.New("event metadata has no company id"))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Join(ErrMissingMetadata, err)
	}
	return id, nil
}

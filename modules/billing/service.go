package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stackdek/stackdek/pkg/logger"
)

// Config holds billing settings loaded from the environment.
type Config struct {
	ProviderKind       string `env:"BILLING_PROVIDER" envDefault:"stripe"` // stripe or dev
	PlanCatalogPath    string `env:"BILLING_PLANS_PATH" envDefault:"plans.yaml"`
	CheckoutSuccessURL string `env:"BILLING_CHECKOUT_SUCCESS_URL" envDefault:"/billing?checkout=success"`
	CheckoutCancelURL  string `env:"BILLING_CHECKOUT_CANCEL_URL" envDefault:"/billing?checkout=canceled"`
	PortalReturnURL    string `env:"BILLING_PORTAL_RETURN_URL" envDefault:"/billing"`
	DevWebhookSecret   string `env:"BILLING_DEV_WEBHOOK_SECRET" envDefault:""`
}

// Service ties the provider, catalog, store and reconciler together behind
// the operations the HTTP layer exposes.
type Service struct {
	store      Store
	provider   Provider
	catalog    *Catalog
	reconciler *Reconciler
	cfg        Config
	log        *slog.Logger
	now        func() time.Time
}

// NewService creates a billing service.
func NewService(store Store, provider Provider, catalog *Catalog, cfg Config, log *slog.Logger) *Service {
	return &Service{
		store:      store,
		provider:   provider,
		catalog:    catalog,
		reconciler: NewReconciler(store, provider, catalog, log),
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// SignatureHeader exposes the provider's webhook signature header name.
func (s *Service) SignatureHeader() string { return s.provider.SignatureHeader() }

// HandleWebhook authenticates and reconciles one raw webhook delivery.
// payload must be the unmodified request body bytes.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return Outcome{}, err
	}
	return s.reconciler.Apply(ctx, event)
}

// GetSubscription returns the tenant's subscription record.
func (s *Service) GetSubscription(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	return s.store.Get(ctx, companyID)
}

// CreateCheckout starts a hosted checkout for a paid plan. The free basic
// tier never goes through checkout; use Downgrade instead.
func (s *Service) CreateCheckout(ctx context.Context, companyID uuid.UUID, planID PlanID, email string) (*CheckoutSession, error) {
	plan, err := s.catalog.Plan(planID)
	if err != nil {
		return nil, err
	}
	if plan.StripePriceID == "" {
		return nil, ErrPlanNotPurchasable
	}
	if _, err := s.store.Get(ctx, companyID); err != nil {
		return nil, err
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		PriceID:    plan.StripePriceID,
		CompanyID:  companyID.String(),
		Plan:       string(plan.ID),
		Email:      email,
		SuccessURL: s.cfg.CheckoutSuccessURL,
		CancelURL:  s.cfg.CheckoutCancelURL,
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout session created",
		logger.CompanyID(companyID.String()), logger.Plan(string(plan.ID)))
	return sess, nil
}

// CreatePortal returns a billing portal link for a tenant that already has a
// provider-side customer.
func (s *Service) CreatePortal(ctx context.Context, companyID uuid.UUID) (*PortalSession, error) {
	sub, err := s.store.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if sub.StripeCustomerID == "" {
		return nil, ErrNoBillingAccount
	}
	return s.provider.CreatePortalSession(ctx, sub.StripeCustomerID, s.cfg.PortalReturnURL)
}

// Downgrade moves the tenant to the free basic tier, canceling any
// provider-side subscription first. This is the one plan change that bypasses
// checkout entirely.
func (s *Service) Downgrade(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	sub, err := s.store.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if sub.StripeSubscriptionID != "" {
		if err := s.provider.CancelSubscription(ctx, sub.StripeSubscriptionID); err != nil {
			return nil, err
		}
	}

	sub.Plan = PlanBasic
	sub.Status = StatusActive
	sub.StripeSubscriptionID = ""
	sub.CurrentPeriodEnd = nil
	sub.CancelAtPeriodEnd = false

	if err := s.store.Save(ctx, sub); err != nil {
		// One retry against fresh state; the downgrade intent wins over
		// whatever the concurrent webhook wrote.
		if !errors.Is(err, ErrRevisionConflict) {
			return nil, err
		}
		fresh, getErr := s.store.Get(ctx, companyID)
		if getErr != nil {
			return nil, getErr
		}
		fresh.Plan = PlanBasic
		fresh.Status = StatusActive
		fresh.StripeSubscriptionID = ""
		fresh.CurrentPeriodEnd = nil
		fresh.CancelAtPeriodEnd = false
		if err := s.store.Save(ctx, fresh); err != nil {
			return nil, err
		}
		sub = fresh
	}

	s.log.InfoContext(ctx, "tenant downgraded to basic",
		logger.CompanyID(companyID.String()))
	return sub, nil
}

// SetConnectedAccount persists the Stripe Connect account id a tenant linked
// for collecting its own customer payments.
func (s *Service) SetConnectedAccount(ctx context.Context, companyID uuid.UUID, accountID string) error {
	sub, err := s.store.Get(ctx, companyID)
	if err != nil {
		return err
	}
	sub.ConnectedAccountID = accountID
	if err := s.store.Save(ctx, sub); err != nil {
		if !errors.Is(err, ErrRevisionConflict) {
			return err
		}
		fresh, getErr := s.store.Get(ctx, companyID)
		if getErr != nil {
			return getErr
		}
		fresh.ConnectedAccountID = accountID
		return s.store.Save(ctx, fresh)
	}
	return nil
}

// Catalog exposes the plan catalog for read-only listing.
func (s *Service) Catalog() *Catalog { return s.catalog }

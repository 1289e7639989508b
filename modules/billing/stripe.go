package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeSignatureHeader is the header Stripe signs webhook deliveries with.
const StripeSignatureHeader = "Stripe-Signature"

// StripeConfig configures the Stripe billing provider.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

// StripeProvider implements Provider against the Stripe API. It holds its own
// API client instead of mutating the SDK's package-level key, so multiple
// providers with different credentials can coexist in one process.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed billing provider.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, errors.Join(ErrProvider, errors.New("stripe secret key is required"))
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.Join(ErrProvider, errors.New("stripe webhook secret is required"))
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeProvider{api: api, webhookSecret: cfg.WebhookSecret}, nil
}

func (p *StripeProvider) SignatureHeader() string { return StripeSignatureHeader }

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	metadata := map[string]string{
		"company_id": req.CompanyID,
		"plan":       req.Plan,
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		// Metadata on the subscription itself, not only the session, so every
		// later subscription.* webhook carries the tenant id.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
		Metadata: metadata,
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	return &PortalSession{URL: sess.URL}, nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := p.api.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return errors.Join(ErrProvider, err)
	}
	return nil
}

func (p *StripeProvider) LookupSubscription(ctx context.Context, subscriptionID string) (*SubscriptionState, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}

	state := &SubscriptionState{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CompanyID:         sub.Metadata["company_id"],
		Plan:              sub.Metadata["plan"],
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		state.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			state.PriceID = item.Price.ID
		}
		if item.CurrentPeriodEnd > 0 {
			t := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			state.PeriodEnd = &t
		}
	}
	return state, nil
}

// Wire structs for webhook payload objects. Deliveries may arrive on a
// different API version than the SDK's pinned one, so the relevant fields are
// decoded directly from the raw JSON instead of through SDK types.
type stripeCheckoutSessionPayload struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeInvoicePayload struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription string            `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"subscription_details"`
	} `json:"parent"`
	PeriodEnd int64 `json:"period_end"`
}

func (p *stripeInvoicePayload) subscriptionID() string {
	if p.Subscription != "" {
		return p.Subscription
	}
	if p.Parent != nil && p.Parent.SubscriptionDetails != nil {
		return p.Parent.SubscriptionDetails.Subscription
	}
	return ""
}

func (p *stripeInvoicePayload) subscriptionMetadata() map[string]string {
	if p.Parent != nil && p.Parent.SubscriptionDetails != nil {
		return p.Parent.SubscriptionDetails.Metadata
	}
	return nil
}

type stripeSubscriptionPayload struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	Status            string            `json:"status"`
	Metadata          map[string]string `json:"metadata"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (p *stripeSubscriptionPayload) periodEnd() *time.Time {
	ts := p.CurrentPeriodEnd
	if ts == 0 && len(p.Items.Data) > 0 {
		ts = p.Items.Data[0].CurrentPeriodEnd
	}
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func (p *stripeSubscriptionPayload) priceID() string {
	if len(p.Items.Data) > 0 {
		return p.Items.Data[0].Price.ID
	}
	return ""
}

func (p *StripeProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}

	event := &Event{ProviderType: string(stripeEvent.Type)}

	switch stripeEvent.Type {
	case "checkout.session.completed":
		var sess stripeCheckoutSessionPayload
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return nil, errors.Join(ErrProvider, err)
		}
		event.Kind = EventCheckoutCompleted
		event.CompanyID = sess.Metadata["company_id"]
		event.Plan = sess.Metadata["plan"]
		event.SubscriptionID = sess.Subscription
		event.CustomerID = sess.Customer

	case "invoice.paid", "invoice.payment_succeeded":
		var inv stripeInvoicePayload
		if err := json.Unmarshal(stripeEvent.Data.Raw, &inv); err != nil {
			return nil, errors.Join(ErrProvider, err)
		}
		event.Kind = EventInvoicePaid
		event.SubscriptionID = inv.subscriptionID()
		event.CustomerID = inv.Customer
		if md := inv.subscriptionMetadata(); md != nil {
			event.CompanyID = md["company_id"]
			event.Plan = md["plan"]
		}
		if inv.PeriodEnd > 0 {
			t := time.Unix(inv.PeriodEnd, 0).UTC()
			event.PeriodEnd = &t
		}

	case "invoice.payment_failed":
		var inv stripeInvoicePayload
		if err := json.Unmarshal(stripeEvent.Data.Raw, &inv); err != nil {
			return nil, errors.Join(ErrProvider, err)
		}
		event.Kind = EventPaymentFailed
		event.SubscriptionID = inv.subscriptionID()
		event.CustomerID = inv.Customer
		if md := inv.subscriptionMetadata(); md != nil {
			event.CompanyID = md["company_id"]
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripeSubscriptionPayload
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrProvider, err)
		}
		if stripeEvent.Type == "customer.subscription.deleted" {
			event.Kind = EventSubscriptionDeleted
		} else {
			event.Kind = EventSubscriptionUpdated
		}
		event.SubscriptionID = sub.ID
		event.CustomerID = sub.Customer
		event.CompanyID = sub.Metadata["company_id"]
		event.Plan = sub.Metadata["plan"]
		event.Status = mapProviderStatus(sub.Status)
		event.PeriodEnd = sub.periodEnd()
		event.CancelAtPeriodEnd = sub.CancelAtPeriodEnd

	default:
		event.Kind = EventUnknown
	}

	return event, nil
}

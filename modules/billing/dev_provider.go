package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stackdek/stackdek/pkg/webhook"
)

// DevSignatureHeader is the signature header the dev provider verifies.
const DevSignatureHeader = "X-Webhook-Signature"

// devEventEnvelope is the dev provider's wire format: the normalized event
// serialized directly, with a type discriminator matching EventKind.
type devEventEnvelope struct {
	Type              string     `json:"type"`
	CompanyID         string     `json:"company_id,omitempty"`
	Plan              string     `json:"plan,omitempty"`
	SubscriptionID    string     `json:"subscription_id,omitempty"`
	CustomerID        string     `json:"customer_id,omitempty"`
	Status            string     `json:"status,omitempty"`
	PeriodEnd         *time.Time `json:"period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end,omitempty"`
}

// DevProvider is a local stand-in for Stripe. Webhook deliveries are still
// HMAC-authenticated so the full verification path gets exercised without
// external infrastructure. Checkout and portal sessions return local URLs.
type DevProvider struct {
	secret  string
	maxAge  time.Duration
	baseURL string

	mu   sync.Mutex
	subs map[string]*SubscriptionState
	seq  int
}

// NewDevProvider creates a dev billing provider signing with secret.
func NewDevProvider(secret, baseURL string) (*DevProvider, error) {
	if secret == "" {
		return nil, errors.Join(ErrProvider, errors.New("dev provider secret is required"))
	}
	return &DevProvider{
		secret:  secret,
		maxAge:  5 * time.Minute,
		baseURL: baseURL,
		subs:    make(map[string]*SubscriptionState),
	}, nil
}

func (p *DevProvider) SignatureHeader() string { return DevSignatureHeader }

func (p *DevProvider) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	p.mu.Lock()
	p.seq++
	id := fmt.Sprintf("cs_dev_%04d", p.seq)
	p.mu.Unlock()

	return &CheckoutSession{
		SessionID: id,
		URL:       fmt.Sprintf("%s/dev/checkout/%s?plan=%s", p.baseURL, id, req.Plan),
	}, nil
}

func (p *DevProvider) CreatePortalSession(_ context.Context, customerID, _ string) (*PortalSession, error) {
	return &PortalSession{URL: fmt.Sprintf("%s/dev/portal/%s", p.baseURL, customerID)}, nil
}

func (p *DevProvider) CancelSubscription(_ context.Context, subscriptionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub, ok := p.subs[subscriptionID]; ok {
		sub.Status = "canceled"
	}
	return nil
}

// RegisterSubscription records provider-side state so LookupSubscription can
// resolve it, mirroring how checkout seeds state on the real provider.
func (p *DevProvider) RegisterSubscription(state SubscriptionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[state.ID] = &state
}

func (p *DevProvider) LookupSubscription(_ context.Context, subscriptionID string) (*SubscriptionState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.subs[subscriptionID]
	if !ok {
		return nil, errors.Join(ErrProvider, fmt.Errorf("unknown subscription %q", subscriptionID))
	}
	copied := *sub
	return &copied, nil
}

// SignPayload produces the signature header value for a payload, used by the
// dev event sender and by tests.
func (p *DevProvider) SignPayload(payload []byte) (string, error) {
	headers, err := webhook.SignPayload(p.secret, payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%s", headers.Timestamp, headers.Signature), nil
}

func (p *DevProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (*Event, error) {
	headers, err := webhook.ParseSignatureHeader(signature)
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}
	if err := webhook.VerifySignature(p.secret, payload, headers, p.maxAge); err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}

	var env devEventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Join(ErrProvider, err)
	}

	event := &Event{
		ProviderType:      env.Type,
		CompanyID:         env.CompanyID,
		Plan:              env.Plan,
		SubscriptionID:    env.SubscriptionID,
		CustomerID:        env.CustomerID,
		PeriodEnd:         env.PeriodEnd,
		CancelAtPeriodEnd: env.CancelAtPeriodEnd,
	}

	switch EventKind(env.Type) {
	case EventCheckoutCompleted, EventInvoicePaid, EventPaymentFailed,
		EventSubscriptionUpdated, EventSubscriptionDeleted:
		event.Kind = EventKind(env.Type)
	default:
		event.Kind = EventUnknown
	}
	if event.Kind == EventSubscriptionUpdated || event.Kind == EventSubscriptionDeleted {
		event.Status = mapProviderStatus(env.Status)
	}

	return event, nil
}

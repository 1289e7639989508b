package connect

import (
	"encoding/json"
	"errors"
	"time"

	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/stackdek/stackdek/pkg/webhook"
)

// PaymentEvent is one authenticated payment webhook delivery, reduced to
// what marking an invoice paid needs.
type PaymentEvent struct {
	ProviderType string
	Completed    bool
	CompanyID    string
	InvoiceID    string
}

// EventParser authenticates a raw webhook delivery and extracts the payment
// event from it.
type EventParser interface {
	SignatureHeader() string
	ParsePaymentEvent(payload []byte, signature string) (*PaymentEvent, error)
}

// StripeEventParser verifies Stripe-signed payment webhooks. Connected
// account events arrive on the platform's Connect webhook endpoint with
// their own signing secret.
type StripeEventParser struct {
	webhookSecret string
}

// NewStripeEventParser creates a parser for Stripe Connect webhook deliveries.
func NewStripeEventParser(webhookSecret string) (*StripeEventParser, error) {
	if webhookSecret == "" {
		return nil, errors.Join(ErrProvider, errors.New("connect webhook secret is required"))
	}
	return &StripeEventParser{webhookSecret: webhookSecret}, nil
}

func (p *StripeEventParser) SignatureHeader() string { return "Stripe-Signature" }

func (p *StripeEventParser) ParsePaymentEvent(payload []byte, signature string) (*PaymentEvent, error) {
	stripeEvent, err := stripewebhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, stripewebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}

	event := &PaymentEvent{ProviderType: string(stripeEvent.Type)}
	if stripeEvent.Type != "checkout.session.completed" {
		return event, nil
	}

	var sess struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
		return nil, errors.Join(ErrProvider, err)
	}

	event.Completed = true
	event.CompanyID = sess.Metadata["company_id"]
	event.InvoiceID = sess.Metadata["invoice_id"]
	return event, nil
}

// DevEventParser verifies HMAC-signed payment webhooks emitted by local
// tooling, pairing with DevCollector.
type DevEventParser struct {
	secret string
	maxAge time.Duration
}

// NewDevEventParser creates a parser for development webhook deliveries.
func NewDevEventParser(secret string) *DevEventParser {
	return &DevEventParser{secret: secret, maxAge: 5 * time.Minute}
}

func (p *DevEventParser) SignatureHeader() string { return "X-Webhook-Signature" }

func (p *DevEventParser) ParsePaymentEvent(payload []byte, signature string) (*PaymentEvent, error) {
	headers, err := webhook.ParseSignatureHeader(signature)
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}
	if err := webhook.VerifySignature(p.secret, payload, headers, p.maxAge); err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}

	var envelope struct {
		Type      string `json:"type"`
		CompanyID string `json:"company_id"`
		InvoiceID string `json:"invoice_id"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, errors.Join(ErrProvider, err)
	}

	event := &PaymentEvent{ProviderType: envelope.Type}
	if envelope.Type == "payment.completed" {
		event.Completed = true
		event.CompanyID = envelope.CompanyID
		event.InvoiceID = envelope.InvoiceID
	}
	return event, nil
}

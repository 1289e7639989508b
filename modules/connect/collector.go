package connect

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/stackdek/stackdek/modules/invoice"
)

// StripeCollector creates hosted payment pages on a tenant's connected
// account. It implements invoice.PaymentCollector.
type StripeCollector struct {
	api        *client.API
	successURL string
	cancelURL  string
}

// NewStripeCollector creates a Stripe-backed payment collector.
func NewStripeCollector(secretKey, successURL, cancelURL string) (*StripeCollector, error) {
	if secretKey == "" {
		return nil, errors.Join(ErrProvider, errors.New("stripe secret key is required"))
	}

	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeCollector{api: api, successURL: successURL, cancelURL: cancelURL}, nil
}

func (c *StripeCollector) CreatePaymentLink(ctx context.Context, p invoice.PaymentLinkParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		// The webhook resolves the invoice from this metadata.
		Metadata: map[string]string{
			"invoice_id": p.InvoiceID.String(),
			"company_id": p.CompanyID.String(),
		},
	}
	// The session is created on the connected account, so the payment lands
	// there rather than on the platform.
	params.SetStripeAccount(p.ConnectedAccountID)
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", errors.Join(ErrProvider, err)
	}
	return sess.URL, nil
}

// DevCollector fabricates local payment links for development, where no
// Stripe account exists. It implements invoice.PaymentCollector.
type DevCollector struct {
	baseURL string
}

// NewDevCollector creates a development payment collector.
func NewDevCollector(baseURL string) *DevCollector {
	return &DevCollector{baseURL: baseURL}
}

func (c *DevCollector) CreatePaymentLink(_ context.Context, p invoice.PaymentLinkParams) (string, error) {
	return c.baseURL + "/dev/pay/" + p.InvoiceID.String(), nil
}

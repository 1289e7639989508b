package invoice_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/modules/billing"
	"github.com/stackdek/stackdek/modules/client"
	"github.com/stackdek/stackdek/modules/invoice"
	"github.com/stackdek/stackdek/modules/quote"
)

type stubCollector struct {
	calls  int
	err    error
	params invoice.PaymentLinkParams
}

func (c *stubCollector) CreatePaymentLink(_ context.Context, params invoice.PaymentLinkParams) (string, error) {
	c.calls++
	c.params = params
	if c.err != nil {
		return "", c.err
	}
	return "https://pay.example.com/" + params.InvoiceID.String(), nil
}

type recordingNotifier struct {
	sent int
	paid int
}

func (n *recordingNotifier) InvoiceSent(context.Context, *invoice.Invoice) error {
	n.sent++
	return nil
}

func (n *recordingNotifier) PaymentReceived(context.Context, *invoice.Invoice) error {
	n.paid++
	return nil
}

type invoiceFixture struct {
	svc       *invoice.Service
	subs      *billing.MemoryStore
	collector *stubCollector
	notifier  *recordingNotifier
	companyID uuid.UUID
	clientID  uuid.UUID
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()

	companyID := uuid.New()
	clientID := uuid.New()

	clients := client.NewMemoryStore()
	require.NoError(t, clients.Create(context.Background(), &client.Client{
		ID:        clientID,
		CompanyID: companyID,
		Name:      "Hillside Homeowners",
		Email:     "hoa@example.com",
	}))

	subs := billing.NewMemoryStore()
	collector := &stubCollector{}
	notifier := &recordingNotifier{}
	svc := invoice.NewService(invoice.NewMemoryStore(), clients, subs, collector, notifier,
		slog.New(slog.DiscardHandler))

	return &invoiceFixture{
		svc:       svc,
		subs:      subs,
		collector: collector,
		notifier:  notifier,
		companyID: companyID,
		clientID:  clientID,
	}
}

func (f *invoiceFixture) create(t *testing.T) *invoice.Invoice {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), f.companyID, invoice.CreateParams{
		ClientID: f.clientID,
		Items: []invoice.ItemParams{
			{Description: "Deck boards", Quantity: 40, UnitPriceCents: 1250},
			{Description: "Labor", Quantity: 16, UnitPriceCents: 9500},
		},
		TaxRateBps: 875,
	})
	require.NoError(t, err)
	return inv
}

func TestInvoiceCreate(t *testing.T) {
	t.Parallel()

	t.Run("computes totals from line items", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)

		inv := f.create(t)

		assert.Equal(t, invoice.StatusDraft, inv.Status)
		assert.Equal(t, "INV-1", inv.Number)
		assert.Equal(t, int64(50000+152000), inv.SubtotalCents)
		assert.Equal(t, int64(202000*875/10000), inv.TaxCents)
		assert.Equal(t, inv.SubtotalCents+inv.TaxCents, inv.TotalCents)
		assert.Equal(t, "usd", inv.Currency)
		require.Len(t, inv.Items, 2)
		assert.Equal(t, int64(50000), inv.Items[0].AmountCents)
	})

	t.Run("numbers are sequential per company", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)

		first := f.create(t)
		second := f.create(t)

		assert.Equal(t, "INV-1", first.Number)
		assert.Equal(t, "INV-2", second.Number)
	})

	t.Run("rejects unknown client", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)

		_, err := f.svc.Create(context.Background(), f.companyID, invoice.CreateParams{
			ClientID: uuid.New(),
			Items:    []invoice.ItemParams{{Description: "Labor", Quantity: 1, UnitPriceCents: 100}},
		})
		require.ErrorIs(t, err, invoice.ErrUnknownClient)
	})

	t.Run("rejects empty and invalid input", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)

		_, err := f.svc.Create(context.Background(), f.companyID, invoice.CreateParams{ClientID: f.clientID})
		require.ErrorIs(t, err, invoice.ErrInvalidInput)

		_, err = f.svc.Create(context.Background(), f.companyID, invoice.CreateParams{
			ClientID: f.clientID,
			Items:    []invoice.ItemParams{{Description: "  ", Quantity: 1, UnitPriceCents: 100}},
		})
		require.ErrorIs(t, err, invoice.ErrInvalidInput)

		_, err = f.svc.Create(context.Background(), f.companyID, invoice.CreateParams{
			ClientID: f.clientID,
			Items:    []invoice.ItemParams{{Description: "Labor", Quantity: 0, UnitPriceCents: 100}},
		})
		require.ErrorIs(t, err, invoice.ErrInvalidInput)
	})
}

func TestInvoiceCreateFromQuote(t *testing.T) {
	t.Parallel()
	f := newInvoiceFixture(t)

	q := &quote.Quote{
		ID:        uuid.New(),
		CompanyID: f.companyID,
		ClientID:  f.clientID,
		Number:    "Q-7",
		Status:    quote.StatusAccepted,
		Items: []quote.Item{
			{ID: uuid.New(), Description: "Demo and haul away", Quantity: 1, UnitPriceCents: 45000, AmountCents: 45000},
			{ID: uuid.New(), Description: "Composite decking", Quantity: 30, UnitPriceCents: 2200, AmountCents: 66000},
		},
		SubtotalCents: 111000,
		TaxRateBps:    600,
		TaxCents:      6660,
		TotalCents:    117660,
		Notes:         "Net 15",
	}

	id, err := f.svc.CreateFromQuote(context.Background(), q)
	require.NoError(t, err)

	inv, err := f.svc.Get(context.Background(), f.companyID, id)
	require.NoError(t, err)

	assert.Equal(t, invoice.StatusDraft, inv.Status)
	require.NotNil(t, inv.QuoteID)
	assert.Equal(t, q.ID, *inv.QuoteID)
	assert.Equal(t, q.ClientID, inv.ClientID)
	assert.Equal(t, q.SubtotalCents, inv.SubtotalCents)
	assert.Equal(t, q.TaxCents, inv.TaxCents)
	assert.Equal(t, q.TotalCents, inv.TotalCents)
	assert.Equal(t, q.Notes, inv.Notes)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Demo and haul away", inv.Items[0].Description)
	assert.Equal(t, int64(66000), inv.Items[1].AmountCents)
}

func TestInvoiceTransitions(t *testing.T) {
	t.Parallel()

	t.Run("send moves draft to sent and notifies", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)
		inv := f.create(t)

		sent, err := f.svc.Send(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusSent, sent.Status)
		assert.Equal(t, 1, f.notifier.sent)

		_, err = f.svc.Send(context.Background(), f.companyID, inv.ID)
		require.ErrorIs(t, err, invoice.ErrInvalidTransition)
	})

	t.Run("mark paid is idempotent", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)
		inv := f.create(t)

		_, err := f.svc.Send(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)

		paid, err := f.svc.MarkPaid(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusPaid, paid.Status)
		require.NotNil(t, paid.PaidAt)
		assert.Equal(t, 1, f.notifier.paid)

		again, err := f.svc.MarkPaid(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, paid.PaidAt.Unix(), again.PaidAt.Unix())
		assert.Equal(t, 1, f.notifier.paid, "replay must not re-notify")
	})

	t.Run("void rejects paid invoices", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)
		inv := f.create(t)

		_, err := f.svc.Send(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)
		_, err = f.svc.MarkPaid(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)

		_, err = f.svc.Void(context.Background(), f.companyID, inv.ID)
		require.ErrorIs(t, err, invoice.ErrInvalidTransition)
	})

	t.Run("mark paid rejects void invoices", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)
		inv := f.create(t)

		_, err := f.svc.Void(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)

		_, err = f.svc.MarkPaid(context.Background(), f.companyID, inv.ID)
		require.ErrorIs(t, err, invoice.ErrInvalidTransition)
	})

	t.Run("other tenant cannot touch the invoice", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)
		inv := f.create(t)

		_, err := f.svc.Get(context.Background(), uuid.New(), inv.ID)
		require.ErrorIs(t, err, invoice.ErrNotFound)

		_, err = f.svc.MarkPaid(context.Background(), uuid.New(), inv.ID)
		require.ErrorIs(t, err, invoice.ErrNotFound)
	})
}

func TestInvoicePaymentLink(t *testing.T) {
	t.Parallel()

	t.Run("requires a connected account", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)
		inv := f.create(t)

		f.subs.Seed(billing.Subscription{CompanyID: f.companyID, Status: billing.StatusActive})

		_, err := f.svc.CreatePaymentLink(context.Background(), f.companyID, inv.ID)
		require.ErrorIs(t, err, invoice.ErrNoConnectedAccount)
		assert.Zero(t, f.collector.calls)
	})

	t.Run("creates and persists the link once", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)
		inv := f.create(t)

		f.subs.Seed(billing.Subscription{
			CompanyID:          f.companyID,
			Status:             billing.StatusActive,
			ConnectedAccountID: "acct_123",
		})

		linked, err := f.svc.CreatePaymentLink(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, linked.PaymentLinkURL)
		assert.Equal(t, "acct_123", f.collector.params.ConnectedAccountID)
		assert.Equal(t, inv.TotalCents, f.collector.params.AmountCents)
		assert.Equal(t, "Invoice "+inv.Number, f.collector.params.Description)

		again, err := f.svc.CreatePaymentLink(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, linked.PaymentLinkURL, again.PaymentLinkURL)
		assert.Equal(t, 1, f.collector.calls)
	})

	t.Run("collector failure surfaces and leaves no link", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)
		inv := f.create(t)

		f.subs.Seed(billing.Subscription{
			CompanyID:          f.companyID,
			Status:             billing.StatusActive,
			ConnectedAccountID: "acct_123",
		})
		f.collector.err = errors.New("provider unavailable")

		_, err := f.svc.CreatePaymentLink(context.Background(), f.companyID, inv.ID)
		require.Error(t, err)

		got, err := f.svc.Get(context.Background(), f.companyID, inv.ID)
		require.NoError(t, err)
		assert.Empty(t, got.PaymentLinkURL)
	})

	t.Run("qr renders the payment link as png", func(t *testing.T) {
		t.Parallel()
		f := newInvoiceFixture(t)
		inv := f.create(t)

		f.subs.Seed(billing.Subscription{
			CompanyID:          f.companyID,
			Status:             billing.StatusActive,
			ConnectedAccountID: "acct_123",
		})

		png, err := f.svc.PaymentQR(context.Background(), f.companyID, inv.ID, 256)
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), png[:4])
	})
}

func TestInvoiceOverdue(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := &invoice.Invoice{Status: invoice.StatusSent, DueDate: &due}

	assert.False(t, inv.Overdue(due.Add(-time.Hour)))
	assert.True(t, inv.Overdue(due.Add(time.Hour)))

	inv.Status = invoice.StatusPaid
	assert.False(t, inv.Overdue(due.Add(time.Hour)))
}

package quote_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/modules/client"
	"github.com/stackdek/stackdek/modules/quote"
)

type stubInvoiceCreator struct {
	calls int
	err   error
	last  *quote.Quote
	id    uuid.UUID
}

func (c *stubInvoiceCreator) CreateFromQuote(_ context.Context, q *quote.Quote) (uuid.UUID, error) {
	c.calls++
	c.last = q
	if c.err != nil {
		return uuid.Nil, c.err
	}
	if c.id == uuid.Nil {
		c.id = uuid.New()
	}
	return c.id, nil
}

type countingNotifier struct {
	sent int
	err  error
}

func (n *countingNotifier) QuoteSent(context.Context, *quote.Quote) error {
	n.sent++
	return n.err
}

type quoteFixture struct {
	svc       *quote.Service
	invoices  *stubInvoiceCreator
	notifier  *countingNotifier
	companyID uuid.UUID
	clientID  uuid.UUID
}

func newQuoteFixture(t *testing.T) *quoteFixture {
	t.Helper()

	companyID := uuid.New()
	clientID := uuid.New()

	clients := client.NewMemoryStore()
	require.NoError(t, clients.Create(context.Background(), &client.Client{
		ID:        clientID,
		CompanyID: companyID,
		Name:      "Riverside Rentals",
		Email:     "office@example.com",
	}))

	invoices := &stubInvoiceCreator{}
	notifier := &countingNotifier{}
	svc := quote.NewService(quote.NewMemoryStore(), clients, invoices, notifier,
		slog.New(slog.DiscardHandler))

	return &quoteFixture{
		svc:       svc,
		invoices:  invoices,
		notifier:  notifier,
		companyID: companyID,
		clientID:  clientID,
	}
}

func (f *quoteFixture) create(t *testing.T) *quote.Quote {
	t.Helper()
	q, err := f.svc.Create(context.Background(), f.companyID, quote.CreateParams{
		ClientID: f.clientID,
		Items: []quote.ItemParams{
			{Description: "Pressure washing", Quantity: 1, UnitPriceCents: 25000},
			{Description: "Stain and seal", Quantity: 3, UnitPriceCents: 18000},
		},
		TaxRateBps: 600,
	})
	require.NoError(t, err)
	return q
}

// accepted walks a fresh quote through send and accept.
func (f *quoteFixture) accepted(t *testing.T) *quote.Quote {
	t.Helper()
	q := f.create(t)
	_, err := f.svc.Send(context.Background(), f.companyID, q.ID)
	require.NoError(t, err)
	q, err = f.svc.Accept(context.Background(), f.companyID, q.ID)
	require.NoError(t, err)
	return q
}

func TestQuoteCreate(t *testing.T) {
	t.Parallel()

	t.Run("computes totals from line items", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)

		q := f.create(t)

		assert.Equal(t, quote.StatusDraft, q.Status)
		assert.Equal(t, "Q-1", q.Number)
		assert.Equal(t, int64(25000+54000), q.SubtotalCents)
		assert.Equal(t, int64(79000*600/10000), q.TaxCents)
		assert.Equal(t, q.SubtotalCents+q.TaxCents, q.TotalCents)
		require.Len(t, q.Items, 2)
		assert.Equal(t, int64(54000), q.Items[1].AmountCents)
	})

	t.Run("zero tax rate yields no tax", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)

		q, err := f.svc.Create(context.Background(), f.companyID, quote.CreateParams{
			ClientID: f.clientID,
			Items:    []quote.ItemParams{{Description: "Labor", Quantity: 2, UnitPriceCents: 5000}},
		})
		require.NoError(t, err)
		assert.Zero(t, q.TaxCents)
		assert.Equal(t, q.SubtotalCents, q.TotalCents)
	})

	t.Run("rejects unknown client", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)

		_, err := f.svc.Create(context.Background(), f.companyID, quote.CreateParams{
			ClientID: uuid.New(),
			Items:    []quote.ItemParams{{Description: "Labor", Quantity: 1, UnitPriceCents: 100}},
		})
		require.ErrorIs(t, err, quote.ErrUnknownClient)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)

		_, err := f.svc.Create(context.Background(), f.companyID, quote.CreateParams{ClientID: f.clientID})
		require.ErrorIs(t, err, quote.ErrInvalidInput)

		_, err = f.svc.Create(context.Background(), f.companyID, quote.CreateParams{
			ClientID:   f.clientID,
			Items:      []quote.ItemParams{{Description: "Labor", Quantity: 1, UnitPriceCents: 100}},
			TaxRateBps: -1,
		})
		require.ErrorIs(t, err, quote.ErrInvalidInput)
	})
}

func TestQuoteTransitions(t *testing.T) {
	t.Parallel()

	t.Run("send moves draft to sent and notifies", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)
		q := f.create(t)

		sent, err := f.svc.Send(context.Background(), f.companyID, q.ID)
		require.NoError(t, err)
		assert.Equal(t, quote.StatusSent, sent.Status)
		assert.Equal(t, 1, f.notifier.sent)
	})

	t.Run("notification failure does not roll back", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)
		f.notifier.err = errors.New("smtp down")
		q := f.create(t)

		sent, err := f.svc.Send(context.Background(), f.companyID, q.ID)
		require.NoError(t, err)
		assert.Equal(t, quote.StatusSent, sent.Status)
	})

	t.Run("accept and decline require a sent quote", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)
		q := f.create(t)

		_, err := f.svc.Accept(context.Background(), f.companyID, q.ID)
		require.ErrorIs(t, err, quote.ErrInvalidTransition)
		_, err = f.svc.Decline(context.Background(), f.companyID, q.ID)
		require.ErrorIs(t, err, quote.ErrInvalidTransition)

		_, err = f.svc.Send(context.Background(), f.companyID, q.ID)
		require.NoError(t, err)

		accepted, err := f.svc.Accept(context.Background(), f.companyID, q.ID)
		require.NoError(t, err)
		assert.Equal(t, quote.StatusAccepted, accepted.Status)

		_, err = f.svc.Decline(context.Background(), f.companyID, q.ID)
		require.ErrorIs(t, err, quote.ErrInvalidTransition)
	})

	t.Run("other tenant cannot touch the quote", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)
		q := f.create(t)

		_, err := f.svc.Get(context.Background(), uuid.New(), q.ID)
		require.ErrorIs(t, err, quote.ErrNotFound)

		_, err = f.svc.Send(context.Background(), uuid.New(), q.ID)
		require.ErrorIs(t, err, quote.ErrNotFound)
	})
}

func TestQuoteConvert(t *testing.T) {
	t.Parallel()

	t.Run("converts an accepted quote once", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)
		q := f.accepted(t)

		converted, invoiceID, err := f.svc.Convert(context.Background(), f.companyID, q.ID)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, invoiceID)
		require.NotNil(t, converted.InvoiceID)
		assert.Equal(t, invoiceID, *converted.InvoiceID)
		assert.Equal(t, q.ID, f.invoices.last.ID)

		_, _, err = f.svc.Convert(context.Background(), f.companyID, q.ID)
		require.ErrorIs(t, err, quote.ErrAlreadyConverted)
		assert.Equal(t, 1, f.invoices.calls)
	})

	t.Run("rejects quotes that are not accepted", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)
		q := f.create(t)

		_, _, err := f.svc.Convert(context.Background(), f.companyID, q.ID)
		require.ErrorIs(t, err, quote.ErrNotAccepted)
		assert.Zero(t, f.invoices.calls)
	})

	t.Run("invoice failure leaves the quote unconverted", func(t *testing.T) {
		t.Parallel()
		f := newQuoteFixture(t)
		f.invoices.err = errors.New("invoice store down")
		q := f.accepted(t)

		_, _, err := f.svc.Convert(context.Background(), f.companyID, q.ID)
		require.Error(t, err)

		got, err := f.svc.Get(context.Background(), f.companyID, q.ID)
		require.NoError(t, err)
		assert.Nil(t, got.InvoiceID)

		f.invoices.err = nil
		_, invoiceID, err := f.svc.Convert(context.Background(), f.companyID, q.ID)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, invoiceID)
	})
}

func TestQuoteNumbering(t *testing.T) {
	t.Parallel()
	f := newQuoteFixture(t)

	first := f.create(t)
	second := f.create(t)

	assert.Equal(t, "Q-1", first.Number)
	assert.Equal(t, "Q-2", second.Number)
}

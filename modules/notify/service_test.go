package notify_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/modules/client"
	"github.com/stackdek/stackdek/modules/company"
	"github.com/stackdek/stackdek/modules/invoice"
	"github.com/stackdek/stackdek/modules/notify"
	"github.com/stackdek/stackdek/modules/quote"
	"github.com/stackdek/stackdek/pkg/email"
)

type capturingSender struct {
	sent []email.SendEmailParams
}

func (s *capturingSender) SendEmail(_ context.Context, params email.SendEmailParams) error {
	s.sent = append(s.sent, params)
	return nil
}

type notifyFixture struct {
	svc       *notify.Service
	sender    *capturingSender
	companyID uuid.UUID
	clientID  uuid.UUID
}

func newNotifyFixture(t *testing.T, clientEmail string) *notifyFixture {
	t.Helper()

	companyID := uuid.New()
	clientID := uuid.New()

	companies := company.NewMemoryStore()
	require.NoError(t, companies.Create(context.Background(), &company.Company{
		ID:    companyID,
		Name:  "Cedar Ridge Decks",
		Email: "owner@cedarridge.example.com",
	}, time.Now().Add(14*24*time.Hour)))

	clients := client.NewMemoryStore()
	require.NoError(t, clients.Create(context.Background(), &client.Client{
		ID:        clientID,
		CompanyID: companyID,
		Name:      "Pat Alvarez",
		Email:     clientEmail,
	}))

	sender := &capturingSender{}
	svc := notify.NewService(sender, clients, companies, slog.New(slog.DiscardHandler))

	return &notifyFixture{svc: svc, sender: sender, companyID: companyID, clientID: clientID}
}

func TestQuoteSent(t *testing.T) {
	t.Parallel()

	t.Run("emails the client with company name and total", func(t *testing.T) {
		t.Parallel()
		f := newNotifyFixture(t, "pat@example.com")

		err := f.svc.QuoteSent(context.Background(), &quote.Quote{
			CompanyID:  f.companyID,
			ClientID:   f.clientID,
			Number:     "Q-3",
			TotalCents: 128550,
		})
		require.NoError(t, err)

		require.Len(t, f.sender.sent, 1)
		msg := f.sender.sent[0]
		assert.Equal(t, "pat@example.com", msg.SendTo)
		assert.Equal(t, "Quote Q-3 from Cedar Ridge Decks", msg.Subject)
		assert.Contains(t, msg.BodyHTML, "$1285.50")
		assert.Equal(t, "quote-sent", msg.Tag)
	})

	t.Run("fails when the client has no email", func(t *testing.T) {
		t.Parallel()
		f := newNotifyFixture(t, "")

		err := f.svc.QuoteSent(context.Background(), &quote.Quote{
			CompanyID: f.companyID,
			ClientID:  f.clientID,
			Number:    "Q-3",
		})
		require.ErrorIs(t, err, notify.ErrNoRecipient)
		assert.Empty(t, f.sender.sent)
	})

	t.Run("fails for an unknown client", func(t *testing.T) {
		t.Parallel()
		f := newNotifyFixture(t, "pat@example.com")

		err := f.svc.QuoteSent(context.Background(), &quote.Quote{
			CompanyID: f.companyID,
			ClientID:  uuid.New(),
			Number:    "Q-3",
		})
		require.ErrorIs(t, err, client.ErrNotFound)
	})
}

func TestInvoiceSent(t *testing.T) {
	t.Parallel()
	f := newNotifyFixture(t, "pat@example.com")

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	err := f.svc.InvoiceSent(context.Background(), &invoice.Invoice{
		CompanyID:      f.companyID,
		ClientID:       f.clientID,
		Number:         "INV-9",
		TotalCents:     50000,
		DueDate:        &due,
		PaymentLinkURL: "https://pay.example.com/abc",
	})
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "Invoice INV-9 from Cedar Ridge Decks", msg.Subject)
	assert.Contains(t, msg.BodyHTML, "September 15, 2026")
	assert.Contains(t, msg.BodyHTML, "https://pay.example.com/abc")
	assert.Equal(t, "invoice-sent", msg.Tag)
}

func TestPaymentReceived(t *testing.T) {
	t.Parallel()

	t.Run("emails the contractor", func(t *testing.T) {
		t.Parallel()
		f := newNotifyFixture(t, "pat@example.com")

		err := f.svc.PaymentReceived(context.Background(), &invoice.Invoice{
			CompanyID:  f.companyID,
			ClientID:   f.clientID,
			Number:     "INV-9",
			TotalCents: 50000,
		})
		require.NoError(t, err)

		require.Len(t, f.sender.sent, 1)
		msg := f.sender.sent[0]
		assert.Equal(t, "owner@cedarridge.example.com", msg.SendTo)
		assert.Contains(t, msg.BodyHTML, "Pat Alvarez")
		assert.Equal(t, "payment-received", msg.Tag)
	})

	t.Run("still notifies when the client is gone", func(t *testing.T) {
		t.Parallel()
		f := newNotifyFixture(t, "pat@example.com")

		err := f.svc.PaymentReceived(context.Background(), &invoice.Invoice{
			CompanyID:  f.companyID,
			ClientID:   uuid.New(),
			Number:     "INV-9",
			TotalCents: 50000,
		})
		require.NoError(t, err)

		require.Len(t, f.sender.sent, 1)
		assert.Contains(t, f.sender.sent[0].BodyHTML, "a client")
	})
}

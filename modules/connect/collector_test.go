package connect_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/modules/connect"
	"github.com/stackdek/stackdek/modules/invoice"
)

func TestDevCollector(t *testing.T) {
	t.Parallel()

	collector := connect.NewDevCollector("http://localhost:8080")
	invoiceID := uuid.New()

	url, err := collector.CreatePaymentLink(context.Background(), invoice.PaymentLinkParams{
		InvoiceID:          invoiceID,
		ConnectedAccountID: "acct_dev",
		AmountCents:        12500,
		Currency:           "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/dev/pay/"+invoiceID.String(), url)
}

func TestNewStripeCollectorRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := connect.NewStripeCollector("", "/paid", "/canceled")
	require.ErrorIs(t, err, connect.ErrProvider)
}

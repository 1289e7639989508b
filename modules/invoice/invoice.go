package invoice

import (
	"time"

	"github.com/google/uuid"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
	StatusVoid  Status = "void"
)

// Item is one line on an invoice. Amounts are integer cents.
type Item struct {
	ID             uuid.UUID `json:"id"`
	Description    string    `json:"description"`
	Quantity       int64     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	AmountCents    int64     `json:"amount_cents"`
}

// Invoice bills a client for completed work. An invoice created from a quote
// keeps a back-reference to it.
type Invoice struct {
	ID             uuid.UUID  `json:"id"`
	CompanyID      uuid.UUID  `json:"company_id"`
	ClientID       uuid.UUID  `json:"client_id"`
	QuoteID        *uuid.UUID `json:"quote_id,omitempty"`
	Number         string     `json:"number"`
	Status         Status     `json:"status"`
	Items          []Item     `json:"items"`
	SubtotalCents  int64      `json:"subtotal_cents"`
	TaxRateBps     int64      `json:"tax_rate_bps"`
	TaxCents       int64      `json:"tax_cents"`
	TotalCents     int64      `json:"total_cents"`
	Currency       string     `json:"currency"`
	Notes          string     `json:"notes,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	PaymentLinkURL string     `json:"payment_link_url,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Overdue reports whether a sent invoice is past its due date at now.
func (i *Invoice) Overdue(now time.Time) bool {
	return i.Status == StatusSent && i.DueDate != nil && now.After(*i.DueDate)
}

// ItemParams carries one line of invoice input.
type ItemParams struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// CreateParams carries new invoice input.
type CreateParams struct {
	ClientID   uuid.UUID    `json:"client_id"`
	Items      []ItemParams `json:"items"`
	TaxRateBps int64        `json:"tax_rate_bps,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	DueDate    *time.Time   `json:"due_date,omitempty"`
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	ClientID uuid.UUID
	Status   Status
	Limit    int
	Offset   int
}

func (i *Invoice) computeTotals() {
	i.SubtotalCents = 0
	for k := range i.Items {
		i.Items[k].AmountCents = i.Items[k].Quantity * i.Items[k].UnitPriceCents
		i.SubtotalCents += i.Items[k].AmountCents
	}
	i.TaxCents = i.SubtotalCents * i.TaxRateBps / 10000
	i.TotalCents = i.SubtotalCents + i.TaxCents
}

package quote

import (
	"time"

	"github.com/google/uuid"
)

// Status is the quote lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Item is one line on a quote. Amounts are integer cents.
type Item struct {
	ID             uuid.UUID `json:"id"`
	Description    string    `json:"description"`
	Quantity       int64     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	AmountCents    int64     `json:"amount_cents"`
}

// Quote is a priced proposal for a job.
type Quote struct {
	ID            uuid.UUID  `json:"id"`
	CompanyID     uuid.UUID  `json:"company_id"`
	ClientID      uuid.UUID  `json:"client_id"`
	JobID         uuid.UUID  `json:"job_id,omitempty"`
	Number        string     `json:"number"`
	Status        Status     `json:"status"`
	Items         []Item     `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxRateBps    int64      `json:"tax_rate_bps"` // basis points, 875 = 8.75%
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
	Notes         string     `json:"notes,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	InvoiceID     *uuid.UUID `json:"invoice_id,omitempty"` // set once converted
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ItemParams carries one line of quote input.
type ItemParams struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// CreateParams carries new quote input.
type CreateParams struct {
	ClientID   uuid.UUID    `json:"client_id"`
	JobID      uuid.UUID    `json:"job_id,omitempty"`
	Items      []ItemParams `json:"items"`
	TaxRateBps int64        `json:"tax_rate_bps,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	ValidUntil *time.Time   `json:"valid_until,omitempty"`
}

// ListFilter narrows quote listings.
type ListFilter struct {
	ClientID uuid.UUID
	Status   Status
	Limit    int
	Offset   int
}

// computeTotals fills the derived amount fields from the items and tax rate.
func (q *Quote) computeTotals() {
	q.SubtotalCents = 0
	for i := range q.Items {
		q.Items[i].AmountCents = q.Items[i].Quantity * q.Items[i].UnitPriceCents
		q.SubtotalCents += q.Items[i].AmountCents
	}
	q.TaxCents = q.SubtotalCents * q.TaxRateBps / 10000
	q.TotalCents = q.SubtotalCents + q.TaxCents
}

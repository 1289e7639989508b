package invoice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackdek/stackdek/modules/billing"
	"github.com/stackdek/stackdek/modules/client"
	"github.com/stackdek/stackdek/modules/quote"
	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/qrcode"
)

// PaymentLinkParams describes a hosted payment page request for one invoice,
// charged through the tenant's connected account.
type PaymentLinkParams struct {
	InvoiceID          uuid.UUID
	CompanyID          uuid.UUID
	ConnectedAccountID string
	Description        string
	AmountCents        int64
	Currency           string
}

// PaymentCollector creates hosted payment pages on connected accounts.
// Implemented by the connect module.
type PaymentCollector interface {
	CreatePaymentLink(ctx context.Context, params PaymentLinkParams) (string, error)
}

// Notifier delivers invoice lifecycle notifications. Optional.
type Notifier interface {
	InvoiceSent(ctx context.Context, inv *Invoice) error
	PaymentReceived(ctx context.Context, inv *Invoice) error
}

// Service implements invoice operations scoped to one tenant.
type Service struct {
	store     Store
	clients   client.Store
	subs      billing.Store
	collector PaymentCollector
	notifier  Notifier
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates an invoice service. collector and notifier may be nil.
func NewService(store Store, clients client.Store, subs billing.Store, collector PaymentCollector, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		store:     store,
		clients:   clients,
		subs:      subs,
		collector: collector,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// Create drafts an invoice for an existing client.
func (s *Service) Create(ctx context.Context, companyID uuid.UUID, params CreateParams) (*Invoice, error) {
	if params.ClientID == uuid.Nil {
		return nil, errors.Join(ErrInvalidInput, errors.New("client id is required"))
	}
	if len(params.Items) == 0 {
		return nil, errors.Join(ErrInvalidInput, errors.New("at least one line item is required"))
	}
	if params.TaxRateBps < 0 {
		return nil, errors.Join(ErrInvalidInput, errors.New("tax rate cannot be negative"))
	}

	if _, err := s.clients.Get(ctx, companyID, params.ClientID); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return nil, ErrUnknownClient
		}
		return nil, err
	}

	items := make([]Item, 0, len(params.Items))
	for _, it := range params.Items {
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			return nil, errors.Join(ErrInvalidInput, errors.New("line item description is required"))
		}
		if it.Quantity <= 0 || it.UnitPriceCents < 0 {
			return nil, errors.Join(ErrInvalidInput, errors.New("line item quantity and price must be non-negative"))
		}
		items = append(items, Item{
			ID:             uuid.New(),
			Description:    desc,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	number, err := s.store.NextNumber(ctx, companyID)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		ID:         uuid.New(),
		CompanyID:  companyID,
		ClientID:   params.ClientID,
		Number:     number,
		Status:     StatusDraft,
		Items:      items,
		TaxRateBps: params.TaxRateBps,
		Currency:   "usd",
		Notes:      params.Notes,
		DueDate:    params.DueDate,
	}
	inv.computeTotals()

	if err := s.store.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "invoice created", logger.CompanyID(companyID.String()))
	return inv, nil
}

// CreateFromQuote materializes an accepted quote as a draft invoice,
// carrying over the line items and totals verbatim.
func (s *Service) CreateFromQuote(ctx context.Context, q *quote.Quote) (uuid.UUID, error) {
	number, err := s.store.NextNumber(ctx, q.CompanyID)
	if err != nil {
		return uuid.Nil, err
	}

	items := make([]Item, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, Item{
			ID:             uuid.New(),
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			AmountCents:    it.AmountCents,
		})
	}

	quoteID := q.ID
	inv := &Invoice{
		ID:            uuid.New(),
		CompanyID:     q.CompanyID,
		ClientID:      q.ClientID,
		QuoteID:       &quoteID,
		Number:        number,
		Status:        StatusDraft,
		Items:         items,
		SubtotalCents: q.SubtotalCents,
		TaxRateBps:    q.TaxRateBps,
		TaxCents:      q.TaxCents,
		TotalCents:    q.TotalCents,
		Currency:      "usd",
		Notes:         q.Notes,
	}

	if err := s.store.Create(ctx, inv); err != nil {
		return uuid.Nil, err
	}
	s.log.InfoContext(ctx, "invoice created from quote",
		logger.CompanyID(q.CompanyID.String()))
	return inv.ID, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error) {
	return s.store.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Invoice, error) {
	return s.store.List(ctx, companyID, filter)
}

// Send moves a draft invoice to sent and fires the notification.
func (s *Service) Send(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.store.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, ErrInvalidTransition
	}

	inv, err = s.store.SetStatus(ctx, companyID, id, StatusSent, nil)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.InvoiceSent(ctx, inv); err != nil {
			s.log.WarnContext(ctx, "invoice sent but notification failed",
				logger.CompanyID(companyID.String()), logger.Error(err))
		}
	}
	return inv, nil
}

// MarkPaid records payment for a sent invoice. Safe to replay: marking an
// already-paid invoice keeps the original paid timestamp.
func (s *Service) MarkPaid(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.store.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusPaid {
		return inv, nil
	}
	if inv.Status == StatusVoid {
		return nil, ErrInvalidTransition
	}

	paidAt := s.now().UTC()
	inv, err = s.store.SetStatus(ctx, companyID, id, StatusPaid, &paidAt)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.PaymentReceived(ctx, inv); err != nil {
			s.log.WarnContext(ctx, "payment recorded but notification failed",
				logger.CompanyID(companyID.String()), logger.Error(err))
		}
	}
	return inv, nil
}

// Void cancels an unpaid invoice.
func (s *Service) Void(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.store.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusPaid {
		return nil, ErrInvalidTransition
	}
	return s.store.SetStatus(ctx, companyID, id, StatusVoid, nil)
}

// CreatePaymentLink builds a hosted payment page through the tenant's
// connected account and stores the URL on the invoice. Idempotent: an
// existing link is returned as-is.
func (s *Service) CreatePaymentLink(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.store.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv.PaymentLinkURL != "" {
		return inv, nil
	}

	sub, err := s.subs.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if sub.ConnectedAccountID == "" {
		return nil, ErrNoConnectedAccount
	}

	url, err := s.collector.CreatePaymentLink(ctx, PaymentLinkParams{
		InvoiceID:          inv.ID,
		CompanyID:          companyID,
		ConnectedAccountID: sub.ConnectedAccountID,
		Description:        "Invoice " + inv.Number,
		AmountCents:        inv.TotalCents,
		Currency:           inv.Currency,
	})
	if err != nil {
		return nil, err
	}

	return s.store.SetPaymentLink(ctx, companyID, id, url)
}

// PaymentQR renders the invoice's payment link as a PNG QR code.
func (s *Service) PaymentQR(ctx context.Context, companyID, id uuid.UUID, size int) ([]byte, error) {
	inv, err := s.CreatePaymentLink(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return qrcode.Generate(inv.PaymentLinkURL, size)
}

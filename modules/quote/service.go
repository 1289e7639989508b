package quote

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/stackdek/stackdek/modules/client"
	"github.com/stackdek/stackdek/pkg/logger"
)

// InvoiceCreator turns an accepted quote into an invoice. Implemented by the
// invoice module; an interface here keeps the dependency one-directional.
type InvoiceCreator interface {
	CreateFromQuote(ctx context.Context, q *Quote) (uuid.UUID, error)
}

// Notifier delivers quote lifecycle notifications. Optional.
type Notifier interface {
	QuoteSent(ctx context.Context, q *Quote) error
}

// Service implements quote operations scoped to one tenant.
type Service struct {
	store    Store
	clients  client.Store
	invoices InvoiceCreator
	notifier Notifier
	log      *slog.Logger
}

// NewService creates a quote service. notifier may be nil.
func NewService(store Store, clients client.Store, invoices InvoiceCreator, notifier Notifier, log *slog.Logger) *Service {
	return &Service{store: store, clients: clients, invoices: invoices, notifier: notifier, log: log}
}

// Create drafts a quote for an existing client, computing totals from the
// line items.
func (s *Service) Create(ctx context.Context, companyID uuid.UUID, params CreateParams) (*Quote, error) {
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

	q := &Quote{
		ID:         uuid.New(),
		CompanyID:  companyID,
		ClientID:   params.ClientID,
		JobID:      params.JobID,
		Number:     number,
		Status:     StatusDraft,
		Items:      items,
		TaxRateBps: params.TaxRateBps,
		Notes:      params.Notes,
		ValidUntil: params.ValidUntil,
	}
	q.computeTotals()

	if err := s.store.Create(ctx, q); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "quote created", logger.CompanyID(companyID.String()))
	return q, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Quote, error) {
	return s.store.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Quote, error) {
	return s.store.List(ctx, companyID, filter)
}

// Send moves a draft quote to sent and fires the notification. A failed
// notification does not roll the status back.
func (s *Service) Send(ctx context.Context, companyID, id uuid.UUID) (*Quote, error) {
	q, err := s.transition(ctx, companyID, id, StatusSent, StatusDraft)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.QuoteSent(ctx, q); err != nil {
			s.log.WarnContext(ctx, "quote sent but notification failed",
				logger.CompanyID(companyID.String()), logger.Error(err))
		}
	}
	return q, nil
}

// Accept marks a sent quote as accepted.
func (s *Service) Accept(ctx context.Context, companyID, id uuid.UUID) (*Quote, error) {
	return s.transition(ctx, companyID, id, StatusAccepted, StatusSent)
}

// Decline marks a sent quote as declined.
func (s *Service) Decline(ctx context.Context, companyID, id uuid.UUID) (*Quote, error) {
	return s.transition(ctx, companyID, id, StatusDeclined, StatusSent)
}

// Convert creates an invoice from an accepted quote. Each quote converts at
// most once; the quote keeps a pointer to the invoice it produced.
func (s *Service) Convert(ctx context.Context, companyID, id uuid.UUID) (*Quote, uuid.UUID, error) {
	q, err := s.store.Get(ctx, companyID, id)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if q.Status != StatusAccepted {
		return nil, uuid.Nil, ErrNotAccepted
	}
	if q.InvoiceID != nil {
		return nil, uuid.Nil, ErrAlreadyConverted
	}

	invoiceID, err := s.invoices.CreateFromQuote(ctx, q)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if err := s.store.MarkConverted(ctx, companyID, id, invoiceID); err != nil {
		return nil, uuid.Nil, err
	}

	q.InvoiceID = &invoiceID
	s.log.InfoContext(ctx, "quote converted to invoice",
		logger.CompanyID(companyID.String()))
	return q, invoiceID, nil
}

func (s *Service) transition(ctx context.Context, companyID, id uuid.UUID, to Status, from ...Status) (*Quote, error) {
	q, err := s.store.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, f := range from {
		if q.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidTransition
	}
	return s.store.SetStatus(ctx, companyID, id, to)
}

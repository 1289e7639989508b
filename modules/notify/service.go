package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stackdek/stackdek/modules/client"
	"github.com/stackdek/stackdek/modules/company"
	"github.com/stackdek/stackdek/modules/invoice"
	"github.com/stackdek/stackdek/modules/quote"
	"github.com/stackdek/stackdek/pkg/email"
	"github.com/stackdek/stackdek/pkg/logger"
)

// Service sends lifecycle email. It implements quote.Notifier and
// invoice.Notifier.
type Service struct {
	sender    email.Sender
	clients   client.Store
	companies company.Store
	log       *slog.Logger
}

// NewService creates a notification service.
func NewService(sender email.Sender, clients client.Store, companies company.Store, log *slog.Logger) *Service {
	return &Service{sender: sender, clients: clients, companies: companies, log: log}
}

// QuoteSent emails the quote to the client it was drafted for.
func (s *Service) QuoteSent(ctx context.Context, q *quote.Quote) error {
	to, companyName, err := s.recipient(ctx, q.CompanyID, q.ClientID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"<p>%s sent you quote %s for %s.</p><p>Reply to this email to accept or ask questions.</p>",
		html.EscapeString(companyName), html.EscapeString(q.Number), formatCents(q.TotalCents))

	return s.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  fmt.Sprintf("Quote %s from %s", q.Number, companyName),
		BodyHTML: body,
		Tag:      "quote-sent",
	})
}

// InvoiceSent emails the invoice to the client, including the payment link
// when one exists.
func (s *Service) InvoiceSent(ctx context.Context, inv *invoice.Invoice) error {
	to, companyName, err := s.recipient(ctx, inv.CompanyID, inv.ClientID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("<p>%s sent you invoice %s for %s.</p>",
		html.EscapeString(companyName), html.EscapeString(inv.Number), formatCents(inv.TotalCents))
	if inv.DueDate != nil {
		body += fmt.Sprintf("<p>Due by %s.</p>", inv.DueDate.Format("January 2, 2006"))
	}
	if inv.PaymentLinkURL != "" {
		body += fmt.Sprintf(`<p><a href="%s">Pay online</a></p>`, html.EscapeString(inv.PaymentLinkURL))
	}

	return s.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  fmt.Sprintf("Invoice %s from %s", inv.Number, companyName),
		BodyHTML: body,
		Tag:      "invoice-sent",
	})
}

// PaymentReceived emails the contractor that an invoice was paid.
func (s *Service) PaymentReceived(ctx context.Context, inv *invoice.Invoice) error {
	comp, err := s.companies.Get(ctx, inv.CompanyID)
	if err != nil {
		return err
	}

	clientName := "a client"
	if c, err := s.clients.Get(ctx, inv.CompanyID, inv.ClientID); err == nil {
		clientName = c.Name
	} else {
		s.log.WarnContext(ctx, "payment notice without client name",
			logger.CompanyID(inv.CompanyID.String()), logger.Error(err))
	}

	body := fmt.Sprintf("<p>Invoice %s was paid by %s: %s.</p>",
		html.EscapeString(inv.Number), html.EscapeString(clientName), formatCents(inv.TotalCents))

	return s.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   comp.Email,
		Subject:  fmt.Sprintf("Payment received for invoice %s", inv.Number),
		BodyHTML: body,
		Tag:      "payment-received",
	})
}

// recipient resolves the client's email address and the sending company's
// display name.
func (s *Service) recipient(ctx context.Context, companyID, clientID uuid.UUID) (string, string, error) {
	c, err := s.clients.Get(ctx, companyID, clientID)
	if err != nil {
		return "", "", err
	}
	if c.Email == "" {
		return "", "", fmt.Errorf("%w: client %s has no email address", ErrNoRecipient, c.Name)
	}

	comp, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return "", "", err
	}
	return c.Email, comp.Name, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

package connect

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/stackdek/stackdek/modules/invoice"
	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/webhook"
)

// Stripe Connect standard OAuth endpoints.
var stripeConnectEndpoint = oauth2.Endpoint{
	AuthURL:  "https://connect.stripe.com/oauth/authorize",
	TokenURL: "https://connect.stripe.com/oauth/token",
}

// Config holds Stripe Connect settings loaded from the environment.
type Config struct {
	ClientID      string        `env:"STRIPE_CONNECT_CLIENT_ID"`
	SecretKey     string        `env:"STRIPE_SECRET_KEY"`
	RedirectURL   string        `env:"STRIPE_CONNECT_REDIRECT_URL"`
	StateSecret   string        `env:"STRIPE_CONNECT_STATE_SECRET"`
	StateMaxAge   time.Duration `env:"STRIPE_CONNECT_STATE_MAX_AGE" envDefault:"15m"`
	WebhookSecret string        `env:"STRIPE_CONNECT_WEBHOOK_SECRET"`
	SuccessURL    string        `env:"STRIPE_CONNECT_SUCCESS_URL" envDefault:"/billing?connect=success"`
	FailureURL    string        `env:"STRIPE_CONNECT_FAILURE_URL" envDefault:"/billing?connect=failed"`
}

// AccountLinker persists the connected account id for a tenant. Implemented
// by the billing service.
type AccountLinker interface {
	SetConnectedAccount(ctx context.Context, companyID uuid.UUID, accountID string) error
}

// InvoicePayments records incoming payments. Implemented by the invoice
// service; MarkPaid is idempotent, so webhook redelivery is safe.
type InvoicePayments interface {
	MarkPaid(ctx context.Context, companyID, id uuid.UUID) (*invoice.Invoice, error)
}

// Service runs the Connect OAuth flow and processes payment webhooks.
type Service struct {
	oauth    *oauth2.Config
	billing  AccountLinker
	invoices InvoicePayments
	parser   EventParser
	cfg      Config
	log      *slog.Logger
}

// NewService creates a connect service.
func NewService(cfg Config, billing AccountLinker, invoices InvoicePayments, parser EventParser, log *slog.Logger) (*Service, error) {
	if cfg.ClientID == "" {
		return nil, errors.Join(ErrProvider, errors.New("connect client id is required"))
	}
	if cfg.StateSecret == "" {
		return nil, errors.Join(ErrProvider, errors.New("state secret is required"))
	}

	// Stripe's Connect token endpoint authenticates with the platform's
	// secret API key as the client secret.
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.SecretKey,
		Endpoint:     stripeConnectEndpoint,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{"read_write"},
	}

	return &Service{
		oauth:    oauthCfg,
		billing:  billing,
		invoices: invoices,
		parser:   parser,
		cfg:      cfg,
		log:      log,
	}, nil
}

// AuthorizeURL builds the Stripe authorization URL for a tenant. The state
// parameter carries the tenant id, signed so the callback can trust it
// without a session.
func (s *Service) AuthorizeURL(companyID uuid.UUID) (string, error) {
	state, err := s.signState(companyID)
	if err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state), nil
}

// Callback completes the OAuth flow: verifies the state, exchanges the code
// for the connected account id and stores it on the tenant's subscription.
func (s *Service) Callback(ctx context.Context, state, code string) (uuid.UUID, string, error) {
	companyID, err := s.verifyState(state)
	if err != nil {
		return uuid.Nil, "", err
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return uuid.Nil, "", errors.Join(ErrExchangeFailed, err)
	}

	accountID, _ := token.Extra("stripe_user_id").(string)
	if accountID == "" {
		return uuid.Nil, "", ErrNoAccountID
	}

	if err := s.billing.SetConnectedAccount(ctx, companyID, accountID); err != nil {
		return uuid.Nil, "", err
	}

	s.log.InfoContext(ctx, "stripe account connected",
		logger.CompanyID(companyID.String()))
	return companyID, accountID, nil
}

// HandleWebhook authenticates one payment webhook delivery and marks the
// referenced invoice paid. Non-payment events are acknowledged and dropped.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*PaymentEvent, error) {
	event, err := s.parser.ParsePaymentEvent(payload, signature)
	if err != nil {
		return nil, err
	}
	if !event.Completed {
		return event, nil
	}

	companyID, err := uuid.Parse(event.CompanyID)
	if err != nil {
		return event, ErrMissingMetadata
	}
	invoiceID, err := uuid.Parse(event.InvoiceID)
	if err != nil {
		return event, ErrMissingMetadata
	}

	if _, err := s.invoices.MarkPaid(ctx, companyID, invoiceID); err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			return event, ErrMissingMetadata
		}
		return event, err
	}

	s.log.InfoContext(ctx, "invoice paid via connected account",
		logger.CompanyID(event.CompanyID), logger.EventType(event.ProviderType))
	return event, nil
}

// State format: "<company uuid>.<timestamp>.<hex hmac>". The hmac covers
// "<timestamp>.<company uuid>", reusing the webhook signature scheme.
func (s *Service) signState(companyID uuid.UUID) (string, error) {
	headers, err := webhook.SignPayload(s.cfg.StateSecret, []byte(companyID.String()))
	if err != nil {
		return "", err
	}
	return companyID.String() + "." + strconv.FormatInt(headers.Timestamp, 10) + "." + headers.Signature, nil
}

func (s *Service) verifyState(state string) (uuid.UUID, error) {
	parts := strings.Split(state, ".")
	if len(parts) != 3 {
		return uuid.Nil, ErrInvalidState
	}
	companyID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, ErrInvalidState
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return uuid.Nil, ErrInvalidState
	}

	headers := webhook.SignatureHeaders{Signature: parts[2], Timestamp: ts}
	if err := webhook.VerifySignature(s.cfg.StateSecret, []byte(parts[0]), headers, s.cfg.StateMaxAge); err != nil {
		return uuid.Nil, errors.Join(ErrInvalidState, err)
	}
	return companyID, nil
}

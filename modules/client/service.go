package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/stackdek/stackdek/modules/billing"
	"github.com/stackdek/stackdek/pkg/logger"
)

// Service implements client operations scoped to one tenant, enforcing the
// plan's client cap on creation.
type Service struct {
	store   Store
	subs    billing.Store
	catalog *billing.Catalog
	log     *slog.Logger
}

// NewService creates a client service.
func NewService(store Store, subs billing.Store, catalog *billing.Catalog, log *slog.Logger) *Service {
	return &Service{store: store, subs: subs, catalog: catalog, log: log}
}

// Create adds a client, rejecting with ErrLimitReached once the tenant's
// plan cap is hit. A missing subscription row does not block creation.
func (s *Service) Create(ctx context.Context, companyID uuid.UUID, params CreateParams) (*Client, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("name is required"))
	}

	if err := s.checkLimit(ctx, companyID); err != nil {
		return nil, err
	}

	c := &Client{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      name,
		Email:     strings.TrimSpace(params.Email),
		Phone:     strings.TrimSpace(params.Phone),
		Address:   strings.TrimSpace(params.Address),
		Notes:     params.Notes,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "client created", logger.CompanyID(companyID.String()))
	return c, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Client, error) {
	return s.store.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Client, error) {
	return s.store.List(ctx, companyID, filter)
}

func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, params UpdateParams) (*Client, error) {
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("name cannot be blank"))
	}
	return s.store.Update(ctx, companyID, id, params)
}

func (s *Service) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.store.Delete(ctx, companyID, id)
}

func (s *Service) checkLimit(ctx context.Context, companyID uuid.UUID) error {
	sub, err := s.subs.Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			return nil
		}
		return err
	}
	plan, err := s.catalog.Plan(sub.Plan)
	if err != nil {
		return nil
	}
	if plan.MaxClients <= 0 {
		return nil
	}
	count, err := s.store.Count(ctx, companyID)
	if err != nil {
		return err
	}
	if count >= plan.MaxClients {
		return ErrLimitReached
	}
	return nil
}

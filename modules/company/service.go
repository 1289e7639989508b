package company

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackdek/stackdek/modules/billing"
	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/tenant"
)

// Service manages company lifecycle. Creating a company implicitly seeds its
// subscription: basic plan in trial, with the trial window taken from the
// plan catalog.
type Service struct {
	store   Store
	catalog *billing.Catalog
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a company service.
func NewService(store Store, catalog *billing.Catalog, log *slog.Logger) *Service {
	return &Service{store: store, catalog: catalog, log: log, now: time.Now}
}

// CreateParams carries company signup input.
type CreateParams struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Create registers a new company and returns it. The companies row starts on
// the basic plan in trial status.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Company, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("name is required"))
	}
	email := strings.TrimSpace(params.Email)
	if email == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("email is required"))
	}

	basic, err := s.catalog.Plan(billing.PlanBasic)
	if err != nil {
		return nil, err
	}

	c := &Company{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
		Phone: strings.TrimSpace(params.Phone),
	}
	if err := s.store.Create(ctx, c, basic.TrialEndsAt(s.now().UTC())); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "company created",
		logger.CompanyID(c.ID.String()), logger.Plan(string(billing.PlanBasic)))
	return c, nil
}

// Get returns the company by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.store.Get(ctx, id)
}

// Update applies profile changes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Company, error) {
	return s.store.Update(ctx, id, params)
}

// TenantProvider adapts the company store to tenant resolution middleware.
func (s *Service) TenantProvider() tenant.Provider {
	return tenant.ProviderFunc(func(ctx context.Context, identifier string) (tenant.Tenant, error) {
		id, err := uuid.Parse(identifier)
		if err != nil {
			return tenant.Tenant{}, tenant.ErrTenantNotFound
		}
		c, err := s.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return tenant.Tenant{}, tenant.ErrTenantNotFound
			}
			return tenant.Tenant{}, err
		}
		return tenant.Tenant{ID: c.ID, Name: c.Name, Active: c.Active}, nil
	})
}

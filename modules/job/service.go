package job

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/stackdek/stackdek/modules/billing"
	"github.com/stackdek/stackdek/modules/client"
	"github.com/stackdek/stackdek/pkg/logger"
)

// Service implements job operations scoped to one tenant, enforcing the
// plan's job cap and the client reference on creation.
type Service struct {
	store   Store
	clients client.Store
	subs    billing.Store
	catalog *billing.Catalog
	log     *slog.Logger
}

// NewService creates a job service.
func NewService(store Store, clients client.Store, subs billing.Store, catalog *billing.Catalog, log *slog.Logger) *Service {
	return &Service{store: store, clients: clients, subs: subs, catalog: catalog, log: log}
}

// Create adds a job in the lead stage for an existing client.
func (s *Service) Create(ctx context.Context, companyID uuid.UUID, params CreateParams) (*Job, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("title is required"))
	}
	if params.ClientID == uuid.Nil {
		return nil, errors.Join(ErrInvalidInput, errors.New("client id is required"))
	}

	if _, err := s.clients.Get(ctx, companyID, params.ClientID); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return nil, ErrUnknownClient
		}
		return nil, err
	}
	if err := s.checkLimit(ctx, companyID); err != nil {
		return nil, err
	}

	j := &Job{
		ID:          uuid.New(),
		CompanyID:   companyID,
		ClientID:    params.ClientID,
		Title:       title,
		Description: params.Description,
		Status:      StatusLead,
		Address:     strings.TrimSpace(params.Address),
		ScheduledAt: params.ScheduledAt,
	}
	if err := s.store.Create(ctx, j); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "job created", logger.CompanyID(companyID.String()))
	return j, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Job, error) {
	return s.store.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Job, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.store.List(ctx, companyID, filter)
}

func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, params UpdateParams) (*Job, error) {
	if params.Title != nil && strings.TrimSpace(*params.Title) == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("title cannot be blank"))
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, ErrInvalidStatus
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
	if plan.MaxJobs <= 0 {
		return nil
	}
	count, err := s.store.Count(ctx, companyID)
	if err != nil {
		return err
	}
	if count >= plan.MaxJobs {
		return ErrLimitReached
	}
	return nil
}

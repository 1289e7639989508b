package company

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu        sync.Mutex
	companies map[uuid.UUID]Company

	// TrialEnds records the trial end passed at creation so callers can
	// assert subscription seeding without a billing store in the loop.
	TrialEnds map[uuid.UUID]time.Time
}

// NewMemoryStore creates an empty in-memory company store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies: make(map[uuid.UUID]Company),
		TrialEnds: make(map[uuid.UUID]time.Time),
	}
}

func (s *MemoryStore) Create(_ context.Context, c *Company, trialEndsAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.companies[c.ID]; exists {
		return ErrAlreadyExists
	}
	now := time.Now().UTC()
	c.Active = true
	c.CreatedAt = now
	c.UpdatedAt = now
	s.companies[c.ID] = *c
	s.TrialEnds[c.ID] = trialEndsAt
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := c
	return &copied, nil
}

func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, params UpdateParams) (*Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	if params.Name != nil {
		c.Name = *params.Name
	}
	if params.Email != nil {
		c.Email = *params.Email
	}
	if params.Phone != nil {
		c.Phone = *params.Phone
	}
	c.UpdatedAt = time.Now().UTC()
	s.companies[id] = c
	copied := c
	return &copied, nil
}

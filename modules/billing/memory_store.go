package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It enforces the same revision semantics as the Postgres store.
type MemoryStore struct {
	mu   sync.Mutex
	subs map[uuid.UUID]Subscription
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[uuid.UUID]Subscription)}
}

// Seed inserts a record directly, bypassing revision checks.
func (s *MemoryStore) Seed(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.CompanyID] = sub
}

func (s *MemoryStore) Get(_ context.Context, companyID uuid.UUID) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[companyID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	copied := sub
	return &copied, nil
}

func (s *MemoryStore) Save(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.subs[sub.CompanyID]
	if !ok {
		return ErrSubscriptionNotFound
	}
	if current.Revision != sub.Revision {
		return ErrRevisionConflict
	}

	sub.Revision++
	sub.UpdatedAt = time.Now().UTC()
	s.subs[sub.CompanyID] = *sub
	return nil
}

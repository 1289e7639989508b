package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]Job)}
}

func (s *MemoryStore) Create(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	s.jobs[j.ID] = *j
	return nil
}

func (s *MemoryStore) Get(_ context.Context, companyID, id uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.CompanyID != companyID {
		return nil, ErrNotFound
	}
	copied := j
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context, companyID uuid.UUID, filter ListFilter) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Job
	for _, j := range s.jobs {
		if j.CompanyID != companyID {
			continue
		}
		if filter.ClientID != uuid.Nil && j.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, companyID, id uuid.UUID, params UpdateParams) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.CompanyID != companyID {
		return nil, ErrNotFound
	}
	if params.Title != nil {
		j.Title = *params.Title
	}
	if params.Description != nil {
		j.Description = *params.Description
	}
	if params.Status != nil {
		j.Status = *params.Status
	}
	if params.Address != nil {
		j.Address = *params.Address
	}
	if params.ScheduledAt != nil {
		j.ScheduledAt = params.ScheduledAt
	}
	j.UpdatedAt = time.Now().UTC()
	s.jobs[id] = j
	copied := j
	return &copied, nil
}

func (s *MemoryStore) Delete(_ context.Context, companyID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.CompanyID != companyID {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) Count(_ context.Context, companyID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, j := range s.jobs {
		if j.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

package client

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	clients map[uuid.UUID]Client
}

// NewMemoryStore creates an empty in-memory client store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clients: make(map[uuid.UUID]Client)}
}

func (s *MemoryStore) Create(_ context.Context, c *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.clients[c.ID] = *c
	return nil
}

func (s *MemoryStore) Get(_ context.Context, companyID, id uuid.UUID) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok || c.CompanyID != companyID {
		return nil, ErrNotFound
	}
	copied := c
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context, companyID uuid.UUID, filter ListFilter) ([]Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Client
	for _, c := range s.clients {
		if c.CompanyID != companyID {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(c.Name), needle) &&
				!strings.Contains(strings.ToLower(c.Email), needle) {
				continue
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

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

func (s *MemoryStore) Update(_ context.Context, companyID, id uuid.UUID, params UpdateParams) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok || c.CompanyID != companyID {
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
	if params.Address != nil {
		c.Address = *params.Address
	}
	if params.Notes != nil {
		c.Notes = *params.Notes
	}
	c.UpdatedAt = time.Now().UTC()
	s.clients[id] = c
	copied := c
	return &copied, nil
}

func (s *MemoryStore) Delete(_ context.Context, companyID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok || c.CompanyID != companyID {
		return ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *MemoryStore) Count(_ context.Context, companyID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.clients {
		if c.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

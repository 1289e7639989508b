package quote

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu     sync.Mutex
	quotes map[uuid.UUID]Quote
}

// NewMemoryStore creates an empty in-memory quote store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quotes: make(map[uuid.UUID]Quote)}
}

func cloneQuote(q Quote) Quote {
	items := make([]Item, len(q.Items))
	copy(items, q.Items)
	q.Items = items
	return q
}

func (s *MemoryStore) Create(_ context.Context, q *Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now
	s.quotes[q.ID] = cloneQuote(*q)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, companyID, id uuid.UUID) (*Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok || q.CompanyID != companyID {
		return nil, ErrNotFound
	}
	copied := cloneQuote(q)
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context, companyID uuid.UUID, filter ListFilter) ([]Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Quote
	for _, q := range s.quotes {
		if q.CompanyID != companyID {
			continue
		}
		if filter.ClientID != uuid.Nil && q.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		out = append(out, cloneQuote(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

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

func (s *MemoryStore) SetStatus(_ context.Context, companyID, id uuid.UUID, status Status) (*Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok || q.CompanyID != companyID {
		return nil, ErrNotFound
	}
	q.Status = status
	q.UpdatedAt = time.Now().UTC()
	s.quotes[id] = q
	copied := cloneQuote(q)
	return &copied, nil
}

func (s *MemoryStore) MarkConverted(_ context.Context, companyID, id, invoiceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok || q.CompanyID != companyID {
		return ErrNotFound
	}
	if q.InvoiceID != nil {
		return ErrAlreadyConverted
	}
	q.InvoiceID = &invoiceID
	q.UpdatedAt = time.Now().UTC()
	s.quotes[id] = q
	return nil
}

func (s *MemoryStore) NextNumber(_ context.Context, companyID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, q := range s.quotes {
		if q.CompanyID == companyID {
			n++
		}
	}
	return "Q-" + strconv.FormatInt(n+1, 10), nil
}

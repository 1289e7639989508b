package invoice

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
	mu       sync.Mutex
	invoices map[uuid.UUID]Invoice
}

// NewMemoryStore creates an empty in-memory invoice store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{invoices: make(map[uuid.UUID]Invoice)}
}

func cloneInvoice(inv Invoice) Invoice {
	items := make([]Item, len(inv.Items))
	copy(items, inv.Items)
	inv.Items = items
	return inv
}

func (s *MemoryStore) Create(_ context.Context, inv *Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, companyID, id uuid.UUID) (*Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return nil, ErrNotFound
	}
	copied := cloneInvoice(inv)
	return &copied, nil
}

func (s *MemoryStore) List(_ context.Context, companyID uuid.UUID, filter ListFilter) ([]Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Invoice
	for _, inv := range s.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		if filter.ClientID != uuid.Nil && inv.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, cloneInvoice(inv))
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

func (s *MemoryStore) SetStatus(_ context.Context, companyID, id uuid.UUID, status Status, paidAt *time.Time) (*Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return nil, ErrNotFound
	}
	inv.Status = status
	if paidAt != nil {
		inv.PaidAt = paidAt
	}
	inv.UpdatedAt = time.Now().UTC()
	s.invoices[id] = inv
	copied := cloneInvoice(inv)
	return &copied, nil
}

func (s *MemoryStore) SetPaymentLink(_ context.Context, companyID, id uuid.UUID, url string) (*Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return nil, ErrNotFound
	}
	inv.PaymentLinkURL = url
	inv.UpdatedAt = time.Now().UTC()
	s.invoices[id] = inv
	copied := cloneInvoice(inv)
	return &copied, nil
}

func (s *MemoryStore) NextNumber(_ context.Context, companyID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, inv := range s.invoices {
		if inv.CompanyID == companyID {
			n++
		}
	}
	return "INV-" + strconv.FormatInt(n+1, 10), nil
}

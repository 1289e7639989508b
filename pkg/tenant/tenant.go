package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Tenant is the request-scoped view of one contractor company.
type Tenant struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

// Provider loads tenant records by identifier. Implementations typically sit
// on top of the companies store.
type Provider interface {
	// GetByIdentifier returns the tenant for the given identifier, or
	// ErrTenantNotFound.
	GetByIdentifier(ctx context.Context, identifier string) (Tenant, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, identifier string) (Tenant, error)

func (f ProviderFunc) GetByIdentifier(ctx context.Context, identifier string) (Tenant, error) {
	return f(ctx, identifier)
}

package tenant

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// WithTenant returns a context carrying the tenant.
func WithTenant(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the tenant stored in the context, if any.
func FromContext(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(Tenant)
	return t, ok
}

// IDFromContext returns the tenant company id, or uuid.Nil when absent.
func IDFromContext(ctx context.Context) uuid.UUID {
	t, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil
	}
	return t.ID
}

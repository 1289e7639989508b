package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/pkg/tenant"
)

func testProvider(t tenant.Tenant, calls *atomic.Int64) tenant.Provider {
	return tenant.ProviderFunc(func(_ context.Context, identifier string) (tenant.Tenant, error) {
		if calls != nil {
			calls.Add(1)
		}
		if identifier != t.ID.String() {
			return tenant.Tenant{}, tenant.ErrTenantNotFound
		}
		return t, nil
	})
}

func TestMiddleware_ResolvesAndInjects(t *testing.T) {
	want := tenant.Tenant{ID: uuid.New(), Name: "Acme Plumbing", Active: true}

	var got tenant.Tenant
	handler := tenant.Middleware(
		tenant.NewHeaderResolver(""),
		testProvider(want, nil),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = tenant.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("X-Company-ID", want.ID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, got)
}

func TestMiddleware_NoIdentifierPassesThrough(t *testing.T) {
	handler := tenant.Middleware(
		tenant.NewHeaderResolver(""),
		testProvider(tenant.Tenant{}, nil),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := tenant.FromContext(r.Context())
		assert.False(t, ok)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_UnknownTenant(t *testing.T) {
	handler := tenant.Middleware(
		tenant.NewHeaderResolver(""),
		testProvider(tenant.Tenant{ID: uuid.New(), Active: true}, nil),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("X-Company-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddleware_InactiveTenant(t *testing.T) {
	inactive := tenant.Tenant{ID: uuid.New(), Name: "Closed LLC", Active: false}
	handler := tenant.Middleware(
		tenant.NewHeaderResolver(""),
		testProvider(inactive, nil),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("X-Company-ID", inactive.ID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_CachesLookups(t *testing.T) {
	want := tenant.Tenant{ID: uuid.New(), Name: "Acme", Active: true}
	var calls atomic.Int64

	handler := tenant.Middleware(
		tenant.NewHeaderResolver(""),
		testProvider(want, &calls),
		tenant.WithCacheTTL(time.Minute),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/clients", nil)
		req.Header.Set("X-Company-ID", want.ID.String())
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, int64(1), calls.Load())
}

func TestMiddleware_SkipPaths(t *testing.T) {
	var calls atomic.Int64
	handler := tenant.Middleware(
		tenant.NewHeaderResolver(""),
		testProvider(tenant.Tenant{}, &calls),
		tenant.WithSkipPaths("/webhooks/"),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", nil)
	req.Header.Set("X-Company-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, calls.Load())
}

func TestInMemoryCache_TTL(t *testing.T) {
	cache := tenant.NewInMemoryCache()
	ctx := context.Background()
	id := uuid.NewString()

	cache.Set(ctx, id, tenant.Tenant{Name: "Acme"}, 10*time.Millisecond)

	got, ok := cache.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, "Acme", got.Name)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get(ctx, id)
	assert.False(t, ok)
}

func TestInMemoryCache_Delete(t *testing.T) {
	cache := tenant.NewInMemoryCache()
	ctx := context.Background()

	cache.Set(ctx, "a", tenant.Tenant{Name: "Acme"}, time.Minute)
	cache.Delete(ctx, "a")

	_, ok := cache.Get(ctx, "a")
	assert.False(t, ok)
}

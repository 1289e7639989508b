package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache stores resolved tenants to avoid a database round trip per request.
type Cache interface {
	Get(ctx context.Context, identifier string) (Tenant, bool)
	Set(ctx context.Context, identifier string, t Tenant, ttl time.Duration)
	Delete(ctx context.Context, identifier string)
}

type cacheEntry struct {
	tenant    Tenant
	expiresAt time.Time
}

// InMemoryCache is a process-local TTL cache. Suitable for single-instance
// deployments; multi-instance deployments should use the Redis cache so
// invalidations are shared.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewInMemoryCache creates an empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]cacheEntry)}
}

func (c *InMemoryCache) Get(_ context.Context, identifier string) (Tenant, bool) {
	c.mu.RLock()
	entry, ok := c.entries[identifier]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return Tenant{}, false
	}
	return entry.tenant, true
}

func (c *InMemoryCache) Set(_ context.Context, identifier string, t Tenant, ttl time.Duration) {
	c.mu.Lock()
	c.entries[identifier] = cacheEntry{tenant: t, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *InMemoryCache) Delete(_ context.Context, identifier string) {
	c.mu.Lock()
	delete(c.entries, identifier)
	c.mu.Unlock()
}

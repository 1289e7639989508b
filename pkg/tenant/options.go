package tenant

import (
	"net/http"
	"time"
)

type config struct {
	cache         Cache
	cacheTTL      time.Duration
	errorHandler  func(http.ResponseWriter, *http.Request, error)
	requireActive bool
	skipPaths     []string
}

// Option configures the tenant middleware.
type Option func(*config)

// WithCache replaces the default in-memory cache.
func WithCache(c Cache) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.cache = c
		}
	}
}

// WithCacheTTL sets how long resolved tenants stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cfg *config) {
		if ttl > 0 {
			cfg.cacheTTL = ttl
		}
	}
}

// WithErrorHandler replaces the default error responder.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(cfg *config) {
		if h != nil {
			cfg.errorHandler = h
		}
	}
}

// WithRequireActive controls whether inactive tenants are rejected.
func WithRequireActive(require bool) Option {
	return func(cfg *config) { cfg.requireActive = require }
}

// WithSkipPaths lists path prefixes that bypass tenant resolution entirely
// (health checks, webhooks, auth).
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) { cfg.skipPaths = append(cfg.skipPaths, paths...) }
}

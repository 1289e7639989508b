package tenant

import (
	"net/http"
)

// Resolver extracts a tenant identifier from an HTTP request. Returns an
// empty string when the request carries no tenant identity.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *http.Request) (string, error)

func (f ResolverFunc) Resolve(r *http.Request) (string, error) { return f(r) }

// HeaderResolver extracts the tenant identifier from an HTTP header.
// Used in development and for trusted internal callers.
type HeaderResolver struct {
	HeaderName string
}

// NewHeaderResolver creates a header resolver; defaults to "X-Company-ID".
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = "X-Company-ID"
	}
	return &HeaderResolver{HeaderName: headerName}
}

func (r *HeaderResolver) Resolve(req *http.Request) (string, error) {
	return req.Header.Get(r.HeaderName), nil
}

// Package tenant resolves the contractor company behind each request and
// makes it available through the request context. Resolution results are
// cached (in-memory or Redis) because every authenticated request needs the
// tenant record.
//
// The middleware is a routing convenience only; actual data isolation is
// enforced by company_id scoping in every store query.
package tenant

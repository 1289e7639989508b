// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// startup retry, goose/v3 schema migrations, a healthcheck closure, and
// error-classification helpers for unique and foreign key violations.
//
// The row-level tenant isolation the rest of the application relies on is
// enforced by scoping every query with a company_id predicate; this package
// only provides the plumbing.
package pg

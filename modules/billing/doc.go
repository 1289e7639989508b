// Package billing owns the platform subscription lifecycle: plan catalog,
// checkout and portal sessions, webhook verification, reconciliation of
// provider events onto tenant subscription records, and the access guard
// that gates the rest of the application on subscription state.
//
// The flow is Provider → ParseWebhook (signature verification) → Reconciler
// (deterministic state transition) → Store (revision-checked write) → Guard
// (per-request allow/deny). Reconciliation is idempotent by construction:
// every branch assigns absolute state, so redelivered events are harmless.
package billing

package billing

import "errors"

var (
	// ErrSignatureInvalid means the webhook payload could not be
	// authenticated. The caller must reject the delivery and mutate nothing.
	ErrSignatureInvalid = errors.New("billing: webhook signature invalid")

	// ErrMissingMetadata means a recognized event lacks the tenant id (or
	// plan) it needs. Surfaced as a client error so the provider stops
	// retrying a delivery that can never succeed.
	ErrMissingMetadata = errors.New("billing: required event metadata missing")

	// ErrStorageWrite wraps persistence failures. Surfaced as a server error
	// so the provider redelivers; reconciliation is idempotent, so replay is
	// safe.
	ErrStorageWrite = errors.New("billing: failed to write subscription record")

	// ErrRevisionConflict means a concurrent write won the optimistic
	// revision check.
	ErrRevisionConflict = errors.New("billing: subscription revision conflict")

	ErrSubscriptionNotFound = errors.New("billing: subscription not found")
	ErrPlanNotFound         = errors.New("billing: plan not found")
	ErrPlanNotPurchasable   = errors.New("billing: plan has no checkout price")
	ErrNoBillingAccount     = errors.New("billing: company has no billing account yet")
	ErrProvider             = errors.New("billing: provider error")
	ErrInvalidCatalog       = errors.New("billing: invalid plan catalog")
)

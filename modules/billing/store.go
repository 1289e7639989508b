package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackdek/stackdek/pkg/pg"
)

// Store persists tenant subscription records.
type Store interface {
	// Get retrieves the subscription for a company, or ErrSubscriptionNotFound.
	Get(ctx context.Context, companyID uuid.UUID) (*Subscription, error)

	// Save writes the record if and only if the stored revision still equals
	// sub.Revision. On success sub.Revision is advanced; on a lost race it
	// returns ErrRevisionConflict.
	Save(ctx context.Context, sub *Subscription) error
}

// PGStore stores subscription fields as flat columns on the companies row.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed subscription store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, companyID uuid.UUID) (*Subscription, error) {
	const query = `
		SELECT id, plan, subscription_status, stripe_customer_id, stripe_subscription_id,
		       current_period_end, trial_ends_at, started_at, cancel_at_period_end,
		       connected_account_id, billing_revision, updated_at
		FROM companies
		WHERE id = $1`

	var sub Subscription
	err := s.pool.QueryRow(ctx, query, companyID).Scan(
		&sub.CompanyID, &sub.Plan, &sub.Status, &sub.StripeCustomerID,
		&sub.StripeSubscriptionID, &sub.CurrentPeriodEnd, &sub.TrialEndsAt,
		&sub.StartedAt, &sub.CancelAtPeriodEnd, &sub.ConnectedAccountID,
		&sub.Revision, &sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, errors.Join(ErrStorageWrite, err)
	}
	return &sub, nil
}

func (s *PGStore) Save(ctx context.Context, sub *Subscription) error {
	const query = `
		UPDATE companies
		SET plan = $2,
		    subscription_status = $3,
		    stripe_customer_id = $4,
		    stripe_subscription_id = $5,
		    current_period_end = $6,
		    trial_ends_at = $7,
		    started_at = $8,
		    cancel_at_period_end = $9,
		    connected_account_id = $10,
		    billing_revision = billing_revision + 1,
		    updated_at = now()
		WHERE id = $1 AND billing_revision = $11`

	tag, err := s.pool.Exec(ctx, query,
		sub.CompanyID, sub.Plan, sub.Status, sub.StripeCustomerID,
		sub.StripeSubscriptionID, sub.CurrentPeriodEnd, sub.TrialEndsAt,
		sub.StartedAt, sub.CancelAtPeriodEnd, sub.ConnectedAccountID,
		sub.Revision,
	)
	if err != nil {
		return errors.Join(ErrStorageWrite, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the company vanished or a concurrent write advanced the
		// revision. Distinguish so callers can reload and retry.
		if _, getErr := s.Get(ctx, sub.CompanyID); getErr != nil {
			return getErr
		}
		return ErrRevisionConflict
	}

	sub.Revision++
	sub.UpdatedAt = time.Now().UTC()
	return nil
}

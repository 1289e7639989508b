package company

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackdek/stackdek/pkg/pg"
)

// Store persists company rows.
type Store interface {
	// Create inserts a company together with its initial subscription
	// columns: basic plan, trial status, trial end at trialEndsAt.
	Create(ctx context.Context, c *Company, trialEndsAt time.Time) error
	Get(ctx context.Context, id uuid.UUID) (*Company, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Company, error)
}

// PGStore is the Postgres company store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed company store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, c *Company, trialEndsAt time.Time) error {
	const query = `
		INSERT INTO companies (id, name, email, phone, active, plan, subscription_status, trial_ends_at, started_at)
		VALUES ($1, $2, $3, $4, true, 'basic', 'trial', $5, now())
		RETURNING active, created_at, updated_at`

	err := s.pool.QueryRow(ctx, query, c.ID, c.Name, c.Email, c.Phone, trialEndsAt).
		Scan(&c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Company, error) {
	const query = `
		SELECT id, name, email, phone, active, created_at, updated_at
		FROM companies
		WHERE id = $1`

	var c Company
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &c, nil
}

func (s *PGStore) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Company, error) {
	const query = `
		UPDATE companies
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    phone = COALESCE($4, phone),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, phone, active, created_at, updated_at`

	var c Company
	err := s.pool.QueryRow(ctx, query, id, params.Name, params.Email, params.Phone).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &c, nil
}

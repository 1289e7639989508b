package job

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackdek/stackdek/pkg/pg"
)

// Store persists job records, scoped by company id.
type Store interface {
	Create(ctx context.Context, j *Job) error
	Get(ctx context.Context, companyID, id uuid.UUID) (*Job, error)
	List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Job, error)
	Update(ctx context.Context, companyID, id uuid.UUID, params UpdateParams) (*Job, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	Count(ctx context.Context, companyID uuid.UUID) (int64, error)
}

// PGStore is the Postgres job store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed job store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const jobColumns = `id, company_id, client_id, title, description, status, address, scheduled_at, created_at, updated_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.CompanyID, &j.ClientID, &j.Title, &j.Description,
		&j.Status, &j.Address, &j.ScheduledAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &j, nil
}

func (s *PGStore) Create(ctx context.Context, j *Job) error {
	const query = `
		INSERT INTO jobs (id, company_id, client_id, title, description, status, address, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query, j.ID, j.CompanyID, j.ClientID, j.Title,
		j.Description, j.Status, j.Address, j.ScheduledAt).
		Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrUnknownClient
		}
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, companyID, id uuid.UUID) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE company_id = $1 AND id = $2`
	return scanJob(s.pool.QueryRow(ctx, query, companyID, id))
}

func (s *PGStore) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE company_id = $1`
	args := []any{companyID}

	if filter.ClientID != uuid.Nil {
		args = append(args, filter.ClientID)
		query += ` AND client_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.CompanyID, &j.ClientID, &j.Title, &j.Description,
			&j.Status, &j.Address, &j.ScheduledAt, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, errors.Join(ErrStorage, err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return out, nil
}

func (s *PGStore) Update(ctx context.Context, companyID, id uuid.UUID, params UpdateParams) (*Job, error) {
	query := `
		UPDATE jobs
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    status = COALESCE($5, status),
		    address = COALESCE($6, address),
		    scheduled_at = COALESCE($7, scheduled_at),
		    updated_at = now()
		WHERE company_id = $1 AND id = $2
		RETURNING ` + jobColumns

	return scanJob(s.pool.QueryRow(ctx, query, companyID, id,
		params.Title, params.Description, params.Status, params.Address, params.ScheduledAt))
}

func (s *PGStore) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Count(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM jobs WHERE company_id = $1`, companyID).Scan(&n)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return n, nil
}

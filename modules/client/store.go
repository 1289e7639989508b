package client

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackdek/stackdek/pkg/pg"
)

// Store persists client records. Every query is scoped by company id; a
// client is invisible outside its tenant.
type Store interface {
	Create(ctx context.Context, c *Client) error
	Get(ctx context.Context, companyID, id uuid.UUID) (*Client, error)
	List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Client, error)
	Update(ctx context.Context, companyID, id uuid.UUID, params UpdateParams) (*Client, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	Count(ctx context.Context, companyID uuid.UUID) (int64, error)
}

// PGStore is the Postgres client store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed client store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const clientColumns = `id, company_id, name, email, phone, address, notes, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &c, nil
}

func (s *PGStore) Create(ctx context.Context, c *Client) error {
	const query = `
		INSERT INTO clients (id, company_id, name, email, phone, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query, c.ID, c.CompanyID, c.Name, c.Email, c.Phone, c.Address, c.Notes).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, companyID, id uuid.UUID) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE company_id = $1 AND id = $2`
	return scanClient(s.pool.QueryRow(ctx, query, companyID, id))
}

func (s *PGStore) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE company_id = $1`
	args := []any{companyID}

	if filter.Search != "" {
		query += ` AND (name ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+filter.Search+"%")
	}
	query += ` ORDER BY name`
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

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.Join(ErrStorage, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return out, nil
}

func (s *PGStore) Update(ctx context.Context, companyID, id uuid.UUID, params UpdateParams) (*Client, error) {
	query := `
		UPDATE clients
		SET name = COALESCE($3, name),
		    email = COALESCE($4, email),
		    phone = COALESCE($5, phone),
		    address = COALESCE($6, address),
		    notes = COALESCE($7, notes),
		    updated_at = now()
		WHERE company_id = $1 AND id = $2
		RETURNING ` + clientColumns

	return scanClient(s.pool.QueryRow(ctx, query, companyID, id,
		params.Name, params.Email, params.Phone, params.Address, params.Notes))
}

func (s *PGStore) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE company_id = $1 AND id = $2`, companyID, id)
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
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM clients WHERE company_id = $1`, companyID).Scan(&n)
	if err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return n, nil
}

package quote

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackdek/stackdek/pkg/pg"
)

// Store persists quotes and their line items, scoped by company id.
type Store interface {
	Create(ctx context.Context, q *Quote) error
	Get(ctx context.Context, companyID, id uuid.UUID) (*Quote, error)
	List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Quote, error)
	SetStatus(ctx context.Context, companyID, id uuid.UUID, status Status) (*Quote, error)
	MarkConverted(ctx context.Context, companyID, id, invoiceID uuid.UUID) error
	NextNumber(ctx context.Context, companyID uuid.UUID) (string, error)
}

// PGStore is the Postgres quote store. Quote and item writes share one
// transaction.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed quote store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, q *Quote) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const insertQuote = `
			INSERT INTO quotes (id, company_id, client_id, job_id, number, status,
			                    subtotal_cents, tax_rate_bps, tax_cents, total_cents, notes, valid_until)
			VALUES ($1, $2, $3, NULLIF($4, '00000000-0000-0000-0000-000000000000'::uuid),
			        $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at, updated_at`

		if err := tx.QueryRow(ctx, insertQuote, q.ID, q.CompanyID, q.ClientID, q.JobID,
			q.Number, q.Status, q.SubtotalCents, q.TaxRateBps, q.TaxCents, q.TotalCents,
			q.Notes, q.ValidUntil).Scan(&q.CreatedAt, &q.UpdatedAt); err != nil {
			return err
		}

		const insertItem = `
			INSERT INTO quote_items (id, quote_id, description, quantity, unit_price_cents, amount_cents)
			VALUES ($1, $2, $3, $4, $5, $6)`
		for i := range q.Items {
			if _, err := tx.Exec(ctx, insertItem, q.Items[i].ID, q.ID, q.Items[i].Description,
				q.Items[i].Quantity, q.Items[i].UnitPriceCents, q.Items[i].AmountCents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrUnknownClient
		}
		return errors.Join(ErrStorage, err)
	}
	return nil
}

const quoteColumns = `id, company_id, client_id, COALESCE(job_id, '00000000-0000-0000-0000-000000000000'::uuid),
	number, status, subtotal_cents, tax_rate_bps, tax_cents, total_cents, notes, valid_until, invoice_id,
	created_at, updated_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.CompanyID, &q.ClientID, &q.JobID, &q.Number, &q.Status,
		&q.SubtotalCents, &q.TaxRateBps, &q.TaxCents, &q.TotalCents, &q.Notes,
		&q.ValidUntil, &q.InvoiceID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &q, nil
}

func (s *PGStore) Get(ctx context.Context, companyID, id uuid.UUID) (*Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE company_id = $1 AND id = $2`
	q, err := scanQuote(s.pool.QueryRow(ctx, query, companyID, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *PGStore) loadItems(ctx context.Context, q *Quote) error {
	const query = `
		SELECT id, description, quantity, unit_price_cents, amount_cents
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY description`

	rows, err := s.pool.Query(ctx, query, q.ID)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Description, &it.Quantity, &it.UnitPriceCents, &it.AmountCents); err != nil {
			return errors.Join(ErrStorage, err)
		}
		q.Items = append(q.Items, it)
	}
	return rows.Err()
}

func (s *PGStore) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE company_id = $1`
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

	var out []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.CompanyID, &q.ClientID, &q.JobID, &q.Number, &q.Status,
			&q.SubtotalCents, &q.TaxRateBps, &q.TaxCents, &q.TotalCents, &q.Notes,
			&q.ValidUntil, &q.InvoiceID, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, errors.Join(ErrStorage, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return out, nil
}

func (s *PGStore) SetStatus(ctx context.Context, companyID, id uuid.UUID, status Status) (*Quote, error) {
	query := `
		UPDATE quotes
		SET status = $3, updated_at = now()
		WHERE company_id = $1 AND id = $2
		RETURNING ` + quoteColumns

	q, err := scanQuote(s.pool.QueryRow(ctx, query, companyID, id, status))
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *PGStore) MarkConverted(ctx context.Context, companyID, id, invoiceID uuid.UUID) error {
	const query = `
		UPDATE quotes
		SET invoice_id = $3, updated_at = now()
		WHERE company_id = $1 AND id = $2 AND invoice_id IS NULL`

	tag, err := s.pool.Exec(ctx, query, companyID, id, invoiceID)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyConverted
	}
	return nil
}

func (s *PGStore) NextNumber(ctx context.Context, companyID uuid.UUID) (string, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM quotes WHERE company_id = $1`, companyID).Scan(&n)
	if err != nil {
		return "", errors.Join(ErrStorage, err)
	}
	return "Q-" + strconv.FormatInt(n+1, 10), nil
}

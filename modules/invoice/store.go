package invoice

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackdek/stackdek/pkg/pg"
)

// Store persists invoices and their line items, scoped by company id.
type Store interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Invoice, error)
	SetStatus(ctx context.Context, companyID, id uuid.UUID, status Status, paidAt *time.Time) (*Invoice, error)
	SetPaymentLink(ctx context.Context, companyID, id uuid.UUID, url string) (*Invoice, error)
	NextNumber(ctx context.Context, companyID uuid.UUID) (string, error)
}

// PGStore is the Postgres invoice store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed invoice store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, inv *Invoice) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const insertInvoice = `
			INSERT INTO invoices (id, company_id, client_id, quote_id, number, status,
			                      subtotal_cents, tax_rate_bps, tax_cents, total_cents,
			                      currency, notes, due_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING created_at, updated_at`

		if err := tx.QueryRow(ctx, insertInvoice, inv.ID, inv.CompanyID, inv.ClientID,
			inv.QuoteID, inv.Number, inv.Status, inv.SubtotalCents, inv.TaxRateBps,
			inv.TaxCents, inv.TotalCents, inv.Currency, inv.Notes, inv.DueDate).
			Scan(&inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return err
		}

		const insertItem = `
			INSERT INTO invoice_items (id, invoice_id, description, quantity, unit_price_cents, amount_cents)
			VALUES ($1, $2, $3, $4, $5, $6)`
		for i := range inv.Items {
			if _, err := tx.Exec(ctx, insertItem, inv.Items[i].ID, inv.ID, inv.Items[i].Description,
				inv.Items[i].Quantity, inv.Items[i].UnitPriceCents, inv.Items[i].AmountCents); err != nil {
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

const invoiceColumns = `id, company_id, client_id, quote_id, number, status,
	subtotal_cents, tax_rate_bps, tax_cents, total_cents, currency, notes, due_date,
	payment_link_url, paid_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.ClientID, &inv.QuoteID, &inv.Number,
		&inv.Status, &inv.SubtotalCents, &inv.TaxRateBps, &inv.TaxCents, &inv.TotalCents,
		&inv.Currency, &inv.Notes, &inv.DueDate, &inv.PaymentLinkURL, &inv.PaidAt,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStorage, err)
	}
	return &inv, nil
}

func (s *PGStore) Get(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1 AND id = $2`
	inv, err := scanInvoice(s.pool.QueryRow(ctx, query, companyID, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *PGStore) loadItems(ctx context.Context, inv *Invoice) error {
	const query = `
		SELECT id, description, quantity, unit_price_cents, amount_cents
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY description`

	rows, err := s.pool.Query(ctx, query, inv.ID)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Description, &it.Quantity, &it.UnitPriceCents, &it.AmountCents); err != nil {
			return errors.Join(ErrStorage, err)
		}
		inv.Items = append(inv.Items, it)
	}
	return rows.Err()
}

func (s *PGStore) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1`
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

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.CompanyID, &inv.ClientID, &inv.QuoteID, &inv.Number,
			&inv.Status, &inv.SubtotalCents, &inv.TaxRateBps, &inv.TaxCents, &inv.TotalCents,
			&inv.Currency, &inv.Notes, &inv.DueDate, &inv.PaymentLinkURL, &inv.PaidAt,
			&inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, errors.Join(ErrStorage, err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return out, nil
}

func (s *PGStore) SetStatus(ctx context.Context, companyID, id uuid.UUID, status Status, paidAt *time.Time) (*Invoice, error) {
	query := `
		UPDATE invoices
		SET status = $3, paid_at = COALESCE($4, paid_at), updated_at = now()
		WHERE company_id = $1 AND id = $2
		RETURNING ` + invoiceColumns

	inv, err := scanInvoice(s.pool.QueryRow(ctx, query, companyID, id, status, paidAt))
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *PGStore) SetPaymentLink(ctx context.Context, companyID, id uuid.UUID, url string) (*Invoice, error) {
	query := `
		UPDATE invoices
		SET payment_link_url = $3, updated_at = now()
		WHERE company_id = $1 AND id = $2
		RETURNING ` + invoiceColumns

	inv, err := scanInvoice(s.pool.QueryRow(ctx, query, companyID, id, url))
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *PGStore) NextNumber(ctx context.Context, companyID uuid.UUID) (string, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE company_id = $1`, companyID).Scan(&n)
	if err != nil {
		return "", errors.Join(ErrStorage, err)
	}
	return "INV-" + strconv.FormatInt(n+1, 10), nil
}

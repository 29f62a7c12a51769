package order

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront/internal/db"
	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, user_id, status, subtotal_cents, shipping_cents, tax_cents, total_cents, billing_address_id, shipping_address_id, placed_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, q db.Querier, o *domain.Order) error {
	const insertOrder = `
INSERT INTO orders (user_id, status, subtotal_cents, shipping_cents, tax_cents, total_cents, billing_address_id, shipping_address_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, placed_at
`
	if err := q.QueryRow(ctx, insertOrder,
		o.UserID, o.Status, o.SubtotalCents, o.ShippingCents, o.TaxCents, o.TotalCents,
		o.BillingAddressID, o.ShippingAddressID,
	).Scan(&o.ID, &o.PlacedAt); err != nil {
		r.logger.Printf("order repo: insert user_id=%d error=%v", o.UserID, err)
		return err
	}

	const insertLine = `
INSERT INTO order_items (order_id, product_id, title_snapshot, unit_price_cents, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
	for i := range o.Lines {
		line := &o.Lines[i]
		line.OrderID = o.ID
		if err := q.QueryRow(ctx, insertLine, o.ID, line.ProductID, line.TitleSnapshot, line.UnitPriceCents, line.Quantity).Scan(&line.ID); err != nil {
			r.logger.Printf("order repo: insert line order_id=%d product_id=%d error=%v", o.ID, line.ProductID, err)
			return err
		}
	}
	return nil
}

func (r *postgresRepo) SetStatus(ctx context.Context, q db.Querier, orderID int64, status domain.OrderStatus) error {
	cmd, err := q.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AddPayment(ctx context.Context, q db.Querier, p *domain.Payment) error {
	const stmt = `
INSERT INTO payments (order_id, provider, provider_ref, amount_cents, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at
`
	if err := q.QueryRow(ctx, stmt, p.OrderID, p.Provider, p.ProviderRef, p.AmountCents, p.Status).Scan(&p.ID, &p.CreatedAt); err != nil {
		r.logger.Printf("order repo: insert payment order_id=%d error=%v", p.OrderID, err)
		return err
	}
	return nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY id DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetForUser(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	lines, err := r.pool.Query(ctx, `
SELECT id, order_id, product_id, title_snapshot, unit_price_cents, quantity
FROM order_items WHERE order_id = $1 ORDER BY id
`, orderID)
	if err != nil {
		return nil, err
	}
	o.Lines, err = pgx.CollectRows(lines, func(row pgx.CollectableRow) (domain.OrderLine, error) {
		var l domain.OrderLine
		err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.TitleSnapshot, &l.UnitPriceCents, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, err
	}

	payments, err := r.pool.Query(ctx, `
SELECT id, order_id, provider, provider_ref, amount_cents, status, created_at
FROM payments WHERE order_id = $1 ORDER BY id
`, orderID)
	if err != nil {
		return nil, err
	}
	o.Payments, err = pgx.CollectRows(payments, func(row pgx.CollectableRow) (domain.Payment, error) {
		var p domain.Payment
		err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.ProviderRef, &p.AmountCents, &p.Status, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.SubtotalCents, &o.ShippingCents, &o.TaxCents, &o.TotalCents,
		&o.BillingAddressID, &o.ShippingAddressID, &o.PlacedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

package cart

import (
	"context"
	"io"
	"log"

	"storefront/internal/db"
	"storefront/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

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

func (r *postgresRepo) Ensure(ctx context.Context, q db.Querier, userID int64) (*domain.Cart, error) {
	const stmt = `
INSERT INTO carts (user_id) VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
RETURNING id, user_id, created_at
`
	var cart domain.Cart
	if err := q.QueryRow(ctx, stmt, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt); err != nil {
		r.logger.Printf("cart repo: ensure user_id=%d error=%v", userID, err)
		return nil, err
	}
	cart.Lines = []domain.CartLine{}
	return &cart, nil
}

func (r *postgresRepo) Get(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := r.Ensure(ctx, r.pool, userID)
	if err != nil {
		return nil, err
	}
	lines, err := r.lines(ctx, r.pool, userID, false)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines
	return cart, nil
}

func (r *postgresRepo) Snapshot(ctx context.Context, q db.Querier, userID int64) ([]domain.CartLine, error) {
	lines, err := r.lines(ctx, q, userID, true)
	if err != nil {
		r.logger.Printf("cart repo: snapshot user_id=%d error=%v", userID, err)
		return nil, err
	}
	return lines, nil
}

func (r *postgresRepo) lines(ctx context.Context, q db.Querier, userID int64, lock bool) ([]domain.CartLine, error) {
	if lock {
		// Serializes concurrent checkouts of the same cart.
		if _, err := q.Exec(ctx, `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
			return nil, err
		}
	}
	const stmt = `
SELECT ci.id, ci.product_id, p.title, ci.unit_price_cents, ci.quantity
FROM carts c
JOIN cart_items ci ON ci.cart_id = c.id
JOIN products p ON p.id = ci.product_id
WHERE c.user_id = $1
ORDER BY ci.id ASC
`
	rows, err := q.Query(ctx, stmt, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Title, &l.UnitPriceCents, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *postgresRepo) Clear(ctx context.Context, q db.Querier, userID int64) error {
	const stmt = `
DELETE FROM cart_items
WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)
`
	cmd, err := q.Exec(ctx, stmt, userID)
	if err != nil {
		r.logger.Printf("cart repo: clear user_id=%d error=%v", userID, err)
		return err
	}
	r.logger.Printf("cart repo: cleared user_id=%d lines=%d", userID, cmd.RowsAffected())
	return nil
}

func (r *postgresRepo) PutItem(ctx context.Context, userID, productID int64, quantity int, unitPriceCents int64) error {
	cart, err := r.Ensure(ctx, r.pool, userID)
	if err != nil {
		return err
	}
	const stmt = `
INSERT INTO cart_items (cart_id, product_id, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cart_id, product_id)
DO UPDATE SET quantity = EXCLUDED.quantity, unit_price_cents = EXCLUDED.unit_price_cents
`
	if _, err := r.pool.Exec(ctx, stmt, cart.ID, productID, quantity, unitPriceCents); err != nil {
		r.logger.Printf("cart repo: put item user_id=%d product_id=%d error=%v", userID, productID, err)
		return err
	}
	return nil
}

func (r *postgresRepo) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	const stmt = `
UPDATE cart_items ci
SET quantity = $3
FROM carts c
WHERE ci.cart_id = c.id AND c.user_id = $1 AND ci.id = $2
`
	cmd, err := r.pool.Exec(ctx, stmt, userID, itemID, quantity)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RemoveItem(ctx context.Context, userID, itemID int64) error {
	const stmt = `
DELETE FROM cart_items ci
USING carts c
WHERE ci.cart_id = c.id AND c.user_id = $1 AND ci.id = $2
`
	cmd, err := r.pool.Exec(ctx, stmt, userID, itemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

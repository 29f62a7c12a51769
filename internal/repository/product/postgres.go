package product

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront/internal/db"
	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectProduct = `
SELECT p.id, p.category_id, COALESCE(p.sku, ''), p.title, p.description, p.price_cents, p.is_active,
       COALESCE(i.quantity, 0), p.created_at, p.updated_at
FROM products p
LEFT JOIN inventory i ON i.product_id = p.id
`

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

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, error) {
	const q = selectProduct + `
WHERE p.is_active = TRUE
  AND ($1 = '' OR p.title ILIKE '%' || $1 || '%' OR p.description ILIKE '%' || $1 || '%')
  AND ($2::bigint IS NULL OR p.category_id = $2)
ORDER BY p.id DESC
LIMIT $3 OFFSET $4
`
	rows, err := r.pool.Query(ctx, q, f.Search, f.CategoryID, f.Limit, f.Offset)
	if err != nil {
		r.logger.Printf("product repo: list search=%q error=%v", f.Search, err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("product repo: list search=%q count=%d", f.Search, len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	const q = selectProduct + `WHERE p.id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%d not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%d error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		const q = `
INSERT INTO products (category_id, sku, title, description, price_cents, is_active)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, TRUE)
RETURNING id
`
		if err := tx.QueryRow(ctx, q, p.CategoryID, p.SKU, p.Title, p.Description, p.PriceCents).Scan(&id); err != nil {
			return err
		}
		return ensureInventory(ctx, tx, id)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("product repo: create title=%q error=%v", p.Title, err)
		return nil, err
	}
	r.logger.Printf("product repo: created id=%d", id)
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Update(ctx context.Context, id int64, in Update) (*domain.Product, error) {
	const q = `
UPDATE products
SET category_id = COALESCE($2, category_id),
    title = COALESCE($3, title),
    description = COALESCE($4, description),
    price_cents = COALESCE($5, price_cents),
    is_active = COALESCE($6, is_active),
    updated_at = NOW()
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q, id, in.CategoryID, in.Title, in.Description, in.PriceCents, in.IsActive)
	if err != nil {
		r.logger.Printf("product repo: update id=%d error=%v", id, err)
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Deactivate(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("product repo: deactivated id=%d", id)
	return nil
}

func (r *postgresRepo) SetStock(ctx context.Context, id int64, quantity int) error {
	const q = `
INSERT INTO inventory (product_id, quantity)
SELECT id, $2 FROM products WHERE id = $1
ON CONFLICT (product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
`
	cmd, err := r.pool.Exec(ctx, q, id, quantity)
	if err != nil {
		r.logger.Printf("product repo: set stock id=%d error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("product repo: set stock id=%d quantity=%d", id, quantity)
	return nil
}

func (r *postgresRepo) UpsertBySKU(ctx context.Context, p domain.Product, stock int) (*domain.Product, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		const q = `
INSERT INTO products (category_id, sku, title, description, price_cents, is_active)
VALUES ($1, $2, $3, $4, $5, TRUE)
ON CONFLICT (sku) DO UPDATE SET
    category_id = EXCLUDED.category_id,
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    is_active = TRUE,
    updated_at = NOW()
RETURNING id
`
		if err := tx.QueryRow(ctx, q, p.CategoryID, p.SKU, p.Title, p.Description, p.PriceCents).Scan(&id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
INSERT INTO inventory (product_id, quantity) VALUES ($1, $2)
ON CONFLICT (product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
`, id, stock)
		return err
	})
	if err != nil {
		r.logger.Printf("product repo: upsert sku=%s error=%v", p.SKU, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted sku=%s id=%d stock=%d", p.SKU, id, stock)
	return r.GetByID(ctx, id)
}

func ensureInventory(ctx context.Context, q db.Querier, productID int64) error {
	_, err := q.Exec(ctx, `INSERT INTO inventory (product_id, quantity) VALUES ($1, 0) ON CONFLICT (product_id) DO NOTHING`, productID)
	return err
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.CategoryID, &p.SKU, &p.Title, &p.Description, &p.PriceCents, &p.IsActive,
		&p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

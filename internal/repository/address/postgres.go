package address

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

const addressColumns = `id, user_id, label, line1, line2, city, region, postal_code, country_code, is_default_billing, is_default_shipping, created_at`

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

func (r *postgresRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Address, error) {
	const q = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Get(ctx context.Context, userID, id int64) (*domain.Address, error) {
	const q = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND id = $2`
	a, err := scanAddress(r.pool.QueryRow(ctx, q, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) Create(ctx context.Context, a domain.Address) (*domain.Address, error) {
	var out *domain.Address
	err := db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := clearDefaults(ctx, tx, a, 0); err != nil {
			return err
		}
		const q = `
INSERT INTO addresses (user_id, label, line1, line2, city, region, postal_code, country_code, is_default_billing, is_default_shipping)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + addressColumns
		created, err := scanAddress(tx.QueryRow(ctx, q,
			a.UserID, a.Label, a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.CountryCode,
			a.IsDefaultBilling, a.IsDefaultShipping,
		))
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		r.logger.Printf("address repo: create user_id=%d error=%v", a.UserID, err)
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, a domain.Address) (*domain.Address, error) {
	var out *domain.Address
	err := db.WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := clearDefaults(ctx, tx, a, a.ID); err != nil {
			return err
		}
		const q = `
UPDATE addresses
SET label = $3, line1 = $4, line2 = $5, city = $6, region = $7, postal_code = $8, country_code = $9,
    is_default_billing = $10, is_default_shipping = $11
WHERE user_id = $1 AND id = $2
RETURNING ` + addressColumns
		updated, err := scanAddress(tx.QueryRow(ctx, q,
			a.UserID, a.ID, a.Label, a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.CountryCode,
			a.IsDefaultBilling, a.IsDefaultShipping,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, userID, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// clearDefaults drops default flags from the user's other addresses when a
// is about to take them over.
func clearDefaults(ctx context.Context, q db.Querier, a domain.Address, exceptID int64) error {
	if a.IsDefaultBilling {
		if _, err := q.Exec(ctx, `UPDATE addresses SET is_default_billing = FALSE WHERE user_id = $1 AND id <> $2`, a.UserID, exceptID); err != nil {
			return err
		}
	}
	if a.IsDefaultShipping {
		if _, err := q.Exec(ctx, `UPDATE addresses SET is_default_shipping = FALSE WHERE user_id = $1 AND id <> $2`, a.UserID, exceptID); err != nil {
			return err
		}
	}
	return nil
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	if err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Line1, &a.Line2, &a.City, &a.Region, &a.PostalCode,
		&a.CountryCode, &a.IsDefaultBilling, &a.IsDefaultShipping, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

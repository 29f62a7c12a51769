// Package inventory holds the stock ledger. Every method runs on the caller's
// Querier so reservations join the checkout transaction.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/db"
	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
)

// Ledger performs conditional stock decrements.
type Ledger interface {
	// TryReserve decrements stock by quantity only if enough is available.
	// It reports false, with a nil error, when stock is insufficient or the
	// product has no inventory row.
	TryReserve(ctx context.Context, q db.Querier, productID int64, quantity int) (bool, error)
	// Release returns a previously reserved quantity.
	Release(ctx context.Context, q db.Querier, productID int64, quantity int) error
	Available(ctx context.Context, q db.Querier, productID int64) (int, error)
}

type postgresLedger struct{}

func NewPostgres() Ledger {
	return postgresLedger{}
}

func (postgresLedger) TryReserve(ctx context.Context, q db.Querier, productID int64, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, fmt.Errorf("reserve quantity must be positive, got %d", quantity)
	}
	const stmt = `
UPDATE inventory
SET quantity = quantity - $1, updated_at = NOW()
WHERE product_id = $2 AND quantity >= $1
`
	cmd, err := q.Exec(ctx, stmt, quantity, productID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (postgresLedger) Release(ctx context.Context, q db.Querier, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", quantity)
	}
	cmd, err := q.Exec(ctx, `UPDATE inventory SET quantity = quantity + $1, updated_at = NOW() WHERE product_id = $2`, quantity, productID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (postgresLedger) Available(ctx context.Context, q db.Querier, productID int64) (int, error) {
	var qty int
	if err := q.QueryRow(ctx, `SELECT quantity FROM inventory WHERE product_id = $1`, productID).Scan(&qty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return qty, nil
}

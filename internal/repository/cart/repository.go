package cart

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type Repository interface {
	// Ensure creates the user's cart on first access and returns it without lines.
	Ensure(ctx context.Context, q db.Querier, userID int64) (*domain.Cart, error)
	// Get ensures the cart and returns it with lines in insertion order.
	Get(ctx context.Context, userID int64) (*domain.Cart, error)
	// Snapshot returns the user's lines in insertion order, locking the cart
	// row for the rest of the transaction. A missing cart yields no lines.
	Snapshot(ctx context.Context, q db.Querier, userID int64) ([]domain.CartLine, error)
	// Clear removes every line. Clearing an empty or missing cart succeeds.
	Clear(ctx context.Context, q db.Querier, userID int64) error

	// PutItem inserts the product or overwrites its quantity and price snapshot.
	PutItem(ctx context.Context, userID, productID int64, quantity int, unitPriceCents int64) error
	UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID int64) error
}

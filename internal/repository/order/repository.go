package order

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type Repository interface {
	// Create inserts the order and its lines, filling in generated ids and placed_at.
	Create(ctx context.Context, q db.Querier, o *domain.Order) error
	SetStatus(ctx context.Context, q db.Querier, orderID int64, status domain.OrderStatus) error
	AddPayment(ctx context.Context, q db.Querier, p *domain.Payment) error

	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	// GetForUser returns the order with lines and payments, or ErrNotFound when
	// it belongs to someone else.
	GetForUser(ctx context.Context, userID, orderID int64) (*domain.Order, error)
}

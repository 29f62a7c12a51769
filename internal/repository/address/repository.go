package address

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Address, error)
	Get(ctx context.Context, userID, id int64) (*domain.Address, error)
	Create(ctx context.Context, a domain.Address) (*domain.Address, error)
	Update(ctx context.Context, a domain.Address) (*domain.Address, error)
	Delete(ctx context.Context, userID, id int64) error
}

package product

import (
	"context"

	"storefront/internal/domain"
)

// ListFilter narrows the catalog listing. Only active products are listed.
type ListFilter struct {
	Search     string
	CategoryID *int64
	Limit      int
	Offset     int
}

// Update holds the mutable product fields; nil leaves a field unchanged.
type Update struct {
	CategoryID  *int64
	Title       *string
	Description *string
	PriceCents  *int64
	IsActive    *bool
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// Create inserts the product together with an empty inventory row.
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id int64, in Update) (*domain.Product, error)
	Deactivate(ctx context.Context, id int64) error
	SetStock(ctx context.Context, id int64, quantity int) error
	// UpsertBySKU creates or overwrites the product with p.SKU and sets its stock.
	UpsertBySKU(ctx context.Context, p domain.Product, stock int) (*domain.Product, error)
}

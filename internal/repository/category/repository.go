package category

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, c domain.Category) (*domain.Category, error)
	// Upsert creates the category or renames the existing one with the same slug.
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

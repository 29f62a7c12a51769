package user

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type ProfileUpdate struct {
	FullName *string
	Phone    *string
}

type Repository interface {
	// Create inserts the user using q, so registration can share a transaction with cart creation.
	Create(ctx context.Context, q db.Querier, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (*domain.User, error)
}

package cart

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/db"
	"storefront/internal/domain"
)

// ErrInsufficientStock is returned when an add or update asks for more than is on hand.
// Checkout re-checks stock under lock; this is an early, advisory check.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrInvalidQuantity rejects zero or negative quantities.
var ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", domain.ErrInvalid)

type Service struct {
	db          db.Querier
	repo        cartRepo
	productRepo productRepo
}

type cartRepo interface {
	Get(ctx context.Context, userID int64) (*domain.Cart, error)
	Clear(ctx context.Context, q db.Querier, userID int64) error
	PutItem(ctx context.Context, userID, productID int64, quantity int, unitPriceCents int64) error
	UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID int64) error
}

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

func New(q db.Querier, repo cartRepo, productRepo productRepo) *Service {
	return &Service{db: q, repo: repo, productRepo: productRepo}
}

type AddItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Get returns the caller's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID int64) (*domain.Cart, error) {
	return s.repo.Get(ctx, userID)
}

// AddItem puts the product in the cart at its current price. Adding a product
// that is already present overwrites its quantity.
func (s *Service) AddItem(ctx context.Context, userID int64, in AddItemInput) (*domain.Cart, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.ErrInactive
	}
	if product.Stock < in.Quantity {
		return nil, ErrInsufficientStock
	}
	if err := s.repo.PutItem(ctx, userID, product.ID, in.Quantity, product.PriceCents); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// UpdateItem sets the quantity of one of the caller's lines. Lines of other
// carts are reported as ErrNotFound.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	line, ok := cart.Line(itemID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	product, err := s.productRepo.GetByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, ErrInsufficientStock
	}
	if err := s.repo.UpdateItemQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error) {
	if err := s.repo.RemoveItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.repo.Clear(ctx, s.db, userID)
}

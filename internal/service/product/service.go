package product

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	ErrTitleRequired = fmt.Errorf("%w: title required", domain.ErrInvalid)
	ErrNegativePrice = fmt.Errorf("%w: price_cents must not be negative", domain.ErrInvalid)
	ErrNegativeStock = fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalid)
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

type ListInput struct {
	Search     string
	CategoryID *int64
	Limit      int
	Offset     int
}

type CreateInput struct {
	CategoryID  *int64 `json:"category_id"`
	SKU         string `json:"sku"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

type UpdateInput struct {
	CategoryID  *int64  `json:"category_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	IsActive    *bool   `json:"is_active"`
}

// List pages through active products. Limit falls back to DefaultLimit and is
// capped at MaxLimit.
func (s *Service) List(ctx context.Context, in ListInput) ([]domain.Product, error) {
	limit, offset := Page(in.Limit, in.Offset)
	return s.repo.List(ctx, productrepo.ListFilter{
		Search:     strings.TrimSpace(in.Search),
		CategoryID: in.CategoryID,
		Limit:      limit,
		Offset:     offset,
	})
}

// Page normalizes paging parameters.
func Page(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.PriceCents < 0 {
		return nil, ErrNegativePrice
	}
	return s.repo.Create(ctx, domain.Product{
		CategoryID:  in.CategoryID,
		SKU:         strings.TrimSpace(in.SKU),
		Title:       title,
		Description: in.Description,
		PriceCents:  in.PriceCents,
	})
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Product, error) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, ErrTitleRequired
		}
		in.Title = &t
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return nil, ErrNegativePrice
	}
	return s.repo.Update(ctx, id, productrepo.Update{
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		IsActive:    in.IsActive,
	})
}

// Deactivate hides the product from listings. Existing order lines keep
// their snapshots.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) SetStock(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	if quantity < 0 {
		return nil, ErrNegativeStock
	}
	if err := s.repo.SetStock(ctx, id, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

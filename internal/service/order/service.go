package order

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/service/checkout"
)

// ErrAddressNotFound is returned when a checkout names an address the caller
// does not own.
var ErrAddressNotFound = errors.New("address not found")

type orderReader interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	GetForUser(ctx context.Context, userID, orderID int64) (*domain.Order, error)
}

type addressLookup interface {
	Get(ctx context.Context, userID, id int64) (*domain.Address, error)
}

type placer interface {
	PlaceOrder(ctx context.Context, in checkout.PlaceOrderInput) (*domain.Order, error)
}

type Service struct {
	orders    orderReader
	addresses addressLookup
	checkout  placer
}

func New(orders orderReader, addresses addressLookup, checkout placer) *Service {
	return &Service{orders: orders, addresses: addresses, checkout: checkout}
}

type PlaceInput struct {
	BillingAddressID  *int64 `json:"billing_address_id"`
	ShippingAddressID *int64 `json:"shipping_address_id"`
	Provider          string `json:"provider"`
}

func (s *Service) List(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	return s.orders.GetForUser(ctx, userID, orderID)
}

// Place checks that the referenced addresses belong to the caller and then
// runs checkout. Checkout errors are returned unchanged.
func (s *Service) Place(ctx context.Context, userID int64, in PlaceInput) (*domain.Order, error) {
	for _, id := range []*int64{in.BillingAddressID, in.ShippingAddressID} {
		if id == nil {
			continue
		}
		if _, err := s.addresses.Get(ctx, userID, *id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrAddressNotFound
			}
			return nil, err
		}
	}
	return s.checkout.PlaceOrder(ctx, checkout.PlaceOrderInput{
		UserID:            userID,
		BillingAddressID:  in.BillingAddressID,
		ShippingAddressID: in.ShippingAddressID,
		Provider:          in.Provider,
	})
}

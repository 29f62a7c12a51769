package checkout

import (
	"errors"
	"fmt"
)

// PlaceOrder fails with one of these kinds only.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrStorageFailure    = errors.New("storage failure")
)

// InsufficientStockError names the product whose reservation failed.
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// classify maps err onto the closed error set. Anything unrecognized,
// including context expiry and commit failures, becomes ErrStorageFailure.
func classify(err error) error {
	var stock *InsufficientStockError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &stock):
		return stock
	case errors.Is(err, ErrEmptyCart):
		return ErrEmptyCart
	case errors.Is(err, ErrPaymentFailed):
		return ErrPaymentFailed
	default:
		return ErrStorageFailure
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrPaymentFailed):
		return "payment_failed"
	default:
		return "storage_failure"
	}
}

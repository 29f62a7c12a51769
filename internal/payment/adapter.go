// Package payment defines the settlement boundary used by checkout.
package payment

import (
	"context"

	"storefront/internal/domain"
)

// Settlement is a provider's verdict on capturing an amount.
type Settlement struct {
	Status    domain.PaymentStatus
	Reference string
}

func (s Settlement) Succeeded() bool {
	return s.Status == domain.PaymentSucceeded
}

// Adapter settles an amount with a provider. A returned error means no
// verdict was obtained; a decline is a Settlement with PaymentFailed status.
// Provider tags are opaque and passed through unchanged.
type Adapter interface {
	Settle(ctx context.Context, amountCents int64, provider string) (Settlement, error)
}

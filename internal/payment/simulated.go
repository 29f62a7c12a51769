package payment

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// Simulated approves every provider except the configured decline list.
type Simulated struct {
	decline map[string]struct{}
}

func NewSimulated(declineProviders []string) *Simulated {
	decline := make(map[string]struct{}, len(declineProviders))
	for _, p := range declineProviders {
		if p = strings.TrimSpace(p); p != "" {
			decline[p] = struct{}{}
		}
	}
	return &Simulated{decline: decline}
}

func (s *Simulated) Settle(ctx context.Context, amountCents int64, provider string) (Settlement, error) {
	if err := ctx.Err(); err != nil {
		return Settlement{}, err
	}
	// Zero is a valid total for a cart of free products.
	if amountCents < 0 {
		return Settlement{}, fmt.Errorf("settle amount must not be negative, got %d", amountCents)
	}
	ref := "TEST-" + uuid.NewString()
	if _, ok := s.decline[provider]; ok {
		return Settlement{Status: domain.PaymentFailed, Reference: ref}, nil
	}
	return Settlement{Status: domain.PaymentSucceeded, Reference: ref}, nil
}

package checkout

import "storefront/internal/domain"

// Build shapes cart lines into a pending order. It performs no I/O; ids and
// placed_at are assigned when the order is persisted. Shipping and tax are
// always zero.
func Build(userID int64, lines []domain.CartLine, billingAddressID, shippingAddressID *int64) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		orderLines = append(orderLines, domain.OrderLine{
			ProductID:      l.ProductID,
			TitleSnapshot:  l.Title,
			UnitPriceCents: l.UnitPriceCents,
			Quantity:       l.Quantity,
		})
	}

	subtotal := domain.SumLines(lines)
	return &domain.Order{
		UserID:            userID,
		Status:            domain.OrderPending,
		SubtotalCents:     subtotal,
		ShippingCents:     0,
		TaxCents:          0,
		TotalCents:        subtotal,
		BillingAddressID:  billingAddressID,
		ShippingAddressID: shippingAddressID,
		Lines:             orderLines,
	}, nil
}

package domain

import "time"

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
	OrderFailed  OrderStatus = "failed"
)

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Order is immutable after creation apart from Status.
type Order struct {
	ID                int64       `json:"id"`
	UserID            int64       `json:"user_id"`
	Status            OrderStatus `json:"status"`
	SubtotalCents     int64       `json:"subtotal_cents"`
	ShippingCents     int64       `json:"shipping_cents"`
	TaxCents          int64       `json:"tax_cents"`
	TotalCents        int64       `json:"total_cents"`
	BillingAddressID  *int64      `json:"billing_address_id"`
	ShippingAddressID *int64      `json:"shipping_address_id"`
	PlacedAt          time.Time   `json:"placed_at"`
	Lines             []OrderLine `json:"items,omitempty"`
	Payments          []Payment   `json:"payments,omitempty"`
}

// OrderLine is a frozen copy of a cart line at order time.
type OrderLine struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	ProductID      int64  `json:"product_id"`
	TitleSnapshot  string `json:"title_snapshot"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

type Payment struct {
	ID          int64         `json:"id"`
	OrderID     int64         `json:"order_id"`
	Provider    string        `json:"provider"`
	ProviderRef string        `json:"provider_ref"`
	AmountCents int64         `json:"amount_cents"`
	Status      PaymentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

package httpserver

import (
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// amount renders integer cents as a fixed two-decimal string, e.g. "10.00".
func amount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int          `json:"expires_in"`
	User      *domain.User `json:"user"`
}

type productResponse struct {
	domain.Product
	Price string `json:"price"`
}

func toProduct(p domain.Product) productResponse {
	return productResponse{Product: p, Price: amount(p.PriceCents)}
}

type productListResponse struct {
	Items  []productResponse `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type cartLineResponse struct {
	domain.CartLine
	LineTotalCents int64  `json:"line_total_cents"`
	UnitPrice      string `json:"unit_price"`
}

type cartResponse struct {
	ID            int64              `json:"id"`
	UserID        int64              `json:"user_id"`
	Items         []cartLineResponse `json:"items"`
	SubtotalCents int64              `json:"subtotal_cents"`
	Subtotal      string             `json:"subtotal"`
}

func toCart(c domain.Cart) cartResponse {
	items := make([]cartLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, cartLineResponse{
			CartLine:       l,
			LineTotalCents: l.UnitPriceCents * int64(l.Quantity),
			UnitPrice:      amount(l.UnitPriceCents),
		})
	}
	subtotal := c.SubtotalCents()
	return cartResponse{
		ID:            c.ID,
		UserID:        c.UserID,
		Items:         items,
		SubtotalCents: subtotal,
		Subtotal:      amount(subtotal),
	}
}

type orderResponse struct {
	ID                int64              `json:"id"`
	Status            domain.OrderStatus `json:"status"`
	SubtotalCents     int64              `json:"subtotal_cents"`
	ShippingCents     int64              `json:"shipping_cents"`
	TaxCents          int64              `json:"tax_cents"`
	TotalCents        int64              `json:"total_cents"`
	Total             string             `json:"total"`
	BillingAddressID  *int64             `json:"billing_address_id"`
	ShippingAddressID *int64             `json:"shipping_address_id"`
	PlacedAt          time.Time          `json:"placed_at"`
	Items             []domain.OrderLine `json:"items,omitempty"`
	Payments          []domain.Payment   `json:"payments,omitempty"`
}

func toOrder(o domain.Order) orderResponse {
	return orderResponse{
		ID:                o.ID,
		Status:            o.Status,
		SubtotalCents:     o.SubtotalCents,
		ShippingCents:     o.ShippingCents,
		TaxCents:          o.TaxCents,
		TotalCents:        o.TotalCents,
		Total:             amount(o.TotalCents),
		BillingAddressID:  o.BillingAddressID,
		ShippingAddressID: o.ShippingAddressID,
		PlacedAt:          o.PlacedAt,
		Items:             o.Lines,
		Payments:          o.Payments,
	}
}

package domain

import "time"

type Product struct {
	ID          int64     `json:"id"`
	CategoryID  *int64    `json:"category_id,omitempty"`
	SKU         string    `json:"sku,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	IsActive    bool      `json:"is_active"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

package domain

import "time"

// Address is an entry in a user's address book.
type Address struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	Label             string    `json:"label,omitempty"`
	Line1             string    `json:"line1"`
	Line2             string    `json:"line2,omitempty"`
	City              string    `json:"city"`
	Region            string    `json:"region,omitempty"`
	PostalCode        string    `json:"postal_code,omitempty"`
	CountryCode       string    `json:"country_code"`
	IsDefaultBilling  bool      `json:"is_default_billing"`
	IsDefaultShipping bool      `json:"is_default_shipping"`
	CreatedAt         time.Time `json:"created_at"`
}

// User represents a registered shopper.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

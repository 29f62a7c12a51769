package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInactive is returned for products that were deactivated.
	ErrInactive = errors.New("inactive")
	// ErrInvalid marks input that failed validation. Wrap it with details.
	ErrInvalid = errors.New("invalid input")
)

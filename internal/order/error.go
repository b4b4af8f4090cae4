package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNoStore       = errors.New("order store not configured")
)

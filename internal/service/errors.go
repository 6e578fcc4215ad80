package service

import "errors"

var (
	// ErrOrderStorageUnavailable is returned when no order repository is
	// configured, so orders can be neither created nor queried.
	ErrOrderStorageUnavailable = errors.New("order storage is not available")
	ErrProductNotFound         = errors.New("product not found")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrCartLineNotFound        = errors.New("cart line not found")
	ErrOrderNotFound           = errors.New("order not found")
)

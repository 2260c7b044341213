package inventory

import "errors"

var (
	ErrInvalidProductID  = errors.New("invalid product id")
	ErrInvalidStock      = errors.New("stock must not be negative")
	ErrProductNotFound   = errors.New("product not tracked in inventory")
	ErrInsufficientStock = errors.New("insufficient stock")
)

package pricing

import "errors"

var (
	ErrInvalidDiscountCode = errors.New("invalid discount code")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidShipping     = errors.New("invalid shipping method")
	ErrAmountOutOfRange    = errors.New("amount out of range")
)

package pricing

import (
	"fmt"
	"strings"
)

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

func ParseShippingMethod(value string) (ShippingMethod, error) {
	m := ShippingMethod(strings.ToLower(strings.TrimSpace(value)))
	switch m {
	case ShippingStandard, ShippingExpress:
		return m, nil
	case "":
		return ShippingStandard, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidShipping, value)
}

// ShippingRates holds the flat cost per method and the subtotal at which
// standard shipping is waived. All values are in base currency units.
type ShippingRates struct {
	FreeShippingThreshold int64 `json:"free_shipping_threshold"`
	Standard              int64 `json:"standard"`
	Express               int64 `json:"express"`
}

package pricing

import (
	"fmt"
	"strings"
)

type DiscountKind string

const (
	DiscountPercentage   DiscountKind = "percentage"
	DiscountFreeShipping DiscountKind = "free_shipping"
)

func (k DiscountKind) IsValid() bool {
	return k == DiscountPercentage || k == DiscountFreeShipping
}

// DiscountCode is a configured promotion. Value is a whole percent for
// percentage codes and ignored for free-shipping codes.
type DiscountCode struct {
	Code  string       `json:"code"`
	Kind  DiscountKind `json:"kind"`
	Value int64        `json:"value"`
}

func (d DiscountCode) Validate() error {
	if NormalizeCode(d.Code) == "" {
		return fmt.Errorf("discount code is empty")
	}
	if !d.Kind.IsValid() {
		return fmt.Errorf("discount %s: unknown kind %q", d.Code, d.Kind)
	}
	if d.Kind == DiscountPercentage && (d.Value <= 0 || d.Value > 100) {
		return fmt.Errorf("discount %s: percent must be within 1..100, got %d", d.Code, d.Value)
	}
	return nil
}

// DiscountTable maps normalized codes to their definitions.
type DiscountTable map[string]DiscountCode

func NewDiscountTable(codes ...DiscountCode) (DiscountTable, error) {
	t := make(DiscountTable, len(codes))
	for _, c := range codes {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		c.Code = NormalizeCode(c.Code)
		t[c.Code] = c
	}
	return t, nil
}

// NormalizeCode trims and upper-cases a code so lookups are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (t DiscountTable) Lookup(code string) (DiscountCode, error) {
	d, ok := t[NormalizeCode(code)]
	if !ok {
		return DiscountCode{}, ErrInvalidDiscountCode
	}
	return d, nil
}

// DiscountResult is the effect of a single applied code.
type DiscountResult struct {
	Code             string       `json:"code"`
	Kind             DiscountKind `json:"kind"`
	ShippingOverride bool         `json:"shipping_override"`
	DiscountAmount   int64        `json:"discount_amount"`
}

package pricing

import (
	"strings"

	"go.uber.org/multierr"
)

// Line is the priced view of a cart or order item.
type Line struct {
	UnitPrice int64
	Quantity  int
}

type Config struct {
	BaseCurrency Currency
	Shipping     ShippingRates
	Discounts    DiscountTable
}

// Engine computes order totals. It performs no I/O and holds no mutable
// state, so a single instance is shared across requests.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = CurrencyUSD
	}
	if cfg.Discounts == nil {
		cfg.Discounts = DiscountTable{}
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) BaseCurrency() Currency {
	return e.cfg.BaseCurrency
}

func (e *Engine) ShippingRates() ShippingRates {
	return e.cfg.Shipping
}

// Bounds in minor units. A maximal subtotal converted at any configured
// rate and scaled to provider subunits still fits in int64.
const (
	MaxUnitPrice    int64 = 10_000_000_000
	MaxLineQuantity       = 1000
	MaxSubtotal     int64 = 10_000_000_000_000
)

// CheckLines rejects prices or quantities outside the bounds above and a
// running subtotal past MaxSubtotal. Callers run it before ComputeSubtotal.
func CheckLines(lines []Line) error {
	var subtotal int64
	for _, l := range lines {
		if l.UnitPrice < 0 || l.UnitPrice > MaxUnitPrice || l.Quantity < 1 || l.Quantity > MaxLineQuantity {
			return ErrAmountOutOfRange
		}
		subtotal += l.UnitPrice * int64(l.Quantity)
		if subtotal > MaxSubtotal {
			return ErrAmountOutOfRange
		}
	}
	return nil
}

// ComputeSubtotal sums unit price times quantity. An empty cart is 0.
func ComputeSubtotal(lines []Line) int64 {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * int64(l.Quantity)
	}
	return subtotal
}

// ComputeTotal never returns a negative amount.
func ComputeTotal(subtotal, shippingCost, discountAmount int64) int64 {
	total := subtotal + shippingCost - discountAmount
	if total < 0 {
		return 0
	}
	return total
}

// ResolveShipping returns 0 when a free-shipping code is active, 0 for
// standard shipping at or above the threshold, and the flat rate otherwise.
func (e *Engine) ResolveShipping(subtotal int64, method ShippingMethod, freeShipping bool) int64 {
	if freeShipping {
		return 0
	}
	switch method {
	case ShippingExpress:
		return e.cfg.Shipping.Express
	default:
		if subtotal >= e.cfg.Shipping.FreeShippingThreshold {
			return 0
		}
		return e.cfg.Shipping.Standard
	}
}

// ApplyDiscount evaluates a single code against a subtotal. Unknown codes
// return ErrInvalidDiscountCode and a zero result.
func (e *Engine) ApplyDiscount(code string, subtotal int64) (DiscountResult, error) {
	d, err := e.cfg.Discounts.Lookup(code)
	if err != nil {
		return DiscountResult{}, err
	}

	res := DiscountResult{Code: d.Code, Kind: d.Kind}
	switch d.Kind {
	case DiscountPercentage:
		res.DiscountAmount = subtotal * d.Value / 100
	case DiscountFreeShipping:
		res.ShippingOverride = true
	}
	return res, nil
}

// Quote is a priced snapshot of a cart with its shipping and discount
// selections applied.
type Quote struct {
	Currency       Currency       `json:"currency"`
	Subtotal       int64          `json:"subtotal"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
	ShippingCost   int64          `json:"shipping_cost"`
	DiscountCode   string         `json:"discount_code,omitempty"`
	Discount       int64          `json:"discount"`
	FreeShipping   bool           `json:"free_shipping"`
	Total          int64          `json:"total"`
}

// Quote evaluates the discount code first, then shipping, then the total.
// An unknown code yields a quote without any discount alongside
// ErrInvalidDiscountCode.
func (e *Engine) Quote(lines []Line, method ShippingMethod, code string) (Quote, error) {
	subtotal := ComputeSubtotal(lines)

	var (
		disc    DiscountResult
		discErr error
	)
	if strings.TrimSpace(code) != "" {
		disc, discErr = e.ApplyDiscount(code, subtotal)
		if discErr != nil {
			disc = DiscountResult{}
		}
	}

	shipping := e.ResolveShipping(subtotal, method, disc.ShippingOverride)

	return Quote{
		Currency:       e.cfg.BaseCurrency,
		Subtotal:       subtotal,
		ShippingMethod: method,
		ShippingCost:   shipping,
		DiscountCode:   disc.Code,
		Discount:       clampDiscount(disc.DiscountAmount, subtotal+shipping),
		FreeShipping:   disc.ShippingOverride,
		Total:          ComputeTotal(subtotal, shipping, disc.DiscountAmount),
	}, discErr
}

// Localize converts each component of a base-currency quote and recomputes
// the total from the converted parts, so total = subtotal + shipping - discount
// still holds in the target currency.
func (e *Engine) Localize(q Quote, to Currency) (Quote, error) {
	if q.Currency == to {
		return q, nil
	}

	var errs []error
	conv := func(v int64) int64 {
		out, err := Convert(v, q.Currency, to)
		errs = append(errs, err)
		return out
	}

	out := q
	out.Currency = to
	out.Subtotal = conv(q.Subtotal)
	out.ShippingCost = conv(q.ShippingCost)
	out.Discount = clampDiscount(conv(q.Discount), out.Subtotal+out.ShippingCost)
	out.Total = ComputeTotal(out.Subtotal, out.ShippingCost, out.Discount)

	if err := multierr.Combine(errs...); err != nil {
		return Quote{}, err
	}
	return out, nil
}

func clampDiscount(discount, ceiling int64) int64 {
	if discount > ceiling {
		return ceiling
	}
	return discount
}

package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyNGN Currency = "NGN"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// CurrencyInfo describes how a currency is displayed and how it converts
// against the USD base. Rate is expressed in target units per base unit.
type CurrencyInfo struct {
	Code     Currency        `json:"code"`
	Symbol   string          `json:"symbol"`
	Decimals int32           `json:"decimals"`
	Rate     decimal.Decimal `json:"rate"`
}

var currencies = map[Currency]CurrencyInfo{
	CurrencyUSD: {Code: CurrencyUSD, Symbol: "$", Decimals: 2, Rate: decimal.NewFromInt(1)},
	CurrencyNGN: {Code: CurrencyNGN, Symbol: "₦", Decimals: 0, Rate: decimal.NewFromInt(1500)},
	CurrencyEUR: {Code: CurrencyEUR, Symbol: "€", Decimals: 2, Rate: decimal.RequireFromString("0.92")},
	CurrencyGBP: {Code: CurrencyGBP, Symbol: "£", Decimals: 2, Rate: decimal.RequireFromString("0.79")},
}

func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is in the rate table.
func (c Currency) IsValid() bool {
	_, ok := currencies[c]
	return ok
}

// ParseCurrency trims and upper-cases raw input before matching it
// against the supported table.
func ParseCurrency(value string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, value)
	}
	return c, nil
}

func LookupCurrency(c Currency) (CurrencyInfo, error) {
	info, ok := currencies[c]
	if !ok {
		return CurrencyInfo{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, c)
	}
	return info, nil
}

// SupportedCurrencies returns the rate table ordered by code.
func SupportedCurrencies() []CurrencyInfo {
	out := make([]CurrencyInfo, 0, len(currencies))
	for _, info := range currencies {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Convert multiplies an integer amount by the rate ratio between two
// currencies and rounds half away from zero to a whole unit of the target.
func Convert(amount int64, from, to Currency) (int64, error) {
	src, err := LookupCurrency(from)
	if err != nil {
		return 0, err
	}
	dst, err := LookupCurrency(to)
	if err != nil {
		return 0, err
	}
	if from == to {
		return amount, nil
	}

	converted := decimal.NewFromInt(amount).Mul(dst.Rate).Div(src.Rate).Round(0)
	return converted.IntPart(), nil
}

// FormatPrice renders an amount for display. Zero-decimal currencies show
// grouped whole units; the rest always show exactly their fraction digits.
// Unknown currencies fall back to the code as a prefix with two decimals.
func FormatPrice(amount int64, c Currency) string {
	info, ok := currencies[c]
	if !ok {
		info = CurrencyInfo{Code: c, Symbol: string(c) + " ", Decimals: 2}
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	p := message.NewPrinter(language.English)
	if info.Decimals == 0 {
		return sign + info.Symbol + p.Sprintf("%d", amount)
	}

	unit := int64(1)
	for i := int32(0); i < info.Decimals; i++ {
		unit *= 10
	}
	whole := p.Sprintf("%d", amount/unit)
	frac := fmt.Sprintf("%0*d", int(info.Decimals), amount%unit)
	return sign + info.Symbol + whole + "." + frac
}

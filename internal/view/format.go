package view

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const nairaSign = "₦"

var (
	printer  = message.NewPrinter(language.English)
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// FormatNaira renders an amount with thousands separators and at most two
// decimals, e.g. ₦15,000 or ₦2,500.5.
func FormatNaira(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	return sign + nairaSign + groupDecimal(amount.Round(2))
}

// FormatNairaCompact shortens large amounts for stat cards: ₦1.2M, ₦45K.
func FormatNairaCompact(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	switch {
	case amount.GreaterThanOrEqual(million):
		return sign + nairaSign + amount.Div(million).StringFixed(1) + "M"
	case amount.GreaterThanOrEqual(thousand):
		return sign + nairaSign + amount.Div(thousand).Round(0).String() + "K"
	default:
		return sign + nairaSign + groupDecimal(amount.Round(2))
	}
}

func groupDecimal(amount decimal.Decimal) string {
	whole := amount.Truncate(0)
	out := printer.Sprintf("%d", whole.IntPart())

	frac := strings.TrimRight(amount.Sub(whole).StringFixed(2), "0")
	frac = strings.TrimPrefix(frac, "0")
	if frac != "." && frac != "" {
		out += frac
	}
	return out
}

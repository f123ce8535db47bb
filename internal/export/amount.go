package export

import (
	"github.com/shopspring/decimal"
)

var (
	yi  = decimal.NewFromInt(100_000_000)
	wan = decimal.NewFromInt(10_000)
)

// FormatAmount renders a yuan amount with 亿/万 units and two decimals.
func FormatAmount(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(yi):
		return d.Div(yi).StringFixed(2) + "亿"
	case abs.GreaterThanOrEqual(wan):
		return d.Div(wan).StringFixed(2) + "万"
	default:
		return d.StringFixed(2)
	}
}

package scoring

import (
	"github.com/shopspring/decimal"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatCurrency renders a dollar amount compactly: $1.2M, $375K, $950.
func FormatCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount)
	switch {
	case d.GreaterThanOrEqual(million):
		return "$" + d.Div(million).StringFixed(1) + "M"
	case d.GreaterThanOrEqual(thousand):
		return "$" + d.Div(thousand).StringFixed(0) + "K"
	}
	return "$" + d.StringFixed(0)
}

// SumCosts adds amounts in decimal so long budget totals do not drift.
func SumCosts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}

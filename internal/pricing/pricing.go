// Package pricing turns Walmart costs into Shopify selling prices.
//
// Every formula has the shape (cost*Multiplier + Fee) / Divisor, rounded to
// cents. The presets fold sales tax, markup and card processing fees into
// those three numbers.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Formula computes a selling price from a cost.
type Formula struct {
	Multiplier decimal.Decimal
	Fee        decimal.Decimal
	Divisor    decimal.Decimal
}

// NewFormula builds a Formula from float parameters.
func NewFormula(multiplier, fee, divisor float64) Formula {
	return Formula{
		Multiplier: decimal.NewFromFloat(multiplier),
		Fee:        decimal.NewFromFloat(fee),
		Divisor:    decimal.NewFromFloat(divisor),
	}
}

var (
	// Audit prices synced store products:
	// (cost*1.08 tax + cost*0.10 markup + 0.30 fee) / (1 - 0.029 processing).
	Audit = NewFormula(1.18, 0.30, 0.971)

	// BestSeller prices best seller imports:
	// (cost*1.08 tax*1.10 markup + 0.30 fee) / (1 - 0.029 processing).
	BestSeller = NewFormula(1.188, 0.30, 0.971)
)

// DefaultMarkup is the markup used for CSV exports.
const DefaultMarkup = 0.40

// Markup returns a plain percentage markup formula; 0.40 adds 40%.
func Markup(pct float64) Formula {
	return Formula{
		Multiplier: decimal.NewFromFloat(1).Add(decimal.NewFromFloat(pct)),
		Fee:        decimal.Zero,
		Divisor:    decimal.NewFromInt(1),
	}
}

// Target returns the selling price for cost, rounded to cents.
// A cost of zero or less has no price and returns zero.
func (f Formula) Target(cost float64) decimal.Decimal {
	c := decimal.NewFromFloat(cost)
	if !c.IsPositive() || f.Divisor.IsZero() {
		return decimal.Zero
	}
	return c.Mul(f.Multiplier).Add(f.Fee).Div(f.Divisor).Round(2)
}

// TargetString is Target formatted for the Shopify API ("12.46").
func (f Formula) TargetString(cost float64) string {
	return Format(f.Target(cost))
}

// Format renders d with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatFloat renders a float price with exactly two decimals.
func FormatFloat(v float64) string {
	return Format(decimal.NewFromFloat(v))
}

// CompareAt returns msrp as a compare-at price when it is above price,
// otherwise "".
func CompareAt(msrp float64, price decimal.Decimal) string {
	m := decimal.NewFromFloat(msrp)
	if !m.GreaterThan(price) {
		return ""
	}
	return Format(m)
}

// Parse reads a price string such as "12.50". Blank or malformed input is zero.
func Parse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

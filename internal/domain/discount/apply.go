package discount

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount amount for the given rule and order subtotal.
// Percentage discounts are subtotal*value/100; fixed discounts are capped at
// the subtotal so the total can never go negative. The result is not rounded:
// rounding happens once, when the totals are finalized.
func Apply(rule *Rule, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch rule.Type {
	case TypePercentage:
		return floorAtZero(subtotal.Mul(rule.Value).Div(hundred)), nil
	case TypeFixed:
		return floorAtZero(decimal.Min(rule.Value, subtotal)), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", rule.Type)
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

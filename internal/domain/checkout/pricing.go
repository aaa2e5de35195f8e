package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/alibolt/nuvi-checkout/internal/domain/catalog"
	"github.com/alibolt/nuvi-checkout/internal/domain/discount"
)

// PricingConfig carries the injected pricing constants. Business logic never
// reads ambient process state.
type PricingConfig struct {
	// ShippingRate is the flat per-order shipping amount.
	ShippingRate decimal.Decimal
	// TaxRate is the flat tax fraction applied to subtotal minus discount,
	// e.g. 0.08 for 8%.
	TaxRate decimal.Decimal
}

// ResolvedItem pairs a catalog variant with the requested quantity.
type ResolvedItem struct {
	Variant  catalog.Variant
	Quantity int
}

// Totals is the monetary breakdown of a checkout. All values are rounded to
// two decimal places when the totals are built; intermediate math stays
// unrounded to avoid compounding rounding error.
type Totals struct {
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	Shipping     decimal.Decimal
	Total        decimal.Decimal
	DiscountCode string
}

// Subtotal returns the sum of unit price times quantity across items.
func Subtotal(items []ResolvedItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		line := item.Variant.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum
}

// ComputeTotals is a deterministic function from resolved items, an optional
// applied discount, and the pricing constants to the monetary breakdown:
//
//	taxable = subtotal - discount
//	tax     = taxable * TaxRate
//	total   = subtotal - discount + tax + shipping
func ComputeTotals(items []ResolvedItem, applied *discount.Applied, cfg PricingConfig) Totals {
	subtotal := Subtotal(items)

	discountAmount := decimal.Zero
	code := ""
	if applied != nil {
		discountAmount = applied.Amount
		code = applied.Code
	}

	taxable := subtotal.Sub(discountAmount)
	tax := taxable.Mul(cfg.TaxRate)
	total := subtotal.Sub(discountAmount).Add(tax).Add(cfg.ShippingRate)

	return Totals{
		Subtotal:     subtotal.Round(2),
		Discount:     discountAmount.Round(2),
		Tax:          tax.Round(2),
		Shipping:     cfg.ShippingRate.Round(2),
		Total:        total.Round(2),
		DiscountCode: code,
	}
}

// Package catalog defines products and purchasable variants.
package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a requested product does not exist in
// the store's catalog.
var ErrProductNotFound = errors.New("product not found")

// Product is a catalog item. Variants carry the actual price and stock.
type Product struct {
	ID          string
	StoreID     string
	Title       string
	Description string
	Images      []string
}

// Variant is a purchasable SKU-level option of a product. When TrackStock is
// false, Stock is informational only and never blocks a checkout.
type Variant struct {
	ID           string
	ProductID    string
	Title        string
	Price        decimal.Decimal
	Stock        int
	TrackStock   bool
	ProductTitle string
	Description  string
	Images       []string
}

// InsufficientStockError indicates a stock-tracked variant cannot cover the
// requested quantity.
type InsufficientStockError struct {
	VariantID string
	Title     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.Title, e.Requested, e.Available)
}

// Repository defines read operations over a single store's catalog. Every
// query is scoped by store ID; variants belonging to another tenant are never
// resolvable through it.
type Repository interface {
	ListProducts(ctx context.Context, storeID string) ([]Product, error)
	ProductByID(ctx context.Context, storeID, id string) (*Product, error)
	VariantsByProduct(ctx context.Context, storeID, productID string) ([]Variant, error)
	VariantsByIDs(ctx context.Context, storeID string, ids []string) ([]Variant, error)
}

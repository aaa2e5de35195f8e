// Package order defines persisted orders created on the offline payment path.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Statuses an order can carry at creation time. Later transitions (fulfilment,
// refunds) are administrative concerns outside this service.
const (
	StatusPendingPayment = "pending_payment"
	PaymentPending       = "pending"
)

// ErrDuplicateNumber is returned when an order number collides with an
// existing order of the same store. Callers regenerate the number and retry.
var ErrDuplicateNumber = errors.New("duplicate order number")

// Address is a point-in-time snapshot of a shipping or billing address.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// LineItem captures product and variant identity, title, and price at the
// time of purchase. Prices here never change retroactively, even if the
// source variant is repriced later.
type LineItem struct {
	ProductID    string
	VariantID    string
	Title        string
	VariantTitle string
	Price        decimal.Decimal
	Quantity     int
	Total        decimal.Decimal
	Position     int
}

// Order is created once, at the moment the manual-payment branch succeeds,
// and is never deleted by this flow.
type Order struct {
	ID            string
	StoreID       string
	Number        string
	Email         string
	Name          string
	Phone         string
	Status        string
	PaymentStatus string
	Currency      string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Shipping      decimal.Decimal
	Total         decimal.Decimal
	DiscountCode  string
	ShippingAddr  Address
	BillingAddr   Address
	Note          string
	Items         []LineItem
	CreatedAt     time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
}

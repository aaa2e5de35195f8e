// Package store defines the tenant entity and its typed payment settings.
package store

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no store exists for the requested subdomain.
var ErrNotFound = errors.New("store not found")

// Store represents a single tenant. Currency is fixed per store for the
// lifetime of a checkout.
type Store struct {
	ID        string
	Subdomain string
	Name      string
	Currency  string
	Payments  PaymentSettings
}

// PaymentSettings is the typed per-provider settings union. A nil member means
// the provider was never configured for the store; settings shape is validated
// at the settings-write boundary, so readers never re-validate.
type PaymentSettings struct {
	Stripe *StripeSettings
	Nuvi   *NuviSettings
	PayPal *PayPalSettings
	Manual *ManualSettings
}

// StripeSettings holds a store's own Stripe credentials.
type StripeSettings struct {
	Enabled        bool
	SecretKey      string
	PublishableKey string
}

// NuviSettings enables the platform-connected payment path. Commission
// overrides are optional; nil means the platform defaults apply.
type NuviSettings struct {
	Enabled           bool
	CommissionPercent *decimal.Decimal
	FixedFee          *decimal.Decimal
}

// PayPalSettings holds a store's PayPal credentials. The checkout branch for
// PayPal is not implemented yet; the settings exist so stores can configure it
// ahead of time.
type PayPalSettings struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
}

// ManualSettings holds bank transfer details shown to the customer on the
// offline payment path.
type ManualSettings struct {
	Enabled       bool
	BankName      string
	AccountName   string
	AccountNumber string
	Instructions  string
}

// AnyEnabled reports whether at least one payment provider is enabled.
func (s PaymentSettings) AnyEnabled() bool {
	return (s.Stripe != nil && s.Stripe.Enabled) ||
		(s.Nuvi != nil && s.Nuvi.Enabled) ||
		(s.PayPal != nil && s.PayPal.Enabled) ||
		(s.Manual != nil && s.Manual.Enabled)
}

// Repository resolves tenants. BySubdomain is the single ownership-resolution
// entry point: every request calls it exactly once.
type Repository interface {
	BySubdomain(ctx context.Context, subdomain string) (*Store, error)
}

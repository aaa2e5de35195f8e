// Package payment defines the hosted payment-session gateway abstraction and
// its Stripe implementation.
package payment

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"
)

// Status is the normalized payment state of a hosted session.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// maxImageURLs is the provider-imposed cap on product images per line item.
const maxImageURLs = 8

// LineItem describes one sellable line of a session. UnitAmount is in minor
// currency units.
type LineItem struct {
	Name        string
	Description string
	Images      []string
	UnitAmount  int64
	Quantity    int
}

// SessionParams holds everything needed to create a hosted checkout session.
type SessionParams struct {
	Currency       string
	LineItems      []LineItem
	ShippingAmount int64
	ShippingLabel  string
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	// AllowPromotionCodes lets the provider's own promo-code box appear on the
	// hosted page. Must stay false whenever a store discount was applied.
	AllowPromotionCodes bool
	Metadata            map[string]string
}

// Session is the normalized view of a provider-owned payment session.
type Session struct {
	ID            string
	URL           string
	Status        Status
	CustomerEmail string
	AmountTotal   decimal.Decimal
	Currency      string
}

// Gateway is the opaque "create payment session / retrieve session status"
// capability a checkout strategy calls.
type Gateway interface {
	CreateSession(ctx context.Context, params SessionParams) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}

// FilterImageURLs keeps at most maxImageURLs valid absolute http(s) URLs,
// preserving order. Providers reject sessions carrying relative paths or
// malformed URLs, so those are dropped silently.
func FilterImageURLs(urls []string) []string {
	out := make([]string, 0, min(len(urls), maxImageURLs))
	for _, raw := range urls {
		if len(out) == maxImageURLs {
			break
		}
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		out = append(out, raw)
	}
	return out
}

// MinorUnits converts a 2-decimal monetary amount to minor currency units.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

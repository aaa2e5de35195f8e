// Package discount implements store-scoped promotional code rules.
package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage applies a percentage-based discount to the subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed applies a fixed monetary discount capped at the subtotal.
	TypeFixed Type = "fixed"
)

var (
	// ErrInvalidCode is returned when a code is not found for the store or is
	// not active.
	ErrInvalidCode = errors.New("invalid discount code")
	// ErrExpired is returned when a discount is outside its validity window.
	ErrExpired = errors.New("discount code expired")
	// ErrMinimumNotMet is returned when the order subtotal is below the
	// discount's minimum order amount.
	ErrMinimumNotMet = errors.New("order does not meet discount minimum")
	// ErrUsageLimitReached is returned when a discount has exhausted its
	// allowed uses.
	ErrUsageLimitReached = errors.New("discount usage limit reached")
)

// Rule defines a discount's behaviour and eligibility constraints. A zero
// MinOrderAmount means no minimum; a zero UsageLimit means unlimited uses;
// nil window bounds are unbounded.
type Rule struct {
	Code           string
	Type           Type
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	StartsAt       *time.Time
	EndsAt         *time.Time
	UsageLimit     int
	UsageCount     int
	Active         bool
}

// Applied holds the outcome of a successfully validated discount.
type Applied struct {
	Code   string
	Type   Type
	Amount decimal.Decimal
}

// Repository provides lookup and usage tracking of discount rules, always
// scoped to one store.
type Repository interface {
	FindByCode(ctx context.Context, storeID, code string) (*Rule, error)
	IncrementUsage(ctx context.Context, storeID, code string) error
}

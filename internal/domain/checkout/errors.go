package checkout

import "github.com/go-faster/errors"

// Business-rule rejections: the request is well-formed but the store's data
// or configuration refuses it. Surfaced as client errors.
var (
	// ErrPaymentNotConfigured is returned when the store has no payment
	// provider enabled, or the provider owning a session cannot be inferred.
	ErrPaymentNotConfigured = errors.New("payment methods not configured")
	// ErrProductsNotFound is returned when one or more requested variants do
	// not resolve within the store's catalog (stale cart references, deleted
	// products, or cross-tenant ids).
	ErrProductsNotFound = errors.New("some products not found")
	// ErrMethodDisabled is returned when the requested payment method exists
	// but is not enabled for the store.
	ErrMethodDisabled = errors.New("payment method not enabled")
)

// ErrMethodNotImplemented is returned for payment methods the platform knows
// about but cannot process yet. Distinct from configuration failures.
var ErrMethodNotImplemented = errors.New("payment method not implemented")

// Operator misconfiguration: surfaced as server errors and logged distinctly,
// since they indicate a platform or store setup problem, not a user mistake.
var (
	// ErrPlatformNotConfigured is returned when the nuvi branch is requested
	// but the platform connected account or credentials are missing.
	ErrPlatformNotConfigured = errors.New("payment processor not configured")
	// ErrMerchantNotConfigured is returned when the stripe branch is requested
	// but the store's own secret key is missing.
	ErrMerchantNotConfigured = errors.New("store payment credentials not configured")
)

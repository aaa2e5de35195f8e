package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/alibolt/nuvi-checkout/internal/domain/catalog"
	"github.com/alibolt/nuvi-checkout/internal/domain/discount"
	"github.com/alibolt/nuvi-checkout/internal/domain/order"
	"github.com/alibolt/nuvi-checkout/internal/domain/store"
	"github.com/alibolt/nuvi-checkout/internal/payment"
)

// Config holds the injected platform constants for the checkout service.
type Config struct {
	// BaseURL is the public application URL used to build redirect links.
	BaseURL string
	// PlatformAccountID is the platform-level connected account for the nuvi
	// branch. Empty means the nuvi path is not operable.
	PlatformAccountID string
	// CommissionPercent and FixedFee are the default platform commission
	// parameters; stores can override them in their nuvi settings.
	CommissionPercent decimal.Decimal
	FixedFee          decimal.Decimal
	Pricing           PricingConfig
}

// GatewayFactory builds a payment gateway from a merchant's own secret key.
type GatewayFactory func(secretKey string) payment.Gateway

// Result is the outcome of a successful checkout. Hosted-session branches
// fill SessionID and RedirectURL; the manual branch fills the order fields
// and bank details, with RedirectURL pointing at a local confirmation page.
type Result struct {
	PaymentMethod Method
	SessionID     string
	RedirectURL   string
	OrderID       string
	OrderNumber   string
	BankDetails   *store.ManualSettings
	Totals        Totals
}

// Service runs the checkout pipeline: resolve store, resolve catalog items,
// compute totals, dispatch to the payment strategy for the requested method.
type Service struct {
	stores    store.Repository
	catalog   catalog.Repository
	discounts discount.Validator
	orders    order.Repository
	platform  payment.Gateway
	merchant  GatewayFactory
	cfg       Config

	strategies map[Method]strategy
	now        func() time.Time
}

// NewService creates a checkout Service. platform may be nil when the
// platform Stripe credentials are not configured; the nuvi branch then fails
// with ErrPlatformNotConfigured.
func NewService(
	stores store.Repository,
	cat catalog.Repository,
	discounts discount.Validator,
	orders order.Repository,
	platform payment.Gateway,
	merchant GatewayFactory,
	cfg Config,
) *Service {
	s := &Service{
		stores:    stores,
		catalog:   cat,
		discounts: discounts,
		orders:    orders,
		platform:  platform,
		merchant:  merchant,
		cfg:       cfg,
		now:       time.Now,
	}
	s.strategies = map[Method]strategy{
		MethodNuvi:   &nuviStrategy{svc: s},
		MethodStripe: &stripeStrategy{svc: s},
		MethodPayPal: paypalStrategy{},
		MethodManual: &manualStrategy{svc: s},
	}
	return s
}

// checkoutState carries the fully resolved inputs a strategy needs. Strategies
// share no mutable state across branches.
type checkoutState struct {
	store   *store.Store
	req     *Request
	items   []ResolvedItem
	totals  Totals
	applied *discount.Applied
}

type strategy interface {
	Execute(ctx context.Context, st *checkoutState) (*Result, error)
}

// Checkout validates nothing about the payload shape (the caller does that
// via ValidateRequest); it runs the pipeline strictly in order: store
// resolution, catalog resolution, stock guard, pricing, strategy dispatch.
// Every failure is terminal for the request; nothing is retried here.
func (s *Service) Checkout(ctx context.Context, subdomain string, req *Request) (*Result, error) {
	req.Normalize()

	st, err := s.stores.BySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	if !st.Payments.AnyEnabled() {
		return nil, ErrPaymentNotConfigured
	}

	items, err := s.resolveItems(ctx, st.ID, req.Items)
	if err != nil {
		return nil, err
	}

	var applied *discount.Applied
	if req.DiscountCode != "" {
		applied, err = s.discounts.Validate(ctx, st.ID, req.DiscountCode, Subtotal(items))
		if err != nil {
			return nil, err
		}
	}

	state := &checkoutState{
		store:   st,
		req:     req,
		items:   items,
		totals:  ComputeTotals(items, applied, s.cfg.Pricing),
		applied: applied,
	}

	strat, ok := s.strategies[req.PaymentMethod]
	if !ok {
		return nil, ErrMethodNotImplemented
	}
	return strat.Execute(ctx, state)
}

// resolveItems fetches the requested variants scoped to the store and applies
// the stock guard. A count mismatch between distinct requested ids and
// resolved variants means stale, deleted, or foreign-tenant references.
// Stock failures report the first offending item, before any provider call.
func (s *Service) resolveItems(ctx context.Context, storeID string, inputs []ItemInput) ([]ResolvedItem, error) {
	ids := make([]string, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.VariantID]; ok {
			continue
		}
		seen[in.VariantID] = struct{}{}
		ids = append(ids, in.VariantID)
	}

	variants, err := s.catalog.VariantsByIDs(ctx, storeID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolve variants")
	}
	if len(variants) != len(ids) {
		return nil, ErrProductsNotFound
	}

	byID := make(map[string]catalog.Variant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}

	items := make([]ResolvedItem, 0, len(inputs))
	for _, in := range inputs {
		v, ok := byID[in.VariantID]
		if !ok {
			return nil, ErrProductsNotFound
		}
		if v.TrackStock && v.Stock < in.Quantity {
			return nil, &catalog.InsufficientStockError{
				VariantID: v.ID,
				Title:     v.ProductTitle,
				Requested: in.Quantity,
				Available: v.Stock,
			}
		}
		items = append(items, ResolvedItem{Variant: v, Quantity: in.Quantity})
	}
	return items, nil
}

package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alibolt/nuvi-checkout/internal/domain/order"
	"github.com/alibolt/nuvi-checkout/internal/payment"
)

var hundred = decimal.NewFromInt(100)

// nuviStrategy creates a hosted session against the platform's connected
// account. The platform commission and the derived merchant payout travel as
// opaque session metadata; enforcement happens provider-side.
type nuviStrategy struct {
	svc *Service
}

func (n *nuviStrategy) Execute(ctx context.Context, st *checkoutState) (*Result, error) {
	ns := st.store.Payments.Nuvi
	if ns == nil || !ns.Enabled {
		return nil, ErrMethodDisabled
	}
	if n.svc.platform == nil || n.svc.cfg.PlatformAccountID == "" {
		return nil, ErrPlatformNotConfigured
	}

	percent := n.svc.cfg.CommissionPercent
	if ns.CommissionPercent != nil {
		percent = *ns.CommissionPercent
	}
	fixedFee := n.svc.cfg.FixedFee
	if ns.FixedFee != nil {
		fixedFee = *ns.FixedFee
	}

	fee := st.totals.Subtotal.Mul(percent).Div(hundred).Add(fixedFee).Round(2)
	payout := st.totals.Total.Sub(fee).Round(2)

	meta := sessionMetadata(st, MethodNuvi)
	meta["platform_fee"] = fee.StringFixed(2)
	meta["merchant_payout"] = payout.StringFixed(2)

	params := n.svc.sessionParams(st, MethodNuvi, meta)
	sess, err := n.svc.platform.CreateSession(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "create platform session")
	}

	return &Result{
		PaymentMethod: MethodNuvi,
		SessionID:     sess.ID,
		RedirectURL:   sess.URL,
		Totals:        st.totals,
	}, nil
}

// stripeStrategy creates a hosted session directly against the merchant's own
// provider account. Provider promotion codes are offered only when no store
// discount was applied: the two must never combine.
type stripeStrategy struct {
	svc *Service
}

func (s *stripeStrategy) Execute(ctx context.Context, st *checkoutState) (*Result, error) {
	ss := st.store.Payments.Stripe
	if ss == nil || !ss.Enabled {
		return nil, ErrMethodDisabled
	}
	if ss.SecretKey == "" {
		return nil, ErrMerchantNotConfigured
	}

	params := s.svc.sessionParams(st, MethodStripe, sessionMetadata(st, MethodStripe))
	params.AllowPromotionCodes = st.applied == nil

	sess, err := s.svc.merchant(ss.SecretKey).CreateSession(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "create merchant session")
	}

	return &Result{
		PaymentMethod: MethodStripe,
		SessionID:     sess.ID,
		RedirectURL:   sess.URL,
		Totals:        st.totals,
	}, nil
}

// paypalStrategy is a deliberate stub: the method is known but deferred.
type paypalStrategy struct{}

func (paypalStrategy) Execute(context.Context, *checkoutState) (*Result, error) {
	return nil, ErrMethodNotImplemented
}

// manualStrategy persists a pending order without any external provider call.
// The caller routes the customer to a local confirmation page showing the
// store's bank details.
type manualStrategy struct {
	svc *Service
}

// numberAttempts bounds regeneration when an order number collides.
const numberAttempts = 3

func (m *manualStrategy) Execute(ctx context.Context, st *checkoutState) (*Result, error) {
	ms := st.store.Payments.Manual
	if ms == nil || !ms.Enabled {
		return nil, ErrMethodDisabled
	}

	o := m.buildOrder(st)

	var err error
	for range numberAttempts {
		err = m.svc.orders.Create(ctx, o)
		if !errors.Is(err, order.ErrDuplicateNumber) {
			break
		}
		o.Number = order.NewNumber(m.svc.now())
	}
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return &Result{
		PaymentMethod: MethodManual,
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		BankDetails:   ms,
		RedirectURL: fmt.Sprintf("%s/s/%s/checkout/confirmation?order=%s",
			strings.TrimSuffix(m.svc.cfg.BaseURL, "/"), st.store.Subdomain, o.Number),
		Totals: st.totals,
	}, nil
}

func (m *manualStrategy) buildOrder(st *checkoutState) *order.Order {
	items := make([]order.LineItem, len(st.items))
	for i, item := range st.items {
		price := item.Variant.Price.Round(2)
		items[i] = order.LineItem{
			ProductID:    item.Variant.ProductID,
			VariantID:    item.Variant.ID,
			Title:        item.Variant.ProductTitle,
			VariantTitle: item.Variant.Title,
			Price:        price,
			Quantity:     item.Quantity,
			Total:        price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2),
			Position:     i + 1,
		}
	}

	return &order.Order{
		ID:            uuid.New().String(),
		StoreID:       st.store.ID,
		Number:        order.NewNumber(m.svc.now()),
		Email:         st.req.Customer.Email,
		Name:          st.req.Customer.Name,
		Phone:         st.req.Customer.Phone,
		Status:        order.StatusPendingPayment,
		PaymentStatus: order.PaymentPending,
		Currency:      st.store.Currency,
		Subtotal:      st.totals.Subtotal,
		Discount:      st.totals.Discount,
		Tax:           st.totals.Tax,
		Shipping:      st.totals.Shipping,
		Total:         st.totals.Total,
		DiscountCode:  st.totals.DiscountCode,
		ShippingAddr:  toOrderAddress(st.req.ShippingAddress),
		BillingAddr:   toOrderAddress(*st.req.BillingAddress),
		Note:          st.req.Note,
		Items:         items,
	}
}

func toOrderAddress(a AddressInput) order.Address {
	return order.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    strings.ToUpper(a.Country),
	}
}

// sessionMetadata builds the base metadata forwarded to the provider: the
// client's opaque entries plus the store and method tags.
func sessionMetadata(st *checkoutState, method Method) map[string]string {
	meta := make(map[string]string, len(st.req.Metadata)+2)
	for k, v := range st.req.Metadata {
		meta[k] = v
	}
	meta["store_subdomain"] = st.store.Subdomain
	meta["payment_method"] = string(method)
	return meta
}

// sessionParams assembles the provider session request: line items from the
// resolved variants, the flat shipping option matching the computed totals,
// and redirect URLs parameterized by subdomain and a session-id placeholder.
func (s *Service) sessionParams(st *checkoutState, method Method, meta map[string]string) payment.SessionParams {
	lineItems := make([]payment.LineItem, len(st.items))
	for i, item := range st.items {
		v := item.Variant
		name := v.ProductTitle
		if v.Title != "" {
			name = v.ProductTitle + " - " + v.Title
		}
		lineItems[i] = payment.LineItem{
			Name:        name,
			Description: v.Description,
			Images:      v.Images,
			UnitAmount:  payment.MinorUnits(v.Price),
			Quantity:    item.Quantity,
		}
	}

	base := strings.TrimSuffix(s.cfg.BaseURL, "/")
	sub := st.store.Subdomain

	return payment.SessionParams{
		Currency:       st.store.Currency,
		LineItems:      lineItems,
		ShippingAmount: payment.MinorUnits(st.totals.Shipping),
		ShippingLabel:  "Standard Shipping",
		CustomerEmail:  st.req.Customer.Email,
		SuccessURL: fmt.Sprintf("%s/s/%s/checkout/success?session_id={CHECKOUT_SESSION_ID}&payment=%s",
			base, sub, method),
		CancelURL: fmt.Sprintf("%s/s/%s/checkout/cancel", base, sub),
		Metadata:  meta,
	}
}

package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibolt/nuvi-checkout/internal/domain/catalog"
	"github.com/alibolt/nuvi-checkout/internal/domain/discount"
	"github.com/alibolt/nuvi-checkout/internal/domain/order"
	"github.com/alibolt/nuvi-checkout/internal/domain/store"
	"github.com/alibolt/nuvi-checkout/internal/payment"
)

type mockStores struct {
	store *store.Store
	err   error
}

func (m *mockStores) BySubdomain(context.Context, string) (*store.Store, error) {
	return m.store, m.err
}

type mockCatalog struct {
	variants []catalog.Variant
}

func (m *mockCatalog) ListProducts(context.Context, string) ([]catalog.Product, error) {
	return nil, nil
}

func (m *mockCatalog) ProductByID(context.Context, string, string) (*catalog.Product, error) {
	return nil, catalog.ErrProductNotFound
}

func (m *mockCatalog) VariantsByProduct(context.Context, string, string) ([]catalog.Variant, error) {
	return nil, nil
}

func (m *mockCatalog) VariantsByIDs(_ context.Context, _ string, ids []string) ([]catalog.Variant, error) {
	var out []catalog.Variant
	for _, id := range ids {
		for _, v := range m.variants {
			if v.ID == id {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

type mockDiscounts struct {
	applied *discount.Applied
	err     error
	code    string
}

func (m *mockDiscounts) Validate(_ context.Context, _, code string, _ decimal.Decimal) (*discount.Applied, error) {
	m.code = code
	return m.applied, m.err
}

type mockOrders struct {
	created    []*order.Order
	duplicates int
	err        error
}

func (m *mockOrders) Create(_ context.Context, o *order.Order) error {
	if m.err != nil {
		return m.err
	}
	if m.duplicates > 0 {
		m.duplicates--
		return order.ErrDuplicateNumber
	}
	copied := *o
	m.created = append(m.created, &copied)
	return nil
}

type fakeGateway struct {
	session    *payment.Session
	err        error
	lastParams payment.SessionParams
	calls      int
}

func (g *fakeGateway) CreateSession(_ context.Context, params payment.SessionParams) (*payment.Session, error) {
	g.calls++
	g.lastParams = params
	return g.session, g.err
}

func (g *fakeGateway) GetSession(context.Context, string) (*payment.Session, error) {
	return g.session, g.err
}

func demoStore() *store.Store {
	return &store.Store{
		ID:        "store_1",
		Subdomain: "demo",
		Name:      "Demo Store",
		Currency:  "USD",
		Payments: store.PaymentSettings{
			Stripe: &store.StripeSettings{Enabled: true, SecretKey: "sk_test_merchant"},
			Nuvi:   &store.NuviSettings{Enabled: true},
			Manual: &store.ManualSettings{
				Enabled:       true,
				BankName:      "Demo Bank",
				AccountName:   "Demo Store Ltd",
				AccountNumber: "DE00",
			},
		},
	}
}

func demoVariants() []catalog.Variant {
	return []catalog.Variant{
		{
			ID: "var_tee_m", ProductID: "prod_tee", Title: "M",
			ProductTitle: "Organic Cotton Tee",
			Price:        decimal.RequireFromString("25.00"),
			Stock:        20, TrackStock: true,
		},
		{
			ID: "var_mug", ProductID: "prod_mug",
			ProductTitle: "Stoneware Mug",
			Price:        decimal.RequireFromString("12.50"),
		},
	}
}

func validRequest(method Method) *Request {
	return &Request{
		Items: []ItemInput{{VariantID: "var_tee_m", Quantity: 2}},
		Customer: CustomerInput{
			Email: "buyer@example.com",
			Name:  "Jordan Buyer",
		},
		ShippingAddress: AddressInput{
			Line1: "1 Main St", City: "Springfield", State: "IL",
			PostalCode: "62701", Country: "us",
		},
		PaymentMethod: method,
	}
}

type serviceFixture struct {
	svc       *Service
	stores    *mockStores
	catalog   *mockCatalog
	discounts *mockDiscounts
	orders    *mockOrders
	platform  *fakeGateway
	merchant  *fakeGateway
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		stores:    &mockStores{store: demoStore()},
		catalog:   &mockCatalog{variants: demoVariants()},
		discounts: &mockDiscounts{},
		orders:    &mockOrders{},
		platform:  &fakeGateway{session: &payment.Session{ID: "cs_platform", URL: "https://pay.example/p"}},
		merchant:  &fakeGateway{session: &payment.Session{ID: "cs_merchant", URL: "https://pay.example/m"}},
	}
	f.svc = NewService(
		f.stores, f.catalog, f.discounts, f.orders,
		f.platform,
		func(string) payment.Gateway { return f.merchant },
		Config{
			BaseURL:           "http://localhost:3000",
			PlatformAccountID: "acct_platform",
			CommissionPercent: decimal.NewFromInt(5),
			FixedFee:          decimal.RequireFromString("0.30"),
			Pricing:           testPricing(),
		},
	)
	return f
}

func TestCheckout_StripeBranch(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodStripe))
	require.NoError(t, err)

	assert.Equal(t, MethodStripe, res.PaymentMethod)
	assert.Equal(t, "cs_merchant", res.SessionID)
	assert.Equal(t, "https://pay.example/m", res.RedirectURL)
	assert.True(t, decimal.RequireFromString("64.00").Equal(res.Totals.Total),
		"total: got %s", res.Totals.Total)

	require.Equal(t, 1, f.merchant.calls)
	assert.Equal(t, 0, f.platform.calls)

	params := f.merchant.lastParams
	assert.Equal(t, "USD", params.Currency)
	assert.Equal(t, "buyer@example.com", params.CustomerEmail)
	assert.True(t, params.AllowPromotionCodes)
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, "Organic Cotton Tee - M", params.LineItems[0].Name)
	assert.Equal(t, int64(2500), params.LineItems[0].UnitAmount)
	assert.Equal(t, 2, params.LineItems[0].Quantity)
	assert.Equal(t, int64(1000), params.ShippingAmount)
	assert.Equal(t, "demo", params.Metadata["store_subdomain"])
	assert.Equal(t, "stripe", params.Metadata["payment_method"])
	assert.Contains(t, params.SuccessURL, "session_id={CHECKOUT_SESSION_ID}")
	assert.Contains(t, params.SuccessURL, "payment=stripe")
}

func TestCheckout_DefaultMethodIsStripe(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Checkout(context.Background(), "demo", validRequest(""))
	require.NoError(t, err)
	assert.Equal(t, MethodStripe, res.PaymentMethod)
}

func TestCheckout_StoreDiscountDisablesPromotionCodes(t *testing.T) {
	f := newFixture()
	f.discounts.applied = &discount.Applied{
		Code: "SAVE10", Type: discount.TypePercentage,
		Amount: decimal.RequireFromString("5.00"),
	}

	req := validRequest(MethodStripe)
	req.DiscountCode = "SAVE10"

	res, err := f.svc.Checkout(context.Background(), "demo", req)
	require.NoError(t, err)

	assert.False(t, f.merchant.lastParams.AllowPromotionCodes)
	assert.Equal(t, "SAVE10", f.discounts.code)
	assert.Equal(t, "SAVE10", res.Totals.DiscountCode)
	assert.True(t, decimal.RequireFromString("58.60").Equal(res.Totals.Total),
		"total: got %s", res.Totals.Total)
}

func TestCheckout_DiscountRejectionIsTerminal(t *testing.T) {
	f := newFixture()
	f.discounts.err = discount.ErrMinimumNotMet

	req := validRequest(MethodStripe)
	req.DiscountCode = "MIN100"

	_, err := f.svc.Checkout(context.Background(), "demo", req)
	require.ErrorIs(t, err, discount.ErrMinimumNotMet)
	assert.Equal(t, 0, f.merchant.calls)
}

func TestCheckout_NuviBranch(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodNuvi))
	require.NoError(t, err)

	assert.Equal(t, MethodNuvi, res.PaymentMethod)
	assert.Equal(t, "cs_platform", res.SessionID)
	require.Equal(t, 1, f.platform.calls)
	assert.Equal(t, 0, f.merchant.calls)

	// fee = 50 * 5% + 0.30 = 2.80, payout = 64.00 - 2.80 = 61.20
	meta := f.platform.lastParams.Metadata
	assert.Equal(t, "2.80", meta["platform_fee"])
	assert.Equal(t, "61.20", meta["merchant_payout"])
	assert.Equal(t, "nuvi", meta["payment_method"])
}

func TestCheckout_NuviCommissionOverride(t *testing.T) {
	f := newFixture()
	percent := decimal.NewFromInt(10)
	fee := decimal.RequireFromString("0.50")
	f.stores.store.Payments.Nuvi.CommissionPercent = &percent
	f.stores.store.Payments.Nuvi.FixedFee = &fee

	_, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodNuvi))
	require.NoError(t, err)

	// fee = 50 * 10% + 0.50 = 5.50, payout = 64.00 - 5.50 = 58.50
	meta := f.platform.lastParams.Metadata
	assert.Equal(t, "5.50", meta["platform_fee"])
	assert.Equal(t, "58.50", meta["merchant_payout"])
}

func TestCheckout_NuviWithoutPlatformCredentials(t *testing.T) {
	f := newFixture()
	f.svc.platform = nil

	_, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodNuvi))
	require.ErrorIs(t, err, ErrPlatformNotConfigured)
}

func TestCheckout_MethodDisabled(t *testing.T) {
	f := newFixture()
	f.stores.store.Payments.Nuvi.Enabled = false

	_, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodNuvi))
	require.ErrorIs(t, err, ErrMethodDisabled)
}

func TestCheckout_PayPalNotImplemented(t *testing.T) {
	f := newFixture()
	f.stores.store.Payments.PayPal = &store.PayPalSettings{Enabled: true}

	_, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodPayPal))
	require.ErrorIs(t, err, ErrMethodNotImplemented)
}

func TestCheckout_MerchantKeyMissing(t *testing.T) {
	f := newFixture()
	f.stores.store.Payments.Stripe.SecretKey = ""

	_, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodStripe))
	require.ErrorIs(t, err, ErrMerchantNotConfigured)
}

func TestCheckout_NoProviderEnabled(t *testing.T) {
	f := newFixture()
	f.stores.store.Payments = store.PaymentSettings{
		Stripe: &store.StripeSettings{Enabled: false},
	}

	_, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodStripe))
	require.ErrorIs(t, err, ErrPaymentNotConfigured)
}

func TestCheckout_StoreNotFound(t *testing.T) {
	f := newFixture()
	f.stores.store = nil
	f.stores.err = store.ErrNotFound

	_, err := f.svc.Checkout(context.Background(), "missing", validRequest(MethodStripe))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCheckout_UnknownVariant(t *testing.T) {
	f := newFixture()

	req := validRequest(MethodStripe)
	req.Items = append(req.Items, ItemInput{VariantID: "var_other_store", Quantity: 1})

	_, err := f.svc.Checkout(context.Background(), "demo", req)
	require.ErrorIs(t, err, ErrProductsNotFound)
	assert.Equal(t, 0, f.merchant.calls)
}

func TestCheckout_StockGuardBeforeProviderCall(t *testing.T) {
	f := newFixture()

	req := validRequest(MethodStripe)
	req.Items = []ItemInput{{VariantID: "var_tee_m", Quantity: 21}}

	_, err := f.svc.Checkout(context.Background(), "demo", req)

	var stockErr *catalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "var_tee_m", stockErr.VariantID)
	assert.Equal(t, 21, stockErr.Requested)
	assert.Equal(t, 20, stockErr.Available)
	assert.Equal(t, 0, f.merchant.calls)
}

func TestCheckout_UntrackedStockNeverBlocks(t *testing.T) {
	f := newFixture()

	req := validRequest(MethodStripe)
	req.Items = []ItemInput{{VariantID: "var_mug", Quantity: 500}}

	_, err := f.svc.Checkout(context.Background(), "demo", req)
	require.NoError(t, err)
}

func TestCheckout_ManualBranch(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodManual))
	require.NoError(t, err)

	assert.Equal(t, MethodManual, res.PaymentMethod)
	assert.Empty(t, res.SessionID)
	assert.NotEmpty(t, res.OrderID)
	assert.Regexp(t, `^ORD-\d+-[0-9A-F]{4}$`, res.OrderNumber)
	require.NotNil(t, res.BankDetails)
	assert.Equal(t, "Demo Bank", res.BankDetails.BankName)
	assert.Equal(t, "http://localhost:3000/s/demo/checkout/confirmation?order="+res.OrderNumber, res.RedirectURL)

	require.Len(t, f.orders.created, 1)
	o := f.orders.created[0]
	assert.Equal(t, order.StatusPendingPayment, o.Status)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)
	assert.Equal(t, "USD", o.Currency)
	assert.True(t, decimal.RequireFromString("64.00").Equal(o.Total))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Organic Cotton Tee", o.Items[0].Title)
	assert.Equal(t, 1, o.Items[0].Position)

	// Billing defaults to shipping and country is uppercased.
	assert.Equal(t, o.ShippingAddr, o.BillingAddr)
	assert.Equal(t, "US", o.ShippingAddr.Country)

	assert.Equal(t, 0, f.merchant.calls)
	assert.Equal(t, 0, f.platform.calls)
}

func TestCheckout_ManualRetriesDuplicateNumber(t *testing.T) {
	f := newFixture()
	f.orders.duplicates = 2

	res, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodManual))
	require.NoError(t, err)
	require.Len(t, f.orders.created, 1)
	assert.Equal(t, f.orders.created[0].Number, res.OrderNumber)
}

func TestCheckout_ManualGivesUpAfterRepeatedDuplicates(t *testing.T) {
	f := newFixture()
	f.orders.duplicates = numberAttempts

	_, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodManual))
	require.ErrorIs(t, err, order.ErrDuplicateNumber)
}

func TestCheckout_ProviderFailureSurfaces(t *testing.T) {
	f := newFixture()
	f.merchant.err = errors.New("stripe: boom")

	_, err := f.svc.Checkout(context.Background(), "demo", validRequest(MethodStripe))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create merchant session")
}

func TestSessionStatus(t *testing.T) {
	tests := []struct {
		name        string
		hint        Method
		setup       func(f *serviceFixture)
		wantGateway func(f *serviceFixture) *fakeGateway
		wantErr     error
	}{
		{
			name:        "nuvi hint uses platform gateway",
			hint:        MethodNuvi,
			wantGateway: func(f *serviceFixture) *fakeGateway { return f.platform },
		},
		{
			name:        "stripe hint uses merchant gateway",
			hint:        MethodStripe,
			wantGateway: func(f *serviceFixture) *fakeGateway { return f.merchant },
		},
		{
			name:        "no hint prefers platform when nuvi enabled",
			wantGateway: func(f *serviceFixture) *fakeGateway { return f.platform },
		},
		{
			name: "no hint falls back to merchant when nuvi disabled",
			setup: func(f *serviceFixture) {
				f.stores.store.Payments.Nuvi.Enabled = false
			},
			wantGateway: func(f *serviceFixture) *fakeGateway { return f.merchant },
		},
		{
			name: "no resolvable owner",
			setup: func(f *serviceFixture) {
				f.stores.store.Payments.Nuvi.Enabled = false
				f.stores.store.Payments.Stripe.Enabled = false
			},
			wantErr: ErrPaymentNotConfigured,
		},
		{
			name: "nuvi hint without platform gateway",
			hint: MethodNuvi,
			setup: func(f *serviceFixture) {
				f.svc.platform = nil
			},
			wantErr: ErrPaymentNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.platform.session = &payment.Session{ID: "cs_1", Status: payment.StatusPaid}
			f.merchant.session = &payment.Session{ID: "cs_1", Status: payment.StatusPending}
			if tt.setup != nil {
				tt.setup(f)
			}

			sess, err := f.svc.SessionStatus(context.Background(), "demo", "cs_1", tt.hint)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantGateway(f).session.Status, sess.Status)
		})
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibolt/nuvi-checkout/internal/domain/catalog"
	"github.com/alibolt/nuvi-checkout/internal/domain/checkout"
	"github.com/alibolt/nuvi-checkout/internal/domain/discount"
	"github.com/alibolt/nuvi-checkout/internal/domain/order"
	"github.com/alibolt/nuvi-checkout/internal/domain/store"
	"github.com/alibolt/nuvi-checkout/internal/payment"
)

type stubStores struct {
	store *store.Store
}

func (s *stubStores) BySubdomain(_ context.Context, subdomain string) (*store.Store, error) {
	if s.store == nil || s.store.Subdomain != subdomain {
		return nil, store.ErrNotFound
	}
	return s.store, nil
}

type stubCatalog struct {
	products []catalog.Product
	variants []catalog.Variant
}

func (c *stubCatalog) ListProducts(context.Context, string) ([]catalog.Product, error) {
	return c.products, nil
}

func (c *stubCatalog) ProductByID(_ context.Context, _, id string) (*catalog.Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

func (c *stubCatalog) VariantsByProduct(_ context.Context, _, productID string) ([]catalog.Variant, error) {
	var out []catalog.Variant
	for _, v := range c.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *stubCatalog) VariantsByIDs(_ context.Context, _ string, ids []string) ([]catalog.Variant, error) {
	var out []catalog.Variant
	for _, id := range ids {
		for _, v := range c.variants {
			if v.ID == id {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

type stubDiscounts struct{}

func (stubDiscounts) Validate(context.Context, string, string, decimal.Decimal) (*discount.Applied, error) {
	return nil, discount.ErrInvalidCode
}

type stubOrders struct{}

func (stubOrders) Create(context.Context, *order.Order) error { return nil }

type stubGateway struct {
	session *payment.Session
	err     error
}

func (g *stubGateway) CreateSession(context.Context, payment.SessionParams) (*payment.Session, error) {
	return g.session, g.err
}

func (g *stubGateway) GetSession(context.Context, string) (*payment.Session, error) {
	return g.session, g.err
}

func testStore() *store.Store {
	return &store.Store{
		ID:        "store_1",
		Subdomain: "demo",
		Name:      "Demo Store",
		Currency:  "USD",
		Payments: store.PaymentSettings{
			Stripe: &store.StripeSettings{Enabled: true, SecretKey: "sk_test"},
			Manual: &store.ManualSettings{
				Enabled:       true,
				BankName:      "Demo Bank",
				AccountName:   "Demo Store Ltd",
				AccountNumber: "DE00",
			},
		},
	}
}

func testMux(gw *stubGateway) *http.ServeMux {
	stores := &stubStores{store: testStore()}
	cat := &stubCatalog{
		products: []catalog.Product{
			{ID: "prod_tee", StoreID: "store_1", Title: "Organic Cotton Tee", Images: []string{}},
		},
		variants: []catalog.Variant{
			{
				ID: "var_tee_m", ProductID: "prod_tee", Title: "M",
				ProductTitle: "Organic Cotton Tee",
				Price:        decimal.RequireFromString("25.00"),
				Stock:        20, TrackStock: true,
			},
		},
	}

	svc := checkout.NewService(
		stores, cat, stubDiscounts{}, stubOrders{},
		gw,
		func(string) payment.Gateway { return gw },
		checkout.Config{
			BaseURL:           "http://localhost:3000",
			PlatformAccountID: "acct_1",
			CommissionPercent: decimal.NewFromInt(5),
			FixedFee:          decimal.RequireFromString("0.30"),
			Pricing: checkout.PricingConfig{
				ShippingRate: decimal.RequireFromString("10.00"),
				TaxRate:      decimal.RequireFromString("0.08"),
			},
		},
	)

	mux := http.NewServeMux()
	NewHandler(svc, stores, cat).Register(mux)
	return mux
}

func checkoutBody(method string) string {
	return `{
		"items": [{"variantId": "var_tee_m", "quantity": 2}],
		"customer": {"email": "buyer@example.com", "name": "Jordan Buyer"},
		"shippingAddress": {
			"line1": "1 Main St", "city": "Springfield", "state": "IL",
			"postalCode": "62701", "country": "US"
		},
		"paymentMethod": "` + method + `"
	}`
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestCreateCheckout_StripeSession(t *testing.T) {
	gw := &stubGateway{session: &payment.Session{ID: "cs_123", URL: "https://checkout.example/cs_123"}}
	mux := testMux(gw)

	rec, body := doRequest(t, mux, http.MethodPost, "/api/stores/demo/checkout", checkoutBody("stripe"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stripe", body["paymentMethod"])
	assert.Equal(t, "cs_123", body["sessionId"])
	assert.Equal(t, "https://checkout.example/cs_123", body["redirectUrl"])

	totals, ok := body["totals"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 50.0, totals["subtotal"], 0.001)
	assert.InDelta(t, 4.0, totals["tax"], 0.001)
	assert.InDelta(t, 10.0, totals["shipping"], 0.001)
	assert.InDelta(t, 64.0, totals["total"], 0.001)
}

func TestCreateCheckout_ManualOrder(t *testing.T) {
	mux := testMux(&stubGateway{})

	rec, body := doRequest(t, mux, http.MethodPost, "/api/stores/demo/checkout", checkoutBody("manual"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manual", body["paymentMethod"])
	assert.NotEmpty(t, body["orderId"])
	assert.NotEmpty(t, body["orderNumber"])
	assert.Nil(t, body["sessionId"])

	bank, ok := body["bankDetails"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Demo Bank", bank["bankName"])
	assert.Equal(t, "DE00", bank["accountNumber"])
}

func TestCreateCheckout_InvalidJSON(t *testing.T) {
	mux := testMux(&stubGateway{})

	rec, body := doRequest(t, mux, http.MethodPost, "/api/stores/demo/checkout", "{not json")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", body["message"])
}

func TestCreateCheckout_ValidationErrors(t *testing.T) {
	mux := testMux(&stubGateway{})

	rec, body := doRequest(t, mux, http.MethodPost, "/api/stores/demo/checkout",
		`{"items": [{"variantId": "", "quantity": 0}], "customer": {"email": "nope"}}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request", body["message"])

	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, fields)

	var names []string
	for _, f := range fields {
		fm := f.(map[string]any)
		names = append(names, fm["field"].(string))
	}
	assert.Contains(t, names, "items[0].variantId")
	assert.Contains(t, names, "items[0].quantity")
	assert.Contains(t, names, "customer.email")
}

func TestCreateCheckout_UnknownStore(t *testing.T) {
	mux := testMux(&stubGateway{})

	rec, _ := doRequest(t, mux, http.MethodPost, "/api/stores/nope/checkout", checkoutBody("stripe"))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCheckout_PayPalNotImplemented(t *testing.T) {
	mux := testMux(&stubGateway{})

	rec, _ := doRequest(t, mux, http.MethodPost, "/api/stores/demo/checkout", checkoutBody("paypal"))
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestCreateCheckout_InsufficientStock(t *testing.T) {
	mux := testMux(&stubGateway{})

	body := `{
		"items": [{"variantId": "var_tee_m", "quantity": 99}],
		"customer": {"email": "buyer@example.com", "name": "Jordan Buyer"},
		"shippingAddress": {
			"line1": "1 Main St", "city": "Springfield", "state": "IL",
			"postalCode": "62701", "country": "US"
		}
	}`
	rec, resp := doRequest(t, mux, http.MethodPost, "/api/stores/demo/checkout", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["message"], "insufficient stock")
}

func TestCreateCheckout_ProviderFailureIsOpaque(t *testing.T) {
	gw := &stubGateway{err: &payment.APIError{
		StatusCode: 402, Type: "card_error", Code: "card_declined", Message: "Your card was declined.",
	}}
	mux := testMux(gw)

	rec, body := doRequest(t, mux, http.MethodPost, "/api/stores/demo/checkout", checkoutBody("stripe"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "payment provider request failed", body["message"])
}

func TestCheckoutStatus(t *testing.T) {
	gw := &stubGateway{session: &payment.Session{
		ID: "cs_123", Status: payment.StatusPaid,
		CustomerEmail: "buyer@example.com",
		AmountTotal:   decimal.RequireFromString("64.00"),
		Currency:      "USD",
	}}
	mux := testMux(gw)

	rec, body := doRequest(t, mux, http.MethodGet,
		"/api/stores/demo/checkout?session_id=cs_123&payment=stripe", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paid", body["status"])
	assert.Equal(t, "buyer@example.com", body["customerEmail"])
	assert.InDelta(t, 64.0, body["amountTotal"], 0.001)
	assert.Equal(t, "USD", body["currency"])
}

func TestCheckoutStatus_MissingSessionID(t *testing.T) {
	mux := testMux(&stubGateway{})

	rec, body := doRequest(t, mux, http.MethodGet, "/api/stores/demo/checkout", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "session_id is required", body["message"])
}

func TestListProducts(t *testing.T) {
	mux := testMux(&stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/stores/demo/products", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var products []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "prod_tee", products[0]["id"])
	assert.Equal(t, "Organic Cotton Tee", products[0]["title"])
}

func TestGetProduct(t *testing.T) {
	mux := testMux(&stubGateway{})

	rec, body := doRequest(t, mux, http.MethodGet, "/api/stores/demo/products/prod_tee", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prod_tee", body["id"])

	variants, ok := body["variants"].([]any)
	require.True(t, ok)
	require.Len(t, variants, 1)
	v := variants[0].(map[string]any)
	assert.Equal(t, "var_tee_m", v["id"])
	assert.InDelta(t, 25.0, v["price"], 0.001)
	assert.Equal(t, true, v["inStock"])
}

func TestGetProduct_NotFound(t *testing.T) {
	mux := testMux(&stubGateway{})

	rec, _ := doRequest(t, mux, http.MethodGet, "/api/stores/demo/products/prod_missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

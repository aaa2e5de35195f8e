package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultStripeBaseURL is the production Stripe API endpoint.
const DefaultStripeBaseURL = "https://api.stripe.com"

var _ Gateway = (*StripeClient)(nil)

// StripeConfig configures a StripeClient.
type StripeConfig struct {
	// SecretKey authenticates every call.
	SecretKey string
	// AccountID, when set, makes the client act on behalf of a connected
	// account (Stripe-Account header). Used by the platform-connected path.
	AccountID string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// HTTPClient overrides the default client with its 30s timeout.
	HTTPClient *http.Client
}

// StripeClient creates and retrieves Stripe Checkout sessions through the
// form-encoded REST API.
type StripeClient struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	accountID  string
}

// NewStripeClient creates a StripeClient from the given config.
func NewStripeClient(cfg StripeConfig) *StripeClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultStripeBaseURL
	}
	return &StripeClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		secretKey:  cfg.SecretKey,
		accountID:  cfg.AccountID,
	}
}

// APIError is a provider-side failure. It carries Stripe's public error
// fields only; credentials and raw request data never appear in it.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %d %s (%s)", e.StatusCode, e.Message, e.Code)
}

// stripeSession mirrors the subset of the Checkout Session resource we read.
type stripeSession struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	AmountTotal     int64  `json:"amount_total"`
	Currency        string `json:"currency"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// CreateSession creates a hosted Checkout session in payment mode.
func (c *StripeClient) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}
	if params.AllowPromotionCodes {
		form.Set("allow_promotion_codes", "true")
	}

	currency := strings.ToLower(params.Currency)
	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
		for j, img := range FilterImageURLs(item.Images) {
			form.Set(fmt.Sprintf("%s[price_data][product_data][images][%d]", prefix, j), img)
		}
	}

	form.Set("shipping_options[0][shipping_rate_data][type]", "fixed_amount")
	form.Set("shipping_options[0][shipping_rate_data][fixed_amount][amount]", strconv.FormatInt(params.ShippingAmount, 10))
	form.Set("shipping_options[0][shipping_rate_data][fixed_amount][currency]", currency)
	shippingLabel := params.ShippingLabel
	if shippingLabel == "" {
		shippingLabel = "Shipping"
	}
	form.Set("shipping_options[0][shipping_rate_data][display_name]", shippingLabel)

	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var raw stripeSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &raw); err != nil {
		return nil, err
	}
	return normalizeSession(raw), nil
}

// GetSession retrieves a session by ID and normalizes its status.
func (c *StripeClient) GetSession(ctx context.Context, id string) (*Session, error) {
	var raw stripeSession
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}
	return normalizeSession(raw), nil
}

func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.accountID != "" {
		req.Header.Set("Stripe-Account", c.accountID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "stripe request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode stripe response")
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: "request failed"}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil {
		apiErr.Type = payload.Error.Type
		apiErr.Code = payload.Error.Code
		if payload.Error.Message != "" {
			apiErr.Message = payload.Error.Message
		}
	}
	return apiErr
}

func normalizeSession(raw stripeSession) *Session {
	email := raw.CustomerEmail
	if email == "" {
		email = raw.CustomerDetails.Email
	}

	status := StatusPending
	switch {
	case raw.PaymentStatus == "paid" || raw.PaymentStatus == "no_payment_required":
		status = StatusPaid
	case raw.Status == "expired":
		status = StatusFailed
	}

	return &Session{
		ID:            raw.ID,
		URL:           raw.URL,
		Status:        status,
		CustomerEmail: email,
		AmountTotal:   decimal.New(raw.AmountTotal, -2),
		Currency:      strings.ToUpper(raw.Currency),
	}
}

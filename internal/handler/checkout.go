package handler

import (
	"encoding/json"
	"net/http"

	"github.com/alibolt/nuvi-checkout/internal/domain/checkout"
	"github.com/alibolt/nuvi-checkout/internal/domain/store"
)

// checkoutResponse is the success body of a checkout. Hosted-session branches
// fill sessionId and redirectUrl; the manual branch fills the order fields and
// bank details.
type checkoutResponse struct {
	PaymentMethod string           `json:"paymentMethod"`
	SessionID     string           `json:"sessionId,omitempty"`
	RedirectURL   string           `json:"redirectUrl,omitempty"`
	OrderID       string           `json:"orderId,omitempty"`
	OrderNumber   string           `json:"orderNumber,omitempty"`
	BankDetails   *bankDetailsBody `json:"bankDetails,omitempty"`
	Totals        totalsBody       `json:"totals"`
}

type bankDetailsBody struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	Instructions  string `json:"instructions,omitempty"`
}

type totalsBody struct {
	Subtotal     float64 `json:"subtotal"`
	Discount     float64 `json:"discount"`
	Tax          float64 `json:"tax"`
	Shipping     float64 `json:"shipping"`
	Total        float64 `json:"total"`
	DiscountCode string  `json:"discountCode,omitempty"`
}

type sessionStatusResponse struct {
	Status        string  `json:"status"`
	CustomerEmail string  `json:"customerEmail,omitempty"`
	AmountTotal   float64 `json:"amountTotal"`
	Currency      string  `json:"currency"`
}

func (h *Handler) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := checkout.ValidateRequest(&req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.checkout.Checkout(r.Context(), r.PathValue("subdomain"), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResult(result))
}

func (h *Handler) checkoutStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	hint := checkout.Method(r.URL.Query().Get("payment"))

	sess, err := h.checkout.SessionStatus(r.Context(), r.PathValue("subdomain"), sessionID, hint)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionStatusResponse{
		Status:        string(sess.Status),
		CustomerEmail: sess.CustomerEmail,
		AmountTotal:   sess.AmountTotal.InexactFloat64(),
		Currency:      sess.Currency,
	})
}

func checkoutResult(res *checkout.Result) checkoutResponse {
	return checkoutResponse{
		PaymentMethod: string(res.PaymentMethod),
		SessionID:     res.SessionID,
		RedirectURL:   res.RedirectURL,
		OrderID:       res.OrderID,
		OrderNumber:   res.OrderNumber,
		BankDetails:   bankDetails(res.BankDetails),
		Totals: totalsBody{
			Subtotal:     res.Totals.Subtotal.InexactFloat64(),
			Discount:     res.Totals.Discount.InexactFloat64(),
			Tax:          res.Totals.Tax.InexactFloat64(),
			Shipping:     res.Totals.Shipping.InexactFloat64(),
			Total:        res.Totals.Total.InexactFloat64(),
			DiscountCode: res.Totals.DiscountCode,
		},
	}
}

func bankDetails(m *store.ManualSettings) *bankDetailsBody {
	if m == nil {
		return nil
	}
	return &bankDetailsBody{
		BankName:      m.BankName,
		AccountName:   m.AccountName,
		AccountNumber: m.AccountNumber,
		Instructions:  m.Instructions,
	}
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/alibolt/nuvi-checkout/internal/domain/catalog"
	"github.com/alibolt/nuvi-checkout/internal/domain/checkout"
	"github.com/alibolt/nuvi-checkout/internal/domain/discount"
	"github.com/alibolt/nuvi-checkout/internal/domain/store"
	"github.com/alibolt/nuvi-checkout/internal/payment"
)

// errorResponse is the uniform error envelope. Fields is present only for
// request validation failures.
type errorResponse struct {
	Code    int                   `json:"code"`
	Message string                `json:"message"`
	Fields  []checkout.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondError maps domain errors onto the HTTP error taxonomy. Operator
// misconfiguration and unexpected failures are logged with the underlying
// cause but never leak credentials or provider internals to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request",
			Fields:  verr.Fields,
		})
		return
	}

	var stockErr *catalog.InsufficientStockError
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, checkout.ErrPaymentNotConfigured),
		errors.Is(err, checkout.ErrProductsNotFound),
		errors.Is(err, checkout.ErrMethodDisabled),
		errors.As(err, &stockErr),
		errors.Is(err, discount.ErrInvalidCode),
		errors.Is(err, discount.ErrExpired),
		errors.Is(err, discount.ErrMinimumNotMet),
		errors.Is(err, discount.ErrUsageLimitReached):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, checkout.ErrMethodNotImplemented):
		writeError(w, http.StatusNotImplemented, err.Error())

	case errors.Is(err, checkout.ErrPlatformNotConfigured),
		errors.Is(err, checkout.ErrMerchantNotConfigured):
		zctx.From(r.Context()).Error("payment misconfiguration", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())

	default:
		var apiErr *payment.APIError
		if errors.As(err, &apiErr) {
			zctx.From(r.Context()).Error("payment provider request failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "payment provider request failed")
			return
		}
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

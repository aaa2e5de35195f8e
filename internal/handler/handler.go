// Package handler exposes the storefront HTTP API.
package handler

import (
	"net/http"

	"github.com/alibolt/nuvi-checkout/internal/domain/catalog"
	"github.com/alibolt/nuvi-checkout/internal/domain/checkout"
	"github.com/alibolt/nuvi-checkout/internal/domain/store"
)

// Handler serves the storefront API, delegating business logic to the
// checkout service and the catalog repository.
type Handler struct {
	checkout *checkout.Service
	stores   store.Repository
	catalog  catalog.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(svc *checkout.Service, stores store.Repository, cat catalog.Repository) *Handler {
	return &Handler{
		checkout: svc,
		stores:   stores,
		catalog:  cat,
	}
}

// Register mounts all storefront routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/stores/{subdomain}/checkout", h.createCheckout)
	mux.HandleFunc("GET /api/stores/{subdomain}/checkout", h.checkoutStatus)
	mux.HandleFunc("GET /api/stores/{subdomain}/products", h.listProducts)
	mux.HandleFunc("GET /api/stores/{subdomain}/products/{productId}", h.getProduct)
}

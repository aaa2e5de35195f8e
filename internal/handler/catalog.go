package handler

import (
	"net/http"

	"github.com/alibolt/nuvi-checkout/internal/domain/catalog"
	"github.com/alibolt/nuvi-checkout/internal/domain/store"
)

type productBody struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Images      []string      `json:"images"`
	Variants    []variantBody `json:"variants,omitempty"`
}

type variantBody struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Price   float64 `json:"price"`
	InStock bool    `json:"inStock"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	st, ok := h.resolveStore(w, r)
	if !ok {
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), st.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	body := make([]productBody, len(products))
	for i, p := range products {
		body[i] = productView(p, nil)
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	st, ok := h.resolveStore(w, r)
	if !ok {
		return
	}

	id := r.PathValue("productId")
	p, err := h.catalog.ProductByID(r.Context(), st.ID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	variants, err := h.catalog.VariantsByProduct(r.Context(), st.ID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productView(*p, variants))
}

// resolveStore maps the subdomain path segment to a tenant, writing the 404
// itself when the store does not exist.
func (h *Handler) resolveStore(w http.ResponseWriter, r *http.Request) (*store.Store, bool) {
	st, err := h.stores.BySubdomain(r.Context(), r.PathValue("subdomain"))
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return st, true
}

func productView(p catalog.Product, variants []catalog.Variant) productBody {
	body := productBody{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Images:      p.Images,
	}
	if len(variants) > 0 {
		body.Variants = make([]variantBody, len(variants))
		for i, v := range variants {
			body.Variants[i] = variantBody{
				ID:      v.ID,
				Title:   v.Title,
				Price:   v.Price.InexactFloat64(),
				InStock: !v.TrackStock || v.Stock > 0,
			}
		}
	}
	return body
}

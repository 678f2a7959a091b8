package http

import (
	"net/http"
	"strconv"

	"github.com/esdaly/storefront/internal/api"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	q, ok := h.productQuery(w, r)
	if !ok {
		return
	}

	page, err := h.svc.Products(ctx, q)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, page)
}

func (h *Handler) ViewProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	item, err := h.svc.ViewProduct(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, item)
}

func (h *Handler) productQuery(w http.ResponseWriter, r *http.Request) (api.ProductQuery, bool) {
	values := r.URL.Query()
	q := api.ProductQuery{
		Category: values.Get("category"),
		Search:   values.Get("search"),
		Sort:     values.Get("sort"),
	}

	for name, dst := range map[string]*int{"page": &q.Page, "limit": &q.Limit} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a positive integer")
			return q, false
		}
		*dst = n
	}

	for name, dst := range map[string]**decimal.Decimal{"minPrice": &q.MinPrice, "maxPrice": &q.MaxPrice} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid_price", name+" must be a number")
			return q, false
		}
		*dst = &d
	}
	return q, true
}

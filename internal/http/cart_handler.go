package http

import (
	"net/http"

	"github.com/esdaly/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AddItemRequestDTO struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=99"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

type CartResponse struct {
	Items  []domain.CartLine `json:"items"`
	Count  int               `json:"count"`
	Totals domain.CartTotals `json:"totals"`
}

func (h *Handler) cartResponse() CartResponse {
	cart := h.svc.Cart()
	return CartResponse{Items: cart.Lines(), Count: cart.Count(), Totals: cart.Totals()}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req AddItemRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.svc.AddToCart(ctx, req.ProductID, req.Quantity); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, h.cartResponse())
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.svc.UpdateQuantity(r.Context(), chi.URLParam(r, "product_id"), req.Quantity); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.svc.RemoveFromCart(r.Context(), chi.URLParam(r, "product_id"))
	h.respondJSON(w, http.StatusOK, h.cartResponse())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearCart(r.Context())
	h.respondJSON(w, http.StatusOK, h.cartResponse())
}

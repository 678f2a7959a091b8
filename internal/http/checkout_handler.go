package http

import (
	"net/http"

	"github.com/esdaly/storefront/internal/api"
	"github.com/esdaly/storefront/internal/domain"
	"github.com/esdaly/storefront/internal/service"
)

type CheckoutRequestDTO struct {
	ShippingAddress domain.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod" validate:"required,oneof=cash bank_transfer"`
	TransactionID   string         `json:"transactionId" validate:"required_if=PaymentMethod bank_transfer"`
	AccountNumber   string         `json:"accountNumber"`
	Notes           string         `json:"notes" validate:"max=500"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req CheckoutRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.svc.Checkout(ctx, service.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TransactionID:   req.TransactionID,
		AccountNumber:   req.AccountNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, order)
}

type GoogleLoginDTO struct {
	Credential string `json:"credential" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req api.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req GoogleLoginDTO
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.svc.GoogleLogin(ctx, req.Credential)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok, err := h.svc.CurrentUser(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthenticated", "not signed in")
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

type SubscribeDTO struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req SubscribeDTO
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.Subscribe(ctx, req.Email); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	var req api.ContactRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.Contact(ctx, req); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Package http serves the storefront to a UI shell over JSON.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/esdaly/storefront/internal/api"
	"github.com/esdaly/storefront/internal/metrics"
	"github.com/esdaly/storefront/internal/service"
	"github.com/esdaly/storefront/internal/store"
	"github.com/esdaly/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Handler struct {
	svc      *service.Storefront
	logger   *zap.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
	validate *validator.Validate
}

func NewHandler(svc *service.Storefront, logger *zap.Logger, m *metrics.Metrics, timeout time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &Handler{
		svc:      svc,
		logger:   logger,
		metrics:  m,
		timeout:  timeout,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Routes builds the router with every storefront endpoint mounted.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(h.LoggingMiddleware)
	r.Use(h.MetricsMiddleware)
	if h.timeout > 0 {
		r.Use(middleware.Timeout(h.timeout))
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{product_id}", h.UpdateQuantity)
			r.Delete("/items/{product_id}", h.RemoveItem)
		})
		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", h.GetFavorites)
			r.Post("/{product_id}/toggle", h.ToggleFavorite)
			r.Delete("/{product_id}", h.RemoveFavorite)
		})
		r.Route("/recently-viewed", func(r chi.Router) {
			r.Get("/", h.GetRecentlyViewed)
			r.Delete("/", h.ClearRecentlyViewed)
			r.Delete("/{product_id}", h.RemoveRecentlyViewed)
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{product_id}", h.ViewProduct)
		})
		r.Route("/toasts", func(r chi.Router) {
			r.Get("/", h.GetToasts)
			r.Delete("/{id}", h.DismissToast)
		})
		r.Post("/checkout", h.Checkout)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/google", h.GoogleLogin)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
		r.Post("/newsletter", h.Subscribe)
		r.Post("/contact", h.Contact)
	})

	return r
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_failed",
			Details: err.Error(),
		})
		return false
	}
	return true
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleError maps service errors to HTTP statuses.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		httpStatus int
		code       string
		message    = err.Error()
	)

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		message = apiErr.Message
	}

	var stockErr *store.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		httpStatus, code = http.StatusConflict, "insufficient_stock"
	case errors.Is(err, service.ErrEmptyCart):
		httpStatus, code = http.StatusBadRequest, "empty_cart"
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, api.ErrUnauthorized):
		httpStatus, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, api.ErrNotFound):
		httpStatus, code = http.StatusNotFound, "not_found"
	case errors.Is(err, api.ErrValidation):
		httpStatus, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, api.ErrUnavailable):
		httpStatus, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
	case apiErr != nil:
		httpStatus, code = http.StatusBadGateway, "upstream_error"
	default:
		httpStatus, code = http.StatusInternalServerError, "internal_error"
		message = "internal server error"
	}

	if httpStatus >= http.StatusInternalServerError {
		logger.WithTrace(r.Context(), h.logger).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", getRequestID(r.Context())),
			zap.Error(err))
	}
	h.respondError(w, httpStatus, code, message)
}

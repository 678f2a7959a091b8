package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetToasts(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Toasts().Active())
}

func (h *Handler) DismissToast(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Toasts().Dismiss(chi.URLParam(r, "id")) {
		h.respondError(w, http.StatusNotFound, "not_found", "toast not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

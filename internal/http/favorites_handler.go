package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.Favorites().Entries())
}

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	id := chi.URLParam(r, "product_id")
	added, err := h.svc.ToggleFavorite(ctx, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"product_id": id, "favorite": added})
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	h.svc.RemoveFavorite(ctx, chi.URLParam(r, "product_id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.RecentlyViewed().Entries())
}

func (h *Handler) RemoveRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	h.svc.RecentlyViewed().RemoveEntry(chi.URLParam(r, "product_id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	h.svc.RecentlyViewed().Clear()
	w.WriteHeader(http.StatusNoContent)
}

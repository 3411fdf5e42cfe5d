package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatherly/gatherly/internal/model"
)

// AddFavorite handles POST /api/favorites/{eventID}
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	fav, err := h.favorites.Add(r.Context(), caller, chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

// RemoveFavorite handles DELETE /api/favorites/{eventID}
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := h.favorites.Remove(r.Context(), caller, chi.URLParam(r, "eventID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyFavorites handles GET /api/favorites/mine
func (h *Handler) MyFavorites(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	views, err := h.favorites.ListMine(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if views == nil {
		views = []model.FavoriteView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// FavoriteStatus handles GET /api/favorites/{eventID}/status
func (h *Handler) FavoriteStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	isFav, err := h.favorites.IsFavorite(r.Context(), caller, chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": isFav})
}

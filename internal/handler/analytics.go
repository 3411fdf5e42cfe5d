package handler

import (
	"net/http"
)

// Dashboard handles GET /api/analytics/dashboard
// Admins may pass ?user_id= to view another organizer's dashboard, or omit
// it to cover every event.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dash, err := h.history.Dashboard(r.Context(), caller, r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// PlatformAnalytics handles GET /api/analytics/global (moderators)
func (h *Handler) PlatformAnalytics(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	analytics, err := h.history.PlatformAnalytics(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

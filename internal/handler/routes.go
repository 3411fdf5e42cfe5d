package handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes builds the authenticated API route tree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(Identity)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Get("/pending", h.PendingEvents)
		r.Get("/mine", h.MyEvents)
		r.Get("/{id}", h.GetEvent)
		r.Patch("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
		r.Post("/{id}/submit", h.SubmitEvent)
		r.Post("/{id}/approve", h.ApproveEvent)
		r.Post("/{id}/reject", h.RejectEvent)
		r.Post("/{id}/register", h.Register)
		r.Post("/{id}/sweep", h.SweepNoShows)
		r.Get("/{id}/participants", h.ListParticipants)
		r.Get("/{id}/history", h.ListHistory)
		r.Get("/{id}/live", h.LivePresence)
		r.Get("/{id}/analytics", h.EventAnalytics)
		r.Get("/{id}/audit", h.EventAuditTrail)
	})

	r.Route("/registrations", func(r chi.Router) {
		r.Get("/mine", h.MyRegistrations)
		r.Post("/scan", h.Scan)
		r.Post("/{id}/cancel", h.CancelRegistration)
		r.Post("/{id}/check-in", h.CheckIn)
		r.Post("/{id}/check-out", h.CheckOut)
		r.Get("/{id}/ticket", h.Ticket)
		r.Get("/{id}/qr", h.TicketQR)
	})

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/mine", h.MyFavorites)
		r.Post("/{eventID}", h.AddFavorite)
		r.Delete("/{eventID}", h.RemoveFavorite)
		r.Get("/{eventID}/status", h.FavoriteStatus)
	})

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/global", h.PlatformAnalytics)
		r.Get("/dashboard", h.Dashboard)
	})

	return r
}

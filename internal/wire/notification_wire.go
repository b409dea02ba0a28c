package wire

import (
	"net/http"

	"carpool-api/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireNotification(r chi.Router, h *adaptor.NotificationHandler, auth func(http.Handler) http.Handler) {
	r.With(auth).Route("/api/notifications", func(r chi.Router) {
		r.Get("/", h.ListNotifications)
		r.Post("/", h.CreateNotification)
		r.Patch("/{id}/read", h.MarkRead)
		r.Delete("/{id}", h.DeleteNotification)
	})
}

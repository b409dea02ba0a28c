package wire

import (
	"net/http"

	"carpool-api/internal/adaptor"
	"carpool-api/internal/data/entity"
	"carpool-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(r chi.Router, resHandler *adaptor.ReservationHandler, auth func(http.Handler) http.Handler, log *zap.Logger) {
	r.With(auth).Route("/api/reservations", func(r chi.Router) {
		r.Get("/", resHandler.ListReservations)
		r.With(middleware.RequireRole(log, entity.RolePassenger)).Post("/", resHandler.CreateReservation)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", resHandler.GetReservation)
			r.Patch("/approve", resHandler.Approve)
			r.Patch("/reject", resHandler.Reject)
			r.Post("/cancel", resHandler.Cancel)
		})
	})
}

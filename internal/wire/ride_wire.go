package wire

import (
	"net/http"

	"carpool-api/internal/adaptor"
	"carpool-api/internal/data/entity"
	"carpool-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireRide mounts ride routes. Ownership checks happen in the lifecycle
// layer; only ride creation is gated by role here.
func wireRide(r chi.Router, rideHandler *adaptor.RideHandler, auth func(http.Handler) http.Handler, log *zap.Logger) {
	r.With(auth).Route("/api/rides", func(r chi.Router) {
		r.Get("/", rideHandler.ListRides)
		r.With(middleware.RequireRole(log, entity.RoleDriver)).Post("/", rideHandler.CreateRide)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", rideHandler.GetRide)
			r.Put("/", rideHandler.UpdateRide)
			r.Delete("/", rideHandler.CancelRide)
			r.Post("/cancel", rideHandler.CancelRide)
			r.Patch("/complete", rideHandler.CompleteRide)
			r.Get("/participants", rideHandler.Participants)
		})
	})
}

package wire

import (
	"net/http"

	"carpool-api/internal/adaptor"
	"carpool-api/internal/data/entity"
	"carpool-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(r chi.Router, adminHandler *adaptor.AdminHandler, auth func(http.Handler) http.Handler, log *zap.Logger) {
	r.With(
		auth,
		middleware.RequireRole(log, entity.RoleAdmin),
	).Route("/api/admin", func(r chi.Router) {
		r.Get("/stats", adminHandler.Stats)
	})
}

package wire

import (
	"net/http"

	"carpool-api/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, auth func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		// ==================== PROTECTED ROUTES ====================
		r.With(auth).Post("/logout", authHandler.Logout)
		r.With(auth).Get("/me", authHandler.Me)
		r.With(auth).Post("/change-password", authHandler.ChangePassword)
	})
}

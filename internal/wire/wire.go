// internal/wire/wire.go
package wire

import (
	"net/http"

	"carpool-api/internal/adaptor"
	"carpool-api/internal/data/repository"
	"carpool-api/internal/lifecycle"
	"carpool-api/internal/usecase"
	"carpool-api/pkg/middleware"
	"carpool-api/pkg/token"
	"carpool-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the assembled router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services and handlers and mounts every route.
func Wiring(
	repo *repository.Repository,
	manager *lifecycle.Manager,
	tokens *token.Manager,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, manager, tokens, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, tokens, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	tokens *token.Manager,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))
	r.Use(middleware.Metrics)

	auth := middleware.Auth(tokens, repo.Session, logger)

	wireAuth(r, handler.Auth, auth)
	wireUser(r, handler.User, auth)
	wireRide(r, handler.Ride, auth, logger)
	wireReservation(r, handler.Reservation, auth, logger)
	wireNotification(r, handler.Notification, auth)
	wireAdmin(r, handler.Admin, auth, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", map[string]string{"app": config.App.Name})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

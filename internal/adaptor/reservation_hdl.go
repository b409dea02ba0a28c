package adaptor

import (
	"net/http"
	"strings"

	"carpool-api/internal/dto/request"
	"carpool-api/internal/usecase"
	"carpool-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

// ListReservations handles GET /api/reservations?ride_id=&status=&page=&per_page=
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	req := &request.ReservationListRequest{
		RideID: strings.TrimSpace(r.URL.Query().Get("ride_id")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	var err error
	if req.Page, err = queryInt(r, "page", 1); err != nil {
		writeError(w, h.log, err, "list reservations")
		return
	}
	if req.PerPage, err = queryInt(r, "per_page", utils.DefaultPerPage); err != nil {
		writeError(w, h.log, err, "list reservations")
		return
	}

	list, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		writeError(w, h.log, err, "list reservations")
		return
	}

	utils.ResponseSuccess(w, "Reservations retrieved successfully", list)
}

// CreateReservation handles POST /api/reservations
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req request.CreateReservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		writeError(w, h.log, err, "create reservation")
		return
	}

	utils.ResponseCreated(w, "Reservation requested successfully", res)
}

// GetReservation handles GET /api/reservations/{id}
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	res, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "get reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation retrieved successfully", res)
}

// Approve handles PATCH /api/reservations/{id}/approve
func (h *ReservationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	res, err := h.service.Approve(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "approve reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation approved", res)
}

// Reject handles PATCH /api/reservations/{id}/reject
func (h *ReservationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	res, err := h.service.Reject(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "reject reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation rejected", res)
}

// Cancel handles POST /api/reservations/{id}/cancel
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	res, err := h.service.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "cancel reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation cancelled", res)
}

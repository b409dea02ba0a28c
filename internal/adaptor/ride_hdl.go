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

type RideHandler struct {
	service usecase.RideService
	log     *zap.Logger
}

func NewRideHandler(service usecase.RideService, log *zap.Logger) *RideHandler {
	return &RideHandler{
		service: service,
		log:     log.With(zap.String("handler", "ride")),
	}
}

// ListRides handles GET /api/rides?origin=&destination=&driver_id=&date_from=&date_to=&status=&sort_by=&page=&per_page=
func (h *RideHandler) ListRides(w http.ResponseWriter, r *http.Request) {
	req, err := parseRideSearch(r)
	if err != nil {
		writeError(w, h.log, err, "list rides")
		return
	}

	rides, err := h.service.List(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err, "list rides")
		return
	}

	utils.ResponseSuccess(w, "Rides retrieved successfully", rides)
}

func parseRideSearch(r *http.Request) (*request.RideSearchRequest, error) {
	q := r.URL.Query()
	req := &request.RideSearchRequest{
		Origin:      strings.TrimSpace(q.Get("origin")),
		Destination: strings.TrimSpace(q.Get("destination")),
		DriverID:    strings.TrimSpace(q.Get("driver_id")),
		Status:      strings.TrimSpace(q.Get("status")),
		SortBy:      strings.TrimSpace(q.Get("sort_by")),
	}

	var err error
	if req.Page, err = queryInt(r, "page", 1); err != nil {
		return nil, err
	}
	if req.PerPage, err = queryInt(r, "per_page", utils.DefaultPerPage); err != nil {
		return nil, err
	}
	if req.DateFrom, err = queryTime(r, "date_from"); err != nil {
		return nil, err
	}
	if req.DateTo, err = queryTime(r, "date_to"); err != nil {
		return nil, err
	}
	return req, nil
}

// CreateRide handles POST /api/rides
func (h *RideHandler) CreateRide(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req request.CreateRideRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ride, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		writeError(w, h.log, err, "create ride")
		return
	}

	utils.ResponseCreated(w, "Ride created successfully", ride)
}

// GetRide handles GET /api/rides/{id}
func (h *RideHandler) GetRide(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	ride, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "get ride")
		return
	}

	utils.ResponseSuccess(w, "Ride retrieved successfully", ride)
}

// UpdateRide handles PUT /api/rides/{id}
func (h *RideHandler) UpdateRide(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req request.UpdateRideRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ride, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, h.log, err, "update ride")
		return
	}

	utils.ResponseSuccess(w, "Ride updated successfully", ride)
}

// CancelRide handles POST /api/rides/{id}/cancel and DELETE /api/rides/{id}
func (h *RideHandler) CancelRide(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	ride, err := h.service.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "cancel ride")
		return
	}

	utils.ResponseSuccess(w, "Ride cancelled successfully", ride)
}

// CompleteRide handles PATCH /api/rides/{id}/complete
func (h *RideHandler) CompleteRide(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	ride, err := h.service.Complete(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "complete ride")
		return
	}

	utils.ResponseSuccess(w, "Ride completed successfully", ride)
}

// Participants handles GET /api/rides/{id}/participants
func (h *RideHandler) Participants(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	list, err := h.service.Participants(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "list participants")
		return
	}

	utils.ResponseSuccess(w, "Participants retrieved successfully", list)
}

package response

import (
	"time"

	"carpool-api/internal/data/entity"
)

type ReservationResponse struct {
	ID             string                   `json:"id"`
	RideID         string                   `json:"ride_id"`
	PassengerID    string                   `json:"passenger_id"`
	SeatsRequested int                      `json:"seats_requested"`
	Status         entity.ReservationStatus `json:"status"`
	DecidedAt      *time.Time               `json:"decided_at,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

func ReservationToResponse(res *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:             res.ID.String(),
		RideID:         res.RideID.String(),
		PassengerID:    res.PassengerID.String(),
		SeatsRequested: res.SeatsRequested,
		Status:         res.Status,
		DecidedAt:      res.DecidedAt,
		CreatedAt:      res.CreatedAt,
		UpdatedAt:      res.UpdatedAt,
	}
}

func ReservationsToResponse(list []*entity.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, len(list))
	for i, r := range list {
		out[i] = ReservationToResponse(r)
	}
	return out
}

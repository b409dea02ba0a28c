package response

import (
	"time"

	"carpool-api/internal/data/entity"
)

type RideResponse struct {
	ID             string            `json:"id"`
	DriverID       string            `json:"driver_id"`
	Origin         string            `json:"origin"`
	Destination    string            `json:"destination"`
	DepartureTime  time.Time         `json:"departure_time"`
	TotalSeats     int               `json:"total_seats"`
	AvailableSeats int               `json:"available_seats"`
	HeldSeats      int               `json:"held_seats"`
	Status         entity.RideStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type ParticipantResponse struct {
	ReservationID  string                   `json:"reservation_id"`
	PassengerID    string                   `json:"passenger_id"`
	Name           string                   `json:"name"`
	Email          string                   `json:"email"`
	SeatsRequested int                      `json:"seats_requested"`
	Status         entity.ReservationStatus `json:"status"`
}

func RideToResponse(ride *entity.Ride) RideResponse {
	return RideResponse{
		ID:             ride.ID.String(),
		DriverID:       ride.DriverID.String(),
		Origin:         ride.Origin,
		Destination:    ride.Destination,
		DepartureTime:  ride.DepartureTime,
		TotalSeats:     ride.TotalSeats,
		AvailableSeats: ride.AvailableSeats,
		HeldSeats:      ride.HeldSeats,
		Status:         ride.Status,
		CreatedAt:      ride.CreatedAt,
		UpdatedAt:      ride.UpdatedAt,
	}
}

func RidesToResponse(rides []*entity.Ride) []RideResponse {
	out := make([]RideResponse, len(rides))
	for i, r := range rides {
		out[i] = RideToResponse(r)
	}
	return out
}

func ParticipantsToResponse(list []*entity.Participant) []ParticipantResponse {
	out := make([]ParticipantResponse, len(list))
	for i, p := range list {
		out[i] = ParticipantResponse{
			ReservationID:  p.ReservationID.String(),
			PassengerID:    p.PassengerID.String(),
			Name:           p.Name,
			Email:          p.Email,
			SeatsRequested: p.SeatsRequested,
			Status:         p.Status,
		}
	}
	return out
}

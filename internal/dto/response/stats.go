package response

import (
	"math"

	"carpool-api/internal/data/entity"
)

type StatsResponse struct {
	TotalUsers            int64   `json:"total_users"`
	TotalRides            int64   `json:"total_rides"`
	ActiveRides           int64   `json:"active_rides"`
	CompletedRides        int64   `json:"completed_rides"`
	TotalReservations     int64   `json:"total_reservations"`
	CancelledReservations int64   `json:"cancelled_reservations"`
	AverageOccupancy      float64 `json:"average_occupancy"`
}

// StatsToResponse computes occupancy as committed over offered seats, in
// percent rounded to two decimals.
func StatsToResponse(s *entity.Stats) StatsResponse {
	occupancy := 0.0
	if s.TotalSeats > 0 {
		occupancy = math.Round(float64(s.CommittedSeats)/float64(s.TotalSeats)*10000) / 100
	}
	return StatsResponse{
		TotalUsers:            s.TotalUsers,
		TotalRides:            s.TotalRides,
		ActiveRides:           s.ActiveRides,
		CompletedRides:        s.CompletedRides,
		TotalReservations:     s.TotalReservations,
		CancelledReservations: s.CancelledReservations,
		AverageOccupancy:      occupancy,
	}
}

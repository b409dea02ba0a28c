package entity

// Stats aggregates platform counters for the admin dashboard.
type Stats struct {
	TotalUsers            int64
	TotalRides            int64
	ActiveRides           int64
	CompletedRides        int64
	TotalReservations     int64
	CancelledReservations int64
	TotalSeats            int64
	CommittedSeats        int64
}

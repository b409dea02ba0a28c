package lifecycle

import (
	"strings"
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"

	"github.com/google/uuid"
)

type RideDetails struct {
	Origin        string
	Destination   string
	DepartureTime time.Time
	TotalSeats    int
}

// RidePatch holds the fields a driver may change. Nil means unchanged.
type RidePatch struct {
	Origin        *string
	Destination   *string
	DepartureTime *time.Time
	TotalSeats    *int
}

func validateDetails(d RideDetails, now time.Time) error {
	if strings.TrimSpace(d.Origin) == "" || strings.TrimSpace(d.Destination) == "" {
		return apperror.Validation("origin and destination are required")
	}
	if d.TotalSeats < 1 {
		return apperror.Validation("total_seats must be at least 1")
	}
	if !d.DepartureTime.After(now) {
		return apperror.Validation("departure_time must be in the future")
	}
	return nil
}

// NewRide builds an open ride with every seat available.
func NewRide(driverID uuid.UUID, d RideDetails, now time.Time) (*entity.Ride, error) {
	if err := validateDetails(d, now); err != nil {
		return nil, err
	}
	return &entity.Ride{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DriverID:       driverID,
		Origin:         strings.TrimSpace(d.Origin),
		Destination:    strings.TrimSpace(d.Destination),
		DepartureTime:  d.DepartureTime,
		TotalSeats:     d.TotalSeats,
		AvailableSeats: d.TotalSeats,
		Status:         entity.RideStatusOpen,
	}, nil
}

// ApplyPatch updates ride in place. Seats already committed or held keep
// their place; only the free remainder grows or shrinks.
func ApplyPatch(ride *entity.Ride, p RidePatch, now time.Time) error {
	d := RideDetails{
		Origin:        ride.Origin,
		Destination:   ride.Destination,
		DepartureTime: ride.DepartureTime,
		TotalSeats:    ride.TotalSeats,
	}
	if p.Origin != nil {
		d.Origin = *p.Origin
	}
	if p.Destination != nil {
		d.Destination = *p.Destination
	}
	if p.DepartureTime != nil {
		d.DepartureTime = *p.DepartureTime
	}
	if p.TotalSeats != nil {
		d.TotalSeats = *p.TotalSeats
	}
	if strings.TrimSpace(d.Origin) == "" || strings.TrimSpace(d.Destination) == "" {
		return apperror.Validation("origin and destination are required")
	}
	if d.TotalSeats < 1 {
		return apperror.Validation("total_seats must be at least 1")
	}
	if p.DepartureTime != nil && !p.DepartureTime.After(now) {
		return apperror.Validation("departure_time must be in the future")
	}

	taken := ride.CommittedSeats() + ride.HeldSeats
	if d.TotalSeats < taken {
		return apperror.Validation("total_seats cannot drop below %d seats already taken", taken)
	}

	ride.AvailableSeats += d.TotalSeats - ride.TotalSeats
	ride.TotalSeats = d.TotalSeats
	ride.Origin = strings.TrimSpace(d.Origin)
	ride.Destination = strings.TrimSpace(d.Destination)
	ride.DepartureTime = d.DepartureTime
	refreshStatus(ride)
	return CheckRide(ride)
}

// DecrementSeats commits n seats. The check runs against the unheld remainder
// so a commit never eats into another passenger's hold.
func DecrementSeats(ride *entity.Ride, n int) error {
	if n < 1 {
		return apperror.Validation("seat count must be at least 1")
	}
	if n > ride.FreeSeats() {
		return apperror.Capacity("only %d seats available", ride.FreeSeats())
	}
	ride.AvailableSeats -= n
	refreshStatus(ride)
	return nil
}

// IncrementSeats returns n committed seats to the ride.
func IncrementSeats(ride *entity.Ride, n int) error {
	if n < 1 {
		return apperror.Validation("seat count must be at least 1")
	}
	if ride.AvailableSeats+n > ride.TotalSeats {
		return apperror.Invariant("restoring %d seats would exceed total of %d", n, ride.TotalSeats)
	}
	ride.AvailableSeats += n
	refreshStatus(ride)
	return nil
}

// HoldSeats reserves n seats for a pending request.
func HoldSeats(ride *entity.Ride, n int) error {
	if n < 1 {
		return apperror.Validation("seats must be at least 1")
	}
	if n > ride.FreeSeats() {
		return apperror.Capacity("requested %d seats but only %d available", n, ride.FreeSeats())
	}
	ride.HeldSeats += n
	return nil
}

func ReleaseSeats(ride *entity.Ride, n int) error {
	if n < 1 || n > ride.HeldSeats {
		return apperror.Invariant("cannot release %d of %d held seats", n, ride.HeldSeats)
	}
	ride.HeldSeats -= n
	return nil
}

// refreshStatus flips open and full; terminal statuses are left alone.
func refreshStatus(ride *entity.Ride) {
	if ride.Status.Terminal() {
		return
	}
	if ride.AvailableSeats == 0 {
		ride.Status = entity.RideStatusFull
	} else {
		ride.Status = entity.RideStatusOpen
	}
}

// CheckRide verifies the seat counters.
func CheckRide(ride *entity.Ride) error {
	switch {
	case ride.AvailableSeats < 0 || ride.AvailableSeats > ride.TotalSeats:
		return apperror.Invariant("ride %s: available_seats %d outside [0, %d]", ride.ID, ride.AvailableSeats, ride.TotalSeats)
	case ride.HeldSeats < 0 || ride.HeldSeats > ride.AvailableSeats:
		return apperror.Invariant("ride %s: held_seats %d outside [0, %d]", ride.ID, ride.HeldSeats, ride.AvailableSeats)
	}
	return nil
}

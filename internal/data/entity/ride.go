package entity

import (
	"time"

	"github.com/google/uuid"
)

type RideStatus string

const (
	RideStatusOpen      RideStatus = "open"
	RideStatusFull      RideStatus = "full"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

type Ride struct {
	Base
	DriverID       uuid.UUID  `db:"driver_id"`
	Origin         string     `db:"origin"`
	Destination    string     `db:"destination"`
	DepartureTime  time.Time  `db:"departure_time"`
	TotalSeats     int        `db:"total_seats"`
	AvailableSeats int        `db:"available_seats"`
	HeldSeats      int        `db:"held_seats"`
	Status         RideStatus `db:"status"`
}

// FreeSeats is the capacity a new request may still claim.
func (r *Ride) FreeSeats() int {
	return r.AvailableSeats - r.HeldSeats
}

// CommittedSeats counts seats taken by confirmed reservations.
func (r *Ride) CommittedSeats() int {
	return r.TotalSeats - r.AvailableSeats
}

// Clone returns a shallow copy safe to mutate.
func (r *Ride) Clone() *Ride {
	c := *r
	return &c
}

// RideFilter narrows ride searches.
type RideFilter struct {
	Origin      string
	Destination string
	DriverID    *uuid.UUID
	DateFrom    *time.Time
	DateTo      *time.Time
	Status      *RideStatus
	SortDesc    bool
}

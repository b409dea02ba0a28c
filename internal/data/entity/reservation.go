package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusRejected  ReservationStatus = "rejected"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// Terminal reports whether the status has no outgoing edges.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationStatusRejected, ReservationStatusCancelled, ReservationStatusCompleted:
		return true
	}
	return false
}

type Reservation struct {
	Base
	RideID         uuid.UUID         `db:"ride_id"`
	PassengerID    uuid.UUID         `db:"passenger_id"`
	SeatsRequested int               `db:"seats_requested"`
	Status         ReservationStatus `db:"status"`
	DecidedAt      *time.Time        `db:"decided_at"`
}

// Clone returns a copy safe to mutate.
func (r *Reservation) Clone() *Reservation {
	c := *r
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		c.DecidedAt = &t
	}
	return &c
}

// Participant is a non-cancelled reservation joined with its passenger.
type Participant struct {
	ReservationID  uuid.UUID         `db:"reservation_id"`
	PassengerID    uuid.UUID         `db:"passenger_id"`
	Name           string            `db:"name"`
	Email          string            `db:"email"`
	SeatsRequested int               `db:"seats_requested"`
	Status         ReservationStatus `db:"status"`
}

// ReservationFilter narrows reservation listings. UserID matches either the
// passenger or the driver of the reserved ride.
type ReservationFilter struct {
	UserID *uuid.UUID
	RideID *uuid.UUID
	Status *ReservationStatus
}

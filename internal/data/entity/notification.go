package entity

import (
	"github.com/google/uuid"
)

type Notification struct {
	BaseSimple
	UserID        uuid.UUID  `db:"user_id"`
	RideID        *uuid.UUID `db:"ride_id"`
	ReservationID *uuid.UUID `db:"reservation_id"`
	EventType     string     `db:"event_type"`
	Message       string     `db:"message"`
	IsRead        bool       `db:"is_read"`
}

package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carpool-api/internal/data/entity"

	"github.com/google/uuid"
)

type EventType string

const (
	EventReservationCreated   EventType = "ReservationCreated"
	EventReservationApproved  EventType = "ReservationApproved"
	EventReservationRejected  EventType = "ReservationRejected"
	EventReservationCancelled EventType = "ReservationCancelled"
	EventRideCompleted        EventType = "RideCompleted"
	EventRideCancelled        EventType = "RideCancelled"
)

var eventTypes = []EventType{
	EventReservationCreated,
	EventReservationApproved,
	EventReservationRejected,
	EventReservationCancelled,
	EventRideCompleted,
	EventRideCancelled,
}

// IsLifecycleEvent reports whether name is one of the event types emitted by
// the Manager, ignoring case.
func IsLifecycleEvent(name string) bool {
	for _, t := range eventTypes {
		if strings.EqualFold(strings.TrimSpace(name), string(t)) {
			return true
		}
	}
	return false
}

// Event describes one committed transition. ReservationID is uuid.Nil for
// ride-level events. Recipients are the users who should be told about it.
type Event struct {
	Type          EventType   `json:"type"`
	RideID        uuid.UUID   `json:"ride_id"`
	ReservationID uuid.UUID   `json:"reservation_id"`
	ActorID       uuid.UUID   `json:"actor_id"`
	DriverID      uuid.UUID   `json:"driver_id"`
	PassengerID   uuid.UUID   `json:"passenger_id,omitempty"`
	Seats         int         `json:"seats,omitempty"`
	Recipients    []uuid.UUID `json:"recipients"`
	Route         string      `json:"route"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// Dispatcher receives events after their transaction committed. It must not
// block the caller on delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []Event)
}

type DispatcherFunc func(ctx context.Context, events []Event)

func (f DispatcherFunc) Dispatch(ctx context.Context, events []Event) { f(ctx, events) }

// NopDispatcher discards events.
var NopDispatcher = DispatcherFunc(func(context.Context, []Event) {})

func routeOf(ride *entity.Ride) string {
	return fmt.Sprintf("%s -> %s", ride.Origin, ride.Destination)
}

func reservationEvent(t EventType, actor Actor, ride *entity.Ride, res *entity.Reservation, at time.Time) Event {
	ev := Event{
		Type:          t,
		RideID:        ride.ID,
		ReservationID: res.ID,
		ActorID:       actor.ID,
		DriverID:      ride.DriverID,
		PassengerID:   res.PassengerID,
		Seats:         res.SeatsRequested,
		Route:         routeOf(ride),
		OccurredAt:    at,
	}

	switch t {
	case EventReservationCreated:
		ev.Recipients = []uuid.UUID{ride.DriverID}
	case EventReservationCancelled:
		// whoever did not cancel
		if actor.ID == res.PassengerID {
			ev.Recipients = []uuid.UUID{ride.DriverID}
		} else {
			ev.Recipients = []uuid.UUID{res.PassengerID}
		}
	default:
		ev.Recipients = []uuid.UUID{res.PassengerID}
	}
	return ev
}

func rideEvent(t EventType, actor Actor, ride *entity.Ride, recipients []uuid.UUID, at time.Time) Event {
	return Event{
		Type:       t,
		RideID:     ride.ID,
		ActorID:    actor.ID,
		DriverID:   ride.DriverID,
		Recipients: recipients,
		Route:      routeOf(ride),
		OccurredAt: at,
	}
}

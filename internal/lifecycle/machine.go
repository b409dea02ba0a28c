package lifecycle

import (
	"context"
	"strings"
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"
	"carpool-api/internal/data/repository"
	"carpool-api/pkg/lock"
	"carpool-api/pkg/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// edges lists every legal reservation transition.
var edges = map[entity.ReservationStatus][]entity.ReservationStatus{
	entity.ReservationStatusPending: {
		entity.ReservationStatusConfirmed,
		entity.ReservationStatusRejected,
		entity.ReservationStatusCancelled,
	},
	entity.ReservationStatusConfirmed: {
		entity.ReservationStatusCancelled,
		entity.ReservationStatusCompleted,
	},
}

func CanTransition(from, to entity.ReservationStatus) bool {
	for _, s := range edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

func checkTransition(res *entity.Reservation, to entity.ReservationStatus) error {
	if !CanTransition(res.Status, to) {
		return apperror.InvalidTransition("reservation is %s and cannot become %s", res.Status, to)
	}
	return nil
}

// Manager runs every ride and reservation transition. Each one holds the
// ride's lock and a storage transaction, and hands its events to the
// dispatcher only after commit.
type Manager struct {
	tx         repository.TxRunner
	locker     lock.Locker
	dispatcher Dispatcher
	log        *zap.Logger
	now        func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(tx repository.TxRunner, locker lock.Locker, dispatcher Dispatcher, log *zap.Logger, opts ...Option) *Manager {
	if dispatcher == nil {
		dispatcher = NopDispatcher
	}
	m := &Manager{
		tx:         tx,
		locker:     locker,
		dispatcher: dispatcher,
		log:        log.With(zap.String("component", "lifecycle")),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// run serializes fn on rideID. A zero rideID skips the lock.
func (m *Manager) run(ctx context.Context, op string, rideID uuid.UUID, fn func(tx repository.RideTx) ([]Event, error)) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifecycle."+op, attribute.String("ride_id", rideID.String()))
	defer func() {
		result := "ok"
		if err != nil {
			result = apperror.KindOf(err).String()
		}
		transitionsTotal.WithLabelValues(op, result).Inc()
		telemetry.EndSpan(span, err)
	}()

	if rideID != uuid.Nil {
		unlock, lerr := m.locker.Lock(ctx, rideID.String())
		if lerr != nil {
			return &apperror.Error{Kind: apperror.KindConflict, Message: "ride is busy, try again", Err: lerr}
		}
		defer unlock()
	}

	var events []Event
	err = m.tx.WithinTx(ctx, func(tx repository.RideTx) error {
		var ferr error
		events, ferr = fn(tx)
		return ferr
	})
	if err != nil {
		return err
	}

	if len(events) > 0 {
		m.dispatcher.Dispatch(ctx, events)
	}
	return nil
}

func lockRide(ctx context.Context, tx repository.RideTx, id uuid.UUID) (*entity.Ride, error) {
	ride, err := tx.LockRide(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperror.NotFound("ride %s not found", id)
	}
	return ride, nil
}

func getReservation(ctx context.Context, tx repository.RideTx, id uuid.UUID) (*entity.Reservation, error) {
	res, err := tx.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperror.NotFound("reservation %s not found", id)
	}
	return res, nil
}

func saveRide(ctx context.Context, tx repository.RideTx, ride *entity.Ride, now time.Time) error {
	if err := CheckRide(ride); err != nil {
		return err
	}
	ride.UpdatedAt = now
	return tx.UpdateRide(ctx, ride)
}

func decide(res *entity.Reservation, to entity.ReservationStatus, now time.Time) {
	res.Status = to
	res.UpdatedAt = now
	if res.DecidedAt == nil {
		t := now
		res.DecidedAt = &t
	}
}

// rideOf resolves the ride a reservation belongs to. The mapping never
// changes, so it is safe to read before taking the ride lock.
func (m *Manager) rideOf(ctx context.Context, resID uuid.UUID) (uuid.UUID, error) {
	var rideID uuid.UUID
	err := m.tx.WithinTx(ctx, func(tx repository.RideTx) error {
		res, err := getReservation(ctx, tx, resID)
		if err != nil {
			return err
		}
		rideID = res.RideID
		return nil
	})
	return rideID, err
}

// ==== RIDES ====

func (m *Manager) CreateRide(ctx context.Context, actor Actor, d RideDetails) (*entity.Ride, error) {
	if err := Authorize(actor, ActionCreateRide, Resource{}); err != nil {
		return nil, err
	}
	ride, err := NewRide(actor.ID, d, m.now())
	if err != nil {
		return nil, err
	}

	err = m.run(ctx, "create_ride", uuid.Nil, func(tx repository.RideTx) ([]Event, error) {
		return nil, tx.InsertRide(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("RIDE_CREATED",
		zap.String("ride_id", ride.ID.String()),
		zap.String("driver_id", actor.ID.String()),
		zap.Int("seats", ride.TotalSeats),
	)
	return ride, nil
}

func (m *Manager) UpdateRide(ctx context.Context, actor Actor, rideID uuid.UUID, patch RidePatch) (*entity.Ride, error) {
	var ride *entity.Ride
	err := m.run(ctx, "update_ride", rideID, func(tx repository.RideTx) ([]Event, error) {
		r, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return nil, err
		}
		if err := Authorize(actor, ActionUpdateRide, Resource{DriverID: r.DriverID}); err != nil {
			return nil, err
		}
		if r.Status.Terminal() {
			return nil, apperror.InvalidTransition("ride is %s and can no longer be edited", r.Status)
		}

		now := m.now()
		if err := ApplyPatch(r, patch, now); err != nil {
			return nil, err
		}
		if err := saveRide(ctx, tx, r, now); err != nil {
			return nil, err
		}
		ride = r
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("RIDE_UPDATED", zap.String("ride_id", rideID.String()))
	return ride, nil
}

// CancelRide cancels the ride and every live reservation on it.
func (m *Manager) CancelRide(ctx context.Context, actor Actor, rideID uuid.UUID) (*entity.Ride, error) {
	var ride *entity.Ride
	err := m.run(ctx, "cancel_ride", rideID, func(tx repository.RideTx) ([]Event, error) {
		r, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return nil, err
		}
		if err := Authorize(actor, ActionCancelRide, Resource{DriverID: r.DriverID}); err != nil {
			return nil, err
		}
		if r.Status.Terminal() {
			return nil, apperror.InvalidTransition("ride is already %s", r.Status)
		}

		list, err := tx.ReservationsByRide(ctx, rideID)
		if err != nil {
			return nil, err
		}

		now := m.now()
		var (
			cascaded   []Event
			recipients []uuid.UUID
		)
		for _, res := range list {
			switch res.Status {
			case entity.ReservationStatusPending:
				err = ReleaseSeats(r, res.SeatsRequested)
			case entity.ReservationStatusConfirmed:
				err = IncrementSeats(r, res.SeatsRequested)
			default:
				continue
			}
			if err != nil {
				return nil, err
			}

			decide(res, entity.ReservationStatusCancelled, now)
			if err := tx.UpdateReservation(ctx, res); err != nil {
				return nil, err
			}

			ev := reservationEvent(EventReservationCancelled, actor, r, res, now)
			// the RideCancelled notice already reaches this passenger
			ev.Recipients = nil
			cascaded = append(cascaded, ev)
			recipients = append(recipients, res.PassengerID)
		}

		r.Status = entity.RideStatusCancelled
		if err := saveRide(ctx, tx, r, now); err != nil {
			return nil, err
		}
		ride = r

		events := append([]Event{rideEvent(EventRideCancelled, actor, r, recipients, now)}, cascaded...)
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("RIDE_CANCELLED", zap.String("ride_id", rideID.String()), zap.String("actor_id", actor.ID.String()))
	return ride, nil
}

// CompleteRide closes a departed ride. Confirmed reservations complete and
// pending ones are rejected.
func (m *Manager) CompleteRide(ctx context.Context, actor Actor, rideID uuid.UUID) (*entity.Ride, error) {
	var ride *entity.Ride
	err := m.run(ctx, "complete_ride", rideID, func(tx repository.RideTx) ([]Event, error) {
		r, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return nil, err
		}
		if err := Authorize(actor, ActionCompleteRide, Resource{DriverID: r.DriverID}); err != nil {
			return nil, err
		}
		if r.Status.Terminal() {
			return nil, apperror.InvalidTransition("ride is already %s", r.Status)
		}

		now := m.now()
		if r.DepartureTime.After(now) {
			return nil, apperror.InvalidTransition("ride has not departed yet")
		}

		list, err := tx.ReservationsByRide(ctx, rideID)
		if err != nil {
			return nil, err
		}

		var (
			events     []Event
			recipients []uuid.UUID
		)
		for _, res := range list {
			switch res.Status {
			case entity.ReservationStatusConfirmed:
				decide(res, entity.ReservationStatusCompleted, now)
				recipients = append(recipients, res.PassengerID)
			case entity.ReservationStatusPending:
				if err := ReleaseSeats(r, res.SeatsRequested); err != nil {
					return nil, err
				}
				decide(res, entity.ReservationStatusRejected, now)
				events = append(events, reservationEvent(EventReservationRejected, actor, r, res, now))
			default:
				continue
			}
			if err := tx.UpdateReservation(ctx, res); err != nil {
				return nil, err
			}
		}

		r.Status = entity.RideStatusCompleted
		if err := saveRide(ctx, tx, r, now); err != nil {
			return nil, err
		}
		ride = r

		return append([]Event{rideEvent(EventRideCompleted, actor, r, recipients, now)}, events...), nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("RIDE_COMPLETED", zap.String("ride_id", rideID.String()))
	return ride, nil
}

// ==== RESERVATIONS ====

// RequestSeats creates a pending reservation and holds its seats.
func (m *Manager) RequestSeats(ctx context.Context, actor Actor, rideID uuid.UUID, seats int) (*entity.Reservation, error) {
	if seats < 1 {
		return nil, apperror.Validation("seats_requested must be at least 1")
	}

	var res *entity.Reservation
	err := m.run(ctx, "request", rideID, func(tx repository.RideTx) ([]Event, error) {
		ride, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return nil, err
		}
		if err := Authorize(actor, ActionRequestReservation, Resource{DriverID: ride.DriverID}); err != nil {
			return nil, err
		}

		switch ride.Status {
		case entity.RideStatusOpen:
		case entity.RideStatusFull:
			return nil, apperror.Capacity("ride is full")
		default:
			return nil, apperror.InvalidTransition("ride is %s and no longer takes reservations", ride.Status)
		}

		list, err := tx.ReservationsByRide(ctx, rideID)
		if err != nil {
			return nil, err
		}
		for _, other := range list {
			if other.PassengerID == actor.ID && !other.Status.Terminal() {
				return nil, apperror.Duplicate("you already have a %s reservation on this ride", other.Status)
			}
		}

		if err := HoldSeats(ride, seats); err != nil {
			return nil, err
		}

		now := m.now()
		res = &entity.Reservation{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			RideID:         rideID,
			PassengerID:    actor.ID,
			SeatsRequested: seats,
			Status:         entity.ReservationStatusPending,
		}
		if err := tx.InsertReservation(ctx, res); err != nil {
			return nil, err
		}
		if err := saveRide(ctx, tx, ride, now); err != nil {
			return nil, err
		}

		return []Event{reservationEvent(EventReservationCreated, actor, ride, res, now)}, nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("RESERVATION_CREATED",
		zap.String("reservation_id", res.ID.String()),
		zap.String("ride_id", rideID.String()),
		zap.Int("seats", seats),
	)
	return res, nil
}

// decideReservation is the shared body of approve, reject and cancel.
func (m *Manager) decideReservation(
	ctx context.Context,
	op string,
	actor Actor,
	resID uuid.UUID,
	action Action,
	apply func(ride *entity.Ride, res *entity.Reservation) (EventType, error),
) (*entity.Reservation, error) {
	rideID, err := m.rideOf(ctx, resID)
	if err != nil {
		return nil, err
	}

	var res *entity.Reservation
	err = m.run(ctx, op, rideID, func(tx repository.RideTx) ([]Event, error) {
		ride, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return nil, err
		}
		r, err := getReservation(ctx, tx, resID)
		if err != nil {
			return nil, err
		}
		if err := Authorize(actor, action, Resource{DriverID: ride.DriverID, PassengerID: r.PassengerID}); err != nil {
			return nil, err
		}

		evType, err := apply(ride, r)
		if err != nil {
			return nil, err
		}

		now := m.now()
		r.UpdatedAt = now
		if r.DecidedAt == nil {
			r.DecidedAt = &now
		}
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return nil, err
		}
		if err := saveRide(ctx, tx, ride, now); err != nil {
			return nil, err
		}
		res = r

		return []Event{reservationEvent(evType, actor, ride, r, now)}, nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info(
		"RESERVATION_"+strings.ToUpper(string(res.Status)),
		zap.String("reservation_id", resID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	return res, nil
}

// Approve confirms a pending reservation, turning its hold into committed seats.
func (m *Manager) Approve(ctx context.Context, actor Actor, resID uuid.UUID) (*entity.Reservation, error) {
	return m.decideReservation(ctx, "approve", actor, resID, ActionApproveReservation,
		func(ride *entity.Ride, res *entity.Reservation) (EventType, error) {
			if err := checkTransition(res, entity.ReservationStatusConfirmed); err != nil {
				return "", err
			}
			if ride.Status.Terminal() {
				return "", apperror.InvalidTransition("ride is %s", ride.Status)
			}
			if err := ReleaseSeats(ride, res.SeatsRequested); err != nil {
				return "", err
			}
			if err := DecrementSeats(ride, res.SeatsRequested); err != nil {
				return "", err
			}
			res.Status = entity.ReservationStatusConfirmed
			return EventReservationApproved, nil
		})
}

func (m *Manager) Reject(ctx context.Context, actor Actor, resID uuid.UUID) (*entity.Reservation, error) {
	return m.decideReservation(ctx, "reject", actor, resID, ActionRejectReservation,
		func(ride *entity.Ride, res *entity.Reservation) (EventType, error) {
			if err := checkTransition(res, entity.ReservationStatusRejected); err != nil {
				return "", err
			}
			if err := ReleaseSeats(ride, res.SeatsRequested); err != nil {
				return "", err
			}
			res.Status = entity.ReservationStatusRejected
			return EventReservationRejected, nil
		})
}

// Cancel withdraws a pending or confirmed reservation on behalf of either party.
func (m *Manager) Cancel(ctx context.Context, actor Actor, resID uuid.UUID) (*entity.Reservation, error) {
	return m.decideReservation(ctx, "cancel", actor, resID, ActionCancelReservation,
		func(ride *entity.Ride, res *entity.Reservation) (EventType, error) {
			if err := checkTransition(res, entity.ReservationStatusCancelled); err != nil {
				return "", err
			}

			var err error
			if res.Status == entity.ReservationStatusPending {
				err = ReleaseSeats(ride, res.SeatsRequested)
			} else {
				err = IncrementSeats(ride, res.SeatsRequested)
			}
			if err != nil {
				return "", err
			}
			res.Status = entity.ReservationStatusCancelled
			return EventReservationCancelled, nil
		})
}

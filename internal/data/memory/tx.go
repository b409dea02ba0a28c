package memory

import (
	"context"
	"fmt"

	"carpool-api/internal/data/entity"
	"carpool-api/internal/data/repository"

	"github.com/google/uuid"
)

// WithinTx holds the store's write lock for the whole of fn. Writes are staged
// on the tx and only copied into the store when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.RideTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:        s,
		rides:        make(map[uuid.UUID]*entity.Ride),
		reservations: make(map[uuid.UUID]*entity.Reservation),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for id, ride := range tx.rides {
		s.rides[id] = ride
	}
	for id, res := range tx.reservations {
		s.reservations[id] = res
	}
	return nil
}

type memTx struct {
	store        *Store
	rides        map[uuid.UUID]*entity.Ride
	reservations map[uuid.UUID]*entity.Reservation
}

func (t *memTx) ride(id uuid.UUID) *entity.Ride {
	if r, ok := t.rides[id]; ok {
		return r
	}
	return t.store.rides[id]
}

func (t *memTx) reservation(id uuid.UUID) *entity.Reservation {
	if r, ok := t.reservations[id]; ok {
		return r
	}
	return t.store.reservations[id]
}

func (t *memTx) LockRide(_ context.Context, id uuid.UUID) (*entity.Ride, error) {
	r := t.ride(id)
	if r == nil {
		return nil, nil
	}
	return r.Clone(), nil
}

func (t *memTx) GetReservation(_ context.Context, id uuid.UUID) (*entity.Reservation, error) {
	r := t.reservation(id)
	if r == nil {
		return nil, nil
	}
	return r.Clone(), nil
}

func (t *memTx) ReservationsByRide(_ context.Context, rideID uuid.UUID) ([]*entity.Reservation, error) {
	seen := make(map[uuid.UUID]bool)
	var list []*entity.Reservation
	for id, r := range t.reservations {
		seen[id] = true
		if r.RideID == rideID {
			list = append(list, r.Clone())
		}
	}
	for id, r := range t.store.reservations {
		if !seen[id] && r.RideID == rideID {
			list = append(list, r.Clone())
		}
	}
	sortReservations(list, false)
	return list, nil
}

func (t *memTx) InsertRide(_ context.Context, ride *entity.Ride) error {
	if t.ride(ride.ID) != nil {
		return fmt.Errorf("insert ride %s: already exists", ride.ID)
	}
	t.rides[ride.ID] = ride.Clone()
	return nil
}

func (t *memTx) UpdateRide(_ context.Context, ride *entity.Ride) error {
	if t.ride(ride.ID) == nil {
		return fmt.Errorf("ride %s not found", ride.ID)
	}
	t.rides[ride.ID] = ride.Clone()
	return nil
}

func (t *memTx) InsertReservation(_ context.Context, res *entity.Reservation) error {
	if t.reservation(res.ID) != nil {
		return fmt.Errorf("insert reservation %s: already exists", res.ID)
	}
	t.reservations[res.ID] = res.Clone()
	return nil
}

func (t *memTx) UpdateReservation(_ context.Context, res *entity.Reservation) error {
	if t.reservation(res.ID) == nil {
		return fmt.Errorf("reservation %s not found", res.ID)
	}
	t.reservations[res.ID] = res.Clone()
	return nil
}

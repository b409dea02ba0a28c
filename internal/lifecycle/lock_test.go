package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"
	"carpool-api/internal/data/repository"
	"carpool-api/pkg/lock"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// looseStore applies every write immediately and pauses after each ride read,
// so only the Manager's per-ride lock keeps read-modify-write cycles apart.
type looseStore struct {
	mu           sync.Mutex
	rides        map[uuid.UUID]*entity.Ride
	reservations map[uuid.UUID]*entity.Reservation
	readDelay    time.Duration
}

func newLooseStore() *looseStore {
	return &looseStore{
		rides:        make(map[uuid.UUID]*entity.Ride),
		reservations: make(map[uuid.UUID]*entity.Reservation),
		readDelay:    5 * time.Millisecond,
	}
}

func (s *looseStore) WithinTx(_ context.Context, fn func(tx repository.RideTx) error) error {
	return fn(s)
}

func (s *looseStore) LockRide(_ context.Context, id uuid.UUID) (*entity.Ride, error) {
	s.mu.Lock()
	r, ok := s.rides[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	ride := r.Clone()
	time.Sleep(s.readDelay)
	return ride, nil
}

func (s *looseStore) GetReservation(_ context.Context, id uuid.UUID) (*entity.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reservations[id]; ok {
		return r.Clone(), nil
	}
	return nil, nil
}

func (s *looseStore) ReservationsByRide(_ context.Context, rideID uuid.UUID) ([]*entity.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*entity.Reservation
	for _, r := range s.reservations {
		if r.RideID == rideID {
			list = append(list, r.Clone())
		}
	}
	return list, nil
}

func (s *looseStore) InsertRide(_ context.Context, ride *entity.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides[ride.ID] = ride.Clone()
	return nil
}

func (s *looseStore) UpdateRide(_ context.Context, ride *entity.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides[ride.ID] = ride.Clone()
	return nil
}

func (s *looseStore) InsertReservation(_ context.Context, res *entity.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[res.ID] = res.Clone()
	return nil
}

func (s *looseStore) UpdateReservation(_ context.Context, res *entity.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[res.ID] = res.Clone()
	return nil
}

func (s *looseStore) heldSeats(rideID uuid.UUID) (ride, reservations int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.RideID == rideID && r.Status == entity.ReservationStatusPending {
			reservations += r.SeatsRequested
		}
	}
	return s.rides[rideID].HeldSeats, reservations
}

type noLock struct{}

func (noLock) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// requestConcurrently fires callers one-seat requests at a fresh ride with
// capacity seats and returns how many were accepted.
func requestConcurrently(t *testing.T, locker lock.Locker, capacity, callers int) (accepted int, store *looseStore, rideID uuid.UUID) {
	t.Helper()
	store = newLooseStore()
	mgr := NewManager(store, locker, NopDispatcher, zaptest.NewLogger(t),
		WithClock(func() time.Time { return fixedNow }))

	driver := Actor{ID: uuid.New(), Role: entity.RoleDriver}
	ride, err := mgr.CreateRide(context.Background(), driver, RideDetails{
		Origin:        "North Gate",
		Destination:   "Harbour Office",
		DepartureTime: fixedNow.Add(24 * time.Hour),
		TotalSeats:    capacity,
	})
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		start = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := mgr.RequestSeats(context.Background(), passenger(), ride.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, apperror.ErrCapacity):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	return accepted, store, ride.ID
}

func TestRideLockPreventsOverbooking(t *testing.T) {
	const (
		capacity = 4
		callers  = 20
	)

	lockers := map[string]func(t *testing.T) lock.Locker{
		"keyed mutex": func(*testing.T) lock.Locker { return lock.NewKeyedMutex() },
		"redis": func(t *testing.T) lock.Locker {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return lock.NewRedisLocker(client, lock.RedisConfig{TTL: 5 * time.Second, RetryBackoff: time.Millisecond}, zaptest.NewLogger(t))
		},
	}

	for name, build := range lockers {
		t.Run(name, func(t *testing.T) {
			accepted, store, rideID := requestConcurrently(t, build(t), capacity, callers)

			assert.Equal(t, capacity, accepted)
			held, pending := store.heldSeats(rideID)
			assert.Equal(t, capacity, held)
			assert.Equal(t, capacity, pending)
		})
	}
}

func TestUnlockedStoreOverbooks(t *testing.T) {
	const capacity = 4

	accepted, store, rideID := requestConcurrently(t, noLock{}, capacity, 20)

	assert.Greater(t, accepted, capacity)
	held, pending := store.heldSeats(rideID)
	assert.NotEqual(t, held, pending)
}

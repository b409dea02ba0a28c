// Package memory is an in-process backend implementing every repository
// interface. Ride transactions stage their writes and apply them on success.
package memory

import (
	"sync"
	"time"

	"carpool-api/internal/data/entity"
	"carpool-api/internal/data/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*entity.User
	sessions      map[uuid.UUID]*entity.Session // by token id
	rides         map[uuid.UUID]*entity.Ride
	reservations  map[uuid.UUID]*entity.Reservation
	notifications map[uuid.UUID]*entity.Notification
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*entity.User),
		sessions:      make(map[uuid.UUID]*entity.Session),
		rides:         make(map[uuid.UUID]*entity.Ride),
		reservations:  make(map[uuid.UUID]*entity.Reservation),
		notifications: make(map[uuid.UUID]*entity.Notification),
	}
}

// NewRepository exposes the store through the repository bundle.
func NewRepository(s *Store) *repository.Repository {
	return &repository.Repository{
		User:         userRepo{s},
		Session:      sessionRepo{s},
		Ride:         rideRepo{s},
		Reservation:  reservationRepo{s},
		Notification: notificationRepo{s},
		Stats:        statsRepo{s},
		Tx:           s,
	}
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var now = time.Now

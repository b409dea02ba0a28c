package repository

import (
	"context"
	"errors"

	"carpool-api/internal/data/entity"
	"carpool-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// RideTx is the write side of the ride aggregate. All calls made through one
// RideTx commit together or not at all.
type RideTx interface {
	// LockRide reads the ride and holds it until the transaction ends.
	LockRide(ctx context.Context, id uuid.UUID) (*entity.Ride, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	ReservationsByRide(ctx context.Context, rideID uuid.UUID) ([]*entity.Reservation, error)
	InsertRide(ctx context.Context, ride *entity.Ride) error
	UpdateRide(ctx context.Context, ride *entity.Ride) error
	InsertReservation(ctx context.Context, res *entity.Reservation) error
	UpdateReservation(ctx context.Context, res *entity.Reservation) error
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx RideTx) error) error
}

// Repository bundles every store the services depend on. Both the Postgres
// and the in-memory backend fill it.
type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Ride         RideRepository
	Reservation  ReservationRepository
	Notification NotificationRepository
	Stats        StatsRepository
	Tx           TxRunner
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		Ride:         NewRideRepository(db, log),
		Reservation:  NewReservationRepository(db, log),
		Notification: NewNotificationRepository(db, log),
		Stats:        NewStatsRepository(db, log),
		Tx:           NewTxRunner(db, log),
	}
}

// querier is satisfied by both the pool wrapper and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"
	"carpool-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type txRunner struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTxRunner(db database.PgxIface, log *zap.Logger) TxRunner {
	return &txRunner{
		db:  db,
		log: log.With(zap.String("repository", "ride_tx")),
	}
}

// WithinTx runs fn inside a Postgres transaction, committing when fn returns
// nil and rolling back otherwise.
func (t *txRunner) WithinTx(ctx context.Context, fn func(tx RideTx) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		t.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(&pgRideTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		t.log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pgRideTx struct {
	tx pgx.Tx
}

func (p *pgRideTx) LockRide(ctx context.Context, id uuid.UUID) (*entity.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 FOR UPDATE`

	ride, err := scanRide(p.tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock ride %s: %w", id, err)
	}
	return ride, nil
}

func (p *pgRideTx) GetReservation(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return findReservation(ctx, p.tx, id)
}

func (p *pgRideTx) ReservationsByRide(ctx context.Context, rideID uuid.UUID) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations rs WHERE rs.ride_id = $1 ORDER BY rs.created_at`

	rows, err := p.tx.Query(ctx, query, rideID)
	if err != nil {
		return nil, fmt.Errorf("list reservations of ride %s: %w", rideID, err)
	}
	defer rows.Close()

	var list []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

func (p *pgRideTx) InsertRide(ctx context.Context, ride *entity.Ride) error {
	query := `
		INSERT INTO rides (id, driver_id, origin, destination, departure_time, total_seats,
		                   available_seats, held_seats, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := p.tx.Exec(ctx, query,
		ride.ID,
		ride.DriverID,
		ride.Origin,
		ride.Destination,
		ride.DepartureTime,
		ride.TotalSeats,
		ride.AvailableSeats,
		ride.HeldSeats,
		ride.Status,
		ride.CreatedAt,
		ride.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ride %s: %w", ride.ID, err)
	}
	return nil
}

func (p *pgRideTx) UpdateRide(ctx context.Context, ride *entity.Ride) error {
	query := `
		UPDATE rides
		SET origin = $2, destination = $3, departure_time = $4, total_seats = $5,
		    available_seats = $6, held_seats = $7, status = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := p.tx.Exec(ctx, query,
		ride.ID,
		ride.Origin,
		ride.Destination,
		ride.DepartureTime,
		ride.TotalSeats,
		ride.AvailableSeats,
		ride.HeldSeats,
		ride.Status,
		ride.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update ride %s: %w", ride.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("ride %s not found", ride.ID)
	}
	return nil
}

func (p *pgRideTx) InsertReservation(ctx context.Context, res *entity.Reservation) error {
	query := `
		INSERT INTO reservations (id, ride_id, passenger_id, seats_requested, status,
		                          decided_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.tx.Exec(ctx, query,
		res.ID,
		res.RideID,
		res.PassengerID,
		res.SeatsRequested,
		res.Status,
		res.DecidedAt,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperror.Duplicate("passenger already has a live reservation on this ride")
	}
	if err != nil {
		return fmt.Errorf("insert reservation %s: %w", res.ID, err)
	}
	return nil
}

func (p *pgRideTx) UpdateReservation(ctx context.Context, res *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET status = $2, decided_at = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := p.tx.Exec(ctx, query, res.ID, res.Status, res.DecidedAt, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update reservation %s: %w", res.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not found", res.ID)
	}
	return nil
}

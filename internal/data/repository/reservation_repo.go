package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"carpool-api/internal/data/entity"
	"carpool-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	List(ctx context.Context, filter entity.ReservationFilter, limit, offset int) ([]*entity.Reservation, error)
	Count(ctx context.Context, filter entity.ReservationFilter) (int64, error)
	CountByPassenger(ctx context.Context, passengerID uuid.UUID) (int64, error)
}

type reservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReservationRepository(db database.PgxIface, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

const reservationColumns = `rs.id, rs.ride_id, rs.passenger_id, rs.seats_requested, rs.status,
		       rs.decided_at, rs.created_at, rs.updated_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.RideID,
		&res.PassengerID,
		&res.SeatsRequested,
		&res.Status,
		&res.DecidedAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func findReservation(ctx context.Context, q querier, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations rs WHERE rs.id = $1`

	res, err := scanReservation(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reservation %s: %w", id, err)
	}
	return res, nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	res, err := findReservation(ctx, r.db, id)
	if err != nil {
		r.log.Error("Failed to find reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
	}
	return res, err
}

func buildReservationWhere(filter entity.ReservationFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("(rs.passenger_id = $%d OR r.driver_id = $%d)", len(args), len(args)))
	}
	if filter.RideID != nil {
		args = append(args, *filter.RideID)
		conds = append(conds, fmt.Sprintf("rs.ride_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("rs.status = $%d", len(args)))
	}

	where := " FROM reservations rs JOIN rides r ON r.id = rs.ride_id"
	if len(conds) > 0 {
		where += " WHERE " + strings.Join(conds, " AND ")
	}
	return where, args
}

func (r *reservationRepository) List(ctx context.Context, filter entity.ReservationFilter, limit, offset int) ([]*entity.Reservation, error) {
	from, args := buildReservationWhere(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s%s ORDER BY rs.created_at DESC LIMIT $%d OFFSET $%d`,
		reservationColumns, from, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list reservations", zap.Error(err))
		return nil, fmt.Errorf("list reservations: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservation rows: %w", err)
	}

	return list, nil
}

func (r *reservationRepository) Count(ctx context.Context, filter entity.ReservationFilter) (int64, error) {
	from, args := buildReservationWhere(filter)

	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+from, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count reservations", zap.Error(err))
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}

func (r *reservationRepository) CountByPassenger(ctx context.Context, passengerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE passenger_id = $1`, passengerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reservations for passenger %s: %w", passengerID, err)
	}
	return count, nil
}

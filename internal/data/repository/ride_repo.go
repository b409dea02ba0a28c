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

type RideRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Ride, error)
	Search(ctx context.Context, filter entity.RideFilter, limit, offset int) ([]*entity.Ride, error)
	Count(ctx context.Context, filter entity.RideFilter) (int64, error)
	CountByDriver(ctx context.Context, driverID uuid.UUID) (int64, error)
	Participants(ctx context.Context, rideID uuid.UUID) ([]*entity.Participant, error)
}

type rideRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRideRepository(db database.PgxIface, log *zap.Logger) RideRepository {
	return &rideRepository{
		db:  db,
		log: log.With(zap.String("repository", "ride")),
	}
}

const rideColumns = `id, driver_id, origin, destination, departure_time, total_seats,
		       available_seats, held_seats, status, created_at, updated_at`

func scanRide(row pgx.Row) (*entity.Ride, error) {
	var ride entity.Ride
	err := row.Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.Origin,
		&ride.Destination,
		&ride.DepartureTime,
		&ride.TotalSeats,
		&ride.AvailableSeats,
		&ride.HeldSeats,
		&ride.Status,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

func (r *rideRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ride",
			zap.Error(err),
			zap.String("ride_id", id.String()),
		)
		return nil, fmt.Errorf("find ride %s: %w", id, err)
	}

	return ride, nil
}

// buildRideWhere turns a filter into a WHERE clause with positional args.
func buildRideWhere(filter entity.RideFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Origin != "" {
		add("origin ILIKE $%d", "%"+filter.Origin+"%")
	}
	if filter.Destination != "" {
		add("destination ILIKE $%d", "%"+filter.Destination+"%")
	}
	if filter.DriverID != nil {
		add("driver_id = $%d", *filter.DriverID)
	}
	if filter.DateFrom != nil {
		add("departure_time >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("departure_time <= $%d", *filter.DateTo)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *rideRepository) Search(ctx context.Context, filter entity.RideFilter, limit, offset int) ([]*entity.Ride, error) {
	where, args := buildRideWhere(filter)

	order := "ASC"
	if filter.SortDesc {
		order = "DESC"
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM rides%s ORDER BY departure_time %s LIMIT $%d OFFSET $%d`,
		rideColumns, where, order, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to search rides", zap.Error(err))
		return nil, fmt.Errorf("search rides: %w", err)
	}
	defer rows.Close()

	var rides []*entity.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ride row: %w", err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ride rows: %w", err)
	}

	return rides, nil
}

func (r *rideRepository) Count(ctx context.Context, filter entity.RideFilter) (int64, error) {
	where, args := buildRideWhere(filter)

	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM rides`+where, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count rides", zap.Error(err))
		return 0, fmt.Errorf("count rides: %w", err)
	}
	return count, nil
}

func (r *rideRepository) CountByDriver(ctx context.Context, driverID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM rides WHERE driver_id = $1`, driverID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count rides for driver %s: %w", driverID, err)
	}
	return count, nil
}

func (r *rideRepository) Participants(ctx context.Context, rideID uuid.UUID) ([]*entity.Participant, error) {
	query := `
		SELECT rs.id, rs.passenger_id, u.name, u.email, rs.seats_requested, rs.status
		FROM reservations rs
		JOIN users u ON u.id = rs.passenger_id
		WHERE rs.ride_id = $1 AND rs.status <> 'cancelled'
		ORDER BY rs.created_at
	`

	rows, err := r.db.Query(ctx, query, rideID)
	if err != nil {
		r.log.Error("Failed to list participants",
			zap.Error(err),
			zap.String("ride_id", rideID.String()),
		)
		return nil, fmt.Errorf("list participants of ride %s: %w", rideID, err)
	}
	defer rows.Close()

	var participants []*entity.Participant
	for rows.Next() {
		var p entity.Participant
		if err := rows.Scan(&p.ReservationID, &p.PassengerID, &p.Name, &p.Email, &p.SeatsRequested, &p.Status); err != nil {
			return nil, fmt.Errorf("scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participant rows: %w", err)
	}

	return participants, nil
}

package repository

import (
	"context"
	"fmt"

	"carpool-api/internal/data/entity"
	"carpool-api/pkg/database"

	"go.uber.org/zap"
)

type StatsRepository interface {
	Collect(ctx context.Context) (*entity.Stats, error)
}

type statsRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewStatsRepository(db database.PgxIface, log *zap.Logger) StatsRepository {
	return &statsRepository{
		db:  db,
		log: log.With(zap.String("repository", "stats")),
	}
}

func (r *statsRepository) Collect(ctx context.Context) (*entity.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM rides),
			(SELECT COUNT(*) FROM rides WHERE status IN ('open', 'full')),
			(SELECT COUNT(*) FROM rides WHERE status = 'completed'),
			(SELECT COUNT(*) FROM reservations),
			(SELECT COUNT(*) FROM reservations WHERE status = 'cancelled'),
			(SELECT COALESCE(SUM(total_seats), 0) FROM rides WHERE status <> 'cancelled'),
			(SELECT COALESCE(SUM(total_seats - available_seats), 0) FROM rides WHERE status <> 'cancelled')
	`

	var s entity.Stats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.TotalUsers,
		&s.TotalRides,
		&s.ActiveRides,
		&s.CompletedRides,
		&s.TotalReservations,
		&s.CancelledReservations,
		&s.TotalSeats,
		&s.CommittedSeats,
	)
	if err != nil {
		r.log.Error("Failed to collect stats", zap.Error(err))
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return &s, nil
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"carpool-api/internal/data/entity"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBuildRideWhere(t *testing.T) {
	driverID := uuid.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	status := entity.RideStatusOpen

	where, args := buildRideWhere(entity.RideFilter{
		Origin:   "north",
		DriverID: &driverID,
		DateFrom: &from,
		Status:   &status,
	})

	assert.Equal(t, " WHERE origin ILIKE $1 AND driver_id = $2 AND departure_time >= $3 AND status = $4", where)
	assert.Equal(t, []any{"%north%", driverID, from, status}, args)

	where, args = buildRideWhere(entity.RideFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildReservationWhere(t *testing.T) {
	userID, rideID := uuid.New(), uuid.New()
	status := entity.ReservationStatusPending

	from, args := buildReservationWhere(entity.ReservationFilter{UserID: &userID, RideID: &rideID, Status: &status})

	assert.Equal(t, " FROM reservations rs JOIN rides r ON r.id = rs.ride_id"+
		" WHERE (rs.passenger_id = $1 OR r.driver_id = $1) AND rs.ride_id = $2 AND rs.status = $3", from)
	assert.Equal(t, []any{userID, rideID, status}, args)
}

func TestRideFindByIDMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewRideRepository(mock, zaptest.NewLogger(t))

	mock.ExpectQuery(`FROM rides WHERE id = \$1`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(rideColumnNames))

	ride, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, ride)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationCountUsesFilter(t *testing.T) {
	mock := newMock(t)
	repo := NewReservationRepository(mock, zaptest.NewLogger(t))
	rideID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations rs JOIN rides r ON r.id = rs.ride_id WHERE rs.ride_id = \$1`).
		WithArgs(rideID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.Count(context.Background(), entity.ReservationFilter{RideID: &rideID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanExpiredSessions(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock, zaptest.NewLogger(t))
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM sessions\s+WHERE expires_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM sessions`).
		WithArgs(cutoff).
		WillReturnError(errors.New("connection reset"))

	removed, err := repo.CleanExpiredSessions(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	_, err = repo.CleanExpiredSessions(context.Background(), cutoff)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

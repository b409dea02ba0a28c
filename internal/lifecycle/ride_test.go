package lifecycle

import (
	"testing"
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestRide(t *testing.T, seats int) *entity.Ride {
	t.Helper()
	ride, err := NewRide(uuid.New(), RideDetails{
		Origin:        "Campus A",
		Destination:   "Downtown",
		DepartureTime: fixedNow.Add(2 * time.Hour),
		TotalSeats:    seats,
	}, fixedNow)
	require.NoError(t, err)
	return ride
}

func TestNewRide(t *testing.T) {
	ride := newTestRide(t, 3)

	assert.Equal(t, entity.RideStatusOpen, ride.Status)
	assert.Equal(t, 3, ride.AvailableSeats)
	assert.Zero(t, ride.HeldSeats)
	assert.NotEqual(t, uuid.Nil, ride.ID)
}

func TestNewRideValidation(t *testing.T) {
	tests := []struct {
		name string
		d    RideDetails
	}{
		{"zero seats", RideDetails{Origin: "A", Destination: "B", DepartureTime: fixedNow.Add(time.Hour), TotalSeats: 0}},
		{"past departure", RideDetails{Origin: "A", Destination: "B", DepartureTime: fixedNow.Add(-time.Minute), TotalSeats: 2}},
		{"blank origin", RideDetails{Origin: "  ", Destination: "B", DepartureTime: fixedNow.Add(time.Hour), TotalSeats: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRide(uuid.New(), tt.d, fixedNow)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestDecrementSeatsTransitionsToFull(t *testing.T) {
	ride := newTestRide(t, 2)

	require.NoError(t, DecrementSeats(ride, 2))
	assert.Equal(t, 0, ride.AvailableSeats)
	assert.Equal(t, entity.RideStatusFull, ride.Status)

	err := DecrementSeats(ride, 1)
	assert.ErrorIs(t, err, apperror.ErrCapacity)
	assert.Equal(t, 0, ride.AvailableSeats)
}

func TestIncrementSeatsReopensAndGuardsTotal(t *testing.T) {
	ride := newTestRide(t, 2)
	require.NoError(t, DecrementSeats(ride, 2))

	require.NoError(t, IncrementSeats(ride, 1))
	assert.Equal(t, entity.RideStatusOpen, ride.Status)
	assert.Equal(t, 1, ride.AvailableSeats)

	err := IncrementSeats(ride, 2)
	assert.ErrorIs(t, err, apperror.ErrInvariant)
	assert.Equal(t, 1, ride.AvailableSeats)
}

func TestHoldAndRelease(t *testing.T) {
	ride := newTestRide(t, 3)

	require.NoError(t, HoldSeats(ride, 2))
	assert.Equal(t, 1, ride.FreeSeats())

	assert.ErrorIs(t, HoldSeats(ride, 2), apperror.ErrCapacity)
	assert.ErrorIs(t, DecrementSeats(ride, 2), apperror.ErrCapacity)

	require.NoError(t, ReleaseSeats(ride, 2))
	assert.Equal(t, 3, ride.FreeSeats())
	assert.ErrorIs(t, ReleaseSeats(ride, 1), apperror.ErrInvariant)
}

func TestTerminalRideKeepsStatus(t *testing.T) {
	ride := newTestRide(t, 1)
	ride.Status = entity.RideStatusCancelled

	require.NoError(t, DecrementSeats(ride, 1))
	assert.Equal(t, entity.RideStatusCancelled, ride.Status)
}

func TestApplyPatch(t *testing.T) {
	ride := newTestRide(t, 4)
	require.NoError(t, DecrementSeats(ride, 1))
	require.NoError(t, HoldSeats(ride, 1))

	seats := 1
	err := ApplyPatch(ride, RidePatch{TotalSeats: &seats}, fixedNow)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	seats = 2
	dest := "Airport"
	require.NoError(t, ApplyPatch(ride, RidePatch{TotalSeats: &seats, Destination: &dest}, fixedNow))
	assert.Equal(t, 2, ride.TotalSeats)
	assert.Equal(t, 1, ride.AvailableSeats)
	assert.Equal(t, 1, ride.HeldSeats)
	assert.Equal(t, "Airport", ride.Destination)

	past := fixedNow.Add(-time.Hour)
	err = ApplyPatch(ride, RidePatch{DepartureTime: &past}, fixedNow)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(entity.ReservationStatusPending, entity.ReservationStatusConfirmed))
	assert.True(t, CanTransition(entity.ReservationStatusPending, entity.ReservationStatusCancelled))
	assert.True(t, CanTransition(entity.ReservationStatusConfirmed, entity.ReservationStatusCompleted))
	assert.False(t, CanTransition(entity.ReservationStatusPending, entity.ReservationStatusCompleted))
	assert.False(t, CanTransition(entity.ReservationStatusConfirmed, entity.ReservationStatusRejected))

	for _, terminal := range []entity.ReservationStatus{
		entity.ReservationStatusRejected,
		entity.ReservationStatusCancelled,
		entity.ReservationStatusCompleted,
	} {
		assert.True(t, terminal.Terminal())
		assert.False(t, CanTransition(terminal, entity.ReservationStatusConfirmed))
		assert.False(t, CanTransition(terminal, entity.ReservationStatusCancelled))
	}
}

package lifecycle

import (
	"testing"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsLifecycleEvent(t *testing.T) {
	assert.True(t, IsLifecycleEvent("RideCancelled"))
	assert.True(t, IsLifecycleEvent(" reservationapproved "))
	assert.False(t, IsLifecycleEvent("custom"))
	assert.False(t, IsLifecycleEvent(""))
}

func TestCanPerform(t *testing.T) {
	driver := Actor{ID: uuid.New(), Role: entity.RoleDriver}
	otherDriver := Actor{ID: uuid.New(), Role: entity.RoleDriver}
	passenger := Actor{ID: uuid.New(), Role: entity.RolePassenger}
	stranger := Actor{ID: uuid.New(), Role: entity.RolePassenger}
	admin := Actor{ID: uuid.New(), Role: entity.RoleAdmin}

	ride := Resource{DriverID: driver.ID}
	reservation := Resource{DriverID: driver.ID, PassengerID: passenger.ID}

	tests := []struct {
		name   string
		actor  Actor
		action Action
		res    Resource
		want   bool
	}{
		{"driver creates ride", driver, ActionCreateRide, Resource{}, true},
		{"passenger creates ride", passenger, ActionCreateRide, Resource{}, false},
		{"admin creates ride", admin, ActionCreateRide, Resource{}, false},

		{"driver cancels own ride", driver, ActionCancelRide, ride, true},
		{"other driver cancels ride", otherDriver, ActionCancelRide, ride, false},
		{"admin cancels ride", admin, ActionCancelRide, ride, false},
		{"driver completes own ride", driver, ActionCompleteRide, ride, true},
		{"passenger completes ride", passenger, ActionCompleteRide, ride, false},
		{"driver updates own ride", driver, ActionUpdateRide, ride, true},

		{"passenger requests", passenger, ActionRequestReservation, ride, true},
		{"driver requests own ride", driver, ActionRequestReservation, ride, false},
		{"other driver requests", otherDriver, ActionRequestReservation, ride, false},
		{"admin requests", admin, ActionRequestReservation, ride, false},

		{"driver approves", driver, ActionApproveReservation, reservation, true},
		{"passenger approves", passenger, ActionApproveReservation, reservation, false},
		{"admin approves", admin, ActionApproveReservation, reservation, false},
		{"driver rejects", driver, ActionRejectReservation, reservation, true},
		{"other driver rejects", otherDriver, ActionRejectReservation, reservation, false},

		{"passenger cancels", passenger, ActionCancelReservation, reservation, true},
		{"driver cancels", driver, ActionCancelReservation, reservation, true},
		{"stranger cancels", stranger, ActionCancelReservation, reservation, false},
		{"admin cancels", admin, ActionCancelReservation, reservation, false},

		{"passenger views reservation", passenger, ActionViewReservation, reservation, true},
		{"stranger views reservation", stranger, ActionViewReservation, reservation, false},
		{"admin views reservation", admin, ActionViewReservation, reservation, true},
		{"driver views participants", driver, ActionViewParticipants, ride, true},
		{"passenger views participants", passenger, ActionViewParticipants, ride, false},
		{"admin views participants", admin, ActionViewParticipants, ride, true},

		{"owner manages notification", passenger, ActionManageNotification, Resource{OwnerID: passenger.ID}, true},
		{"stranger manages notification", stranger, ActionManageNotification, Resource{OwnerID: passenger.ID}, false},
		{"admin manages notification", admin, ActionManageNotification, Resource{OwnerID: passenger.ID}, false},
		{"notify self", stranger, ActionCreateNotification, Resource{OwnerID: stranger.ID}, true},
		{"driver notifies passenger", driver, ActionCreateNotification, Resource{DriverID: driver.ID, PassengerID: passenger.ID, OwnerID: passenger.ID}, true},
		{"passenger notifies driver", passenger, ActionCreateNotification, Resource{DriverID: driver.ID, PassengerID: passenger.ID, OwnerID: driver.ID}, true},
		{"stranger notifies driver", stranger, ActionCreateNotification, Resource{OwnerID: driver.ID}, false},
		{"stranger notifies via ride", stranger, ActionCreateNotification, Resource{DriverID: driver.ID, OwnerID: driver.ID}, false},
		{"driver notifies non-passenger", driver, ActionCreateNotification, Resource{DriverID: driver.ID, OwnerID: stranger.ID}, false},
		{"notify nobody", driver, ActionCreateNotification, Resource{}, false},

		{"admin views stats", admin, ActionViewStats, Resource{}, true},
		{"driver views stats", driver, ActionViewStats, Resource{}, false},

		{"unknown role", Actor{ID: uuid.New(), Role: "root"}, ActionViewRide, ride, false},
		{"unknown action", driver, Action("delete_everything"), ride, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPerform(tt.actor, tt.action, tt.res))
		})
	}
}

func TestAuthorizeReturnsAuthorizationError(t *testing.T) {
	passenger := Actor{ID: uuid.New(), Role: entity.RolePassenger}

	err := Authorize(passenger, ActionApproveReservation, Resource{DriverID: uuid.New()})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	assert.NoError(t, Authorize(passenger, ActionViewRide, Resource{}))
}

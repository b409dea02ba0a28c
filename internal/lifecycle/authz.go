package lifecycle

import (
	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreateRide         Action = "create_ride"
	ActionUpdateRide         Action = "update_ride"
	ActionCancelRide         Action = "cancel_ride"
	ActionCompleteRide       Action = "complete_ride"
	ActionViewRide           Action = "view_ride"
	ActionViewParticipants   Action = "view_participants"
	ActionRequestReservation Action = "request_reservation"
	ActionApproveReservation Action = "approve_reservation"
	ActionRejectReservation  Action = "reject_reservation"
	ActionCancelReservation  Action = "cancel_reservation"
	ActionViewReservation    Action = "view_reservation"
	ActionManageNotification Action = "manage_notification"
	ActionCreateNotification Action = "create_notification"
	ActionViewStats          Action = "view_stats"
)

// Actor is an authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role entity.UserRole
}

// Resource carries the ownership facts a rule needs. Zero ids mean "not
// applicable".
type Resource struct {
	DriverID    uuid.UUID
	PassengerID uuid.UUID
	OwnerID     uuid.UUID
}

type rule struct {
	read  bool
	allow func(a Actor, r Resource) bool
}

func isRideDriver(a Actor, r Resource) bool {
	return r.DriverID != uuid.Nil && a.ID == r.DriverID
}

func isPassenger(a Actor, r Resource) bool {
	return r.PassengerID != uuid.Nil && a.ID == r.PassengerID
}

var rules = map[Action]rule{
	ActionCreateRide: {allow: func(a Actor, _ Resource) bool {
		return a.Role == entity.RoleDriver
	}},
	ActionUpdateRide:   {allow: isRideDriver},
	ActionCancelRide:   {allow: isRideDriver},
	ActionCompleteRide: {allow: isRideDriver},
	ActionViewRide: {read: true, allow: func(Actor, Resource) bool {
		return true
	}},
	ActionViewParticipants: {read: true, allow: isRideDriver},
	ActionRequestReservation: {allow: func(a Actor, r Resource) bool {
		return a.Role == entity.RolePassenger && a.ID != r.DriverID
	}},
	ActionApproveReservation: {allow: isRideDriver},
	ActionRejectReservation:  {allow: isRideDriver},
	ActionCancelReservation: {allow: func(a Actor, r Resource) bool {
		return isPassenger(a, r) || isRideDriver(a, r)
	}},
	ActionViewReservation: {read: true, allow: func(a Actor, r Resource) bool {
		return isPassenger(a, r) || isRideDriver(a, r)
	}},
	ActionManageNotification: {allow: func(a Actor, r Resource) bool {
		return r.OwnerID != uuid.Nil && a.ID == r.OwnerID
	}},
	// Self, or the other party of a ride the actor drives or has a
	// reservation on. OwnerID is the recipient.
	ActionCreateNotification: {allow: func(a Actor, r Resource) bool {
		if r.OwnerID == uuid.Nil {
			return false
		}
		if a.ID == r.OwnerID {
			return true
		}
		return (isRideDriver(a, r) && r.OwnerID == r.PassengerID) ||
			(isPassenger(a, r) && r.OwnerID == r.DriverID)
	}},
	ActionViewStats: {read: true, allow: func(Actor, Resource) bool {
		return false
	}},
}

// CanPerform reports whether actor may perform action on resource. Unknown
// roles and actions are denied. Admins pass every read rule and no write rule.
func CanPerform(actor Actor, action Action, res Resource) bool {
	if !actor.Role.Valid() || actor.ID == uuid.Nil {
		return false
	}
	r, ok := rules[action]
	if !ok {
		return false
	}
	if r.read && actor.Role == entity.RoleAdmin {
		return true
	}
	return r.allow(actor, res)
}

func Authorize(actor Actor, action Action, res Resource) error {
	if !CanPerform(actor, action, res) {
		return apperror.Forbidden("%s is not allowed to %s", actor.Role, action)
	}
	return nil
}

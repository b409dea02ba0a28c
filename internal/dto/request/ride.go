package request

import "time"

type CreateRideRequest struct {
	Origin        string    `json:"origin" validate:"required,max=255"`
	Destination   string    `json:"destination" validate:"required,max=255"`
	DepartureTime time.Time `json:"departure_time" validate:"required"`
	TotalSeats    int       `json:"total_seats" validate:"required,gte=1,lte=20"`
}

type UpdateRideRequest struct {
	Origin        *string    `json:"origin,omitempty" validate:"omitempty,min=1,max=255"`
	Destination   *string    `json:"destination,omitempty" validate:"omitempty,min=1,max=255"`
	DepartureTime *time.Time `json:"departure_time,omitempty"`
	TotalSeats    *int       `json:"total_seats,omitempty" validate:"omitempty,gte=1,lte=20"`
}

// RideSearchRequest is built from query parameters.
type RideSearchRequest struct {
	PaginatedRequest
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	DriverID    string     `json:"driver_id" validate:"omitempty,uuid"`
	DateFrom    *time.Time `json:"date_from"`
	DateTo      *time.Time `json:"date_to"`
	Status      string     `json:"status" validate:"omitempty,oneof=open full completed cancelled"`
	SortBy      string     `json:"sort_by" validate:"omitempty,oneof=date_asc date_desc"`
}

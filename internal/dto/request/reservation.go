package request

type CreateReservationRequest struct {
	RideID         string `json:"ride_id" validate:"required,uuid"`
	SeatsRequested int    `json:"seats_requested" validate:"required,gte=1"`
}

type ReservationListRequest struct {
	PaginatedRequest
	RideID string `json:"ride_id" validate:"omitempty,uuid"`
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed rejected cancelled completed"`
}

package request

type CreateNotificationRequest struct {
	UserID    string  `json:"user_id" validate:"required,uuid"`
	RideID    *string `json:"ride_id,omitempty" validate:"omitempty,uuid"`
	EventType string  `json:"event_type,omitempty" validate:"omitempty,max=50"`
	Message   string  `json:"message" validate:"required,max=500"`
}

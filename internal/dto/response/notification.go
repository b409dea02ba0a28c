package response

import (
	"time"

	"carpool-api/internal/data/entity"
)

type NotificationResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	RideID        *string   `json:"ride_id,omitempty"`
	ReservationID *string   `json:"reservation_id,omitempty"`
	EventType     string    `json:"event_type,omitempty"`
	Message       string    `json:"message"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

func NotificationToResponse(n *entity.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		UserID:    n.UserID.String(),
		EventType: n.EventType,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.RideID != nil {
		s := n.RideID.String()
		resp.RideID = &s
	}
	if n.ReservationID != nil {
		s := n.ReservationID.String()
		resp.ReservationID = &s
	}
	return resp
}

func NotificationsToResponse(list []*entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(list))
	for i, n := range list {
		out[i] = NotificationToResponse(n)
	}
	return out
}

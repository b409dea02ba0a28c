package response

import (
	"time"

	"carpool-api/internal/data/entity"
)

type UserResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Department string          `json:"department"`
	Role       entity.UserRole `json:"role"`
	Phone      *string         `json:"phone,omitempty"`
	CarModel   *string         `json:"car_model,omitempty"`
	CarPlate   *string         `json:"car_plate,omitempty"`
	CarColor   *string         `json:"car_color,omitempty"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ProfileResponse adds activity counters to the user record.
type ProfileResponse struct {
	UserResponse
	RidesOfferedCount int64 `json:"rides_offered_count"`
	BookingsCount     int64 `json:"bookings_count"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:         user.ID.String(),
		Name:       user.Name,
		Email:      user.Email,
		Department: user.Department,
		Role:       user.Role,
		Phone:      user.Phone,
		CarModel:   user.CarModel,
		CarPlate:   user.CarPlate,
		CarColor:   user.CarColor,
		IsActive:   user.IsActive,
		CreatedAt:  user.CreatedAt,
	}
}

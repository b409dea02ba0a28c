package request

type RegisterRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=100"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	Department string  `json:"department" validate:"required,max=100"`
	Role       string  `json:"role" validate:"required,oneof=driver passenger"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	CarModel   *string `json:"car_model,omitempty" validate:"omitempty,max=100"`
	CarPlate   *string `json:"car_plate,omitempty" validate:"omitempty,max=20"`
	CarColor   *string `json:"car_color,omitempty" validate:"omitempty,max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,nefield=CurrentPassword"`
}

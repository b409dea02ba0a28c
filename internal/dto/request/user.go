package request

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Department *string `json:"department,omitempty" validate:"omitempty,min=1,max=100"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	CarModel   *string `json:"car_model,omitempty" validate:"omitempty,max=100"`
	CarPlate   *string `json:"car_plate,omitempty" validate:"omitempty,max=20"`
	CarColor   *string `json:"car_color,omitempty" validate:"omitempty,max=30"`
}

package entity

type UserRole string

const (
	RoleDriver    UserRole = "driver"
	RolePassenger UserRole = "passenger"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleDriver, RolePassenger, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	Base
	Name         string   `db:"name"`
	Email        string   `db:"email"`
	PasswordHash string   `db:"password"`
	Department   string   `db:"department"`
	Role         UserRole `db:"role"`
	Phone        *string  `db:"phone"`
	CarModel     *string  `db:"car_model"`
	CarPlate     *string  `db:"car_plate"`
	CarColor     *string  `db:"car_color"`
	IsActive     bool     `db:"is_active"`
}

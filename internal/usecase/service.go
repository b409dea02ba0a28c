package usecase

import (
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/repository"
	"carpool-api/internal/lifecycle"
	"carpool-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer signs access tokens. The returned id is stored as the session
// token id so the token can be revoked.
type TokenIssuer interface {
	Generate(userID uuid.UUID, email, role string) (string, uuid.UUID, time.Time, error)
}

type Service struct {
	Auth         AuthService
	User         UserService
	Ride         RideService
	Reservation  ReservationService
	Notification NotificationService
	Admin        AdminService
}

func NewService(
	repo *repository.Repository,
	manager *lifecycle.Manager,
	tokens TokenIssuer,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:         NewAuthService(repo, tokens, log),
		User:         NewUserService(repo, log),
		Ride:         NewRideService(repo, manager, log),
		Reservation:  NewReservationService(repo, manager, log),
		Notification: NewNotificationService(repo, log),
		Admin:        NewAdminService(repo.Stats, log),
	}
}

// validate runs struct validation and reports failures as a validation error.
func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return apperror.Invalid(errs, utils.FormatValidationErrors(errs))
	}
	return nil
}

func parseID(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid %s", field)
	}
	return id, nil
}

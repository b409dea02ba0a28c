package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/repository"
	"carpool-api/internal/dto/request"
	"carpool-api/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.ProfileResponse, error)
}

type userService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		repo: repo,
		log:  log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.ProfileResponse, error) {
	user, err := us.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	offered, err := us.repo.Ride.CountByDriver(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count rides: %w", err)
	}
	bookings, err := us.repo.Reservation.CountByPassenger(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reservations: %w", err)
	}

	return &response.ProfileResponse{
		UserResponse:      response.UserToResponse(user),
		RidesOfferedCount: offered,
		BookingsCount:     bookings,
	}, nil
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.ProfileResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := us.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Department != nil {
		user.Department = strings.TrimSpace(*req.Department)
	}
	if req.Phone != nil {
		user.Phone = trimmed(req.Phone)
	}
	if req.CarModel != nil {
		user.CarModel = trimmed(req.CarModel)
	}
	if req.CarPlate != nil {
		user.CarPlate = trimmed(req.CarPlate)
	}
	if req.CarColor != nil {
		user.CarColor = trimmed(req.CarColor)
	}
	user.UpdatedAt = time.Now()

	if err := us.repo.User.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	us.log.Info("PROFILE_UPDATED", zap.String("user_id", userID.String()))
	return us.GetProfile(ctx, userID)
}

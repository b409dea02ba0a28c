package usecase

import (
	"context"
	"fmt"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"
	"carpool-api/internal/data/repository"
	"carpool-api/internal/dto/request"
	"carpool-api/internal/dto/response"
	"carpool-api/internal/lifecycle"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RideService interface {
	List(ctx context.Context, req *request.RideSearchRequest) (*response.PaginatedResponse[response.RideResponse], error)
	Get(ctx context.Context, actor lifecycle.Actor, rideID string) (*response.RideResponse, error)
	Create(ctx context.Context, actor lifecycle.Actor, req *request.CreateRideRequest) (*response.RideResponse, error)
	Update(ctx context.Context, actor lifecycle.Actor, rideID string, req *request.UpdateRideRequest) (*response.RideResponse, error)
	Cancel(ctx context.Context, actor lifecycle.Actor, rideID string) (*response.RideResponse, error)
	Complete(ctx context.Context, actor lifecycle.Actor, rideID string) (*response.RideResponse, error)
	Participants(ctx context.Context, actor lifecycle.Actor, rideID string) ([]response.ParticipantResponse, error)
}

type rideService struct {
	repo    *repository.Repository
	manager *lifecycle.Manager
	log     *zap.Logger
}

func NewRideService(repo *repository.Repository, manager *lifecycle.Manager, log *zap.Logger) RideService {
	return &rideService{
		repo:    repo,
		manager: manager,
		log:     log.With(zap.String("service", "ride")),
	}
}

func (s *rideService) List(ctx context.Context, req *request.RideSearchRequest) (*response.PaginatedResponse[response.RideResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		return nil, apperror.Validation("date_from cannot be later than date_to")
	}

	filter := entity.RideFilter{
		Origin:      req.Origin,
		Destination: req.Destination,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		SortDesc:    req.SortBy == "date_desc",
	}
	if req.Status != "" {
		status := entity.RideStatus(req.Status)
		filter.Status = &status
	}
	if req.DriverID != "" {
		driverID, err := parseID(req.DriverID, "driver_id")
		if err != nil {
			return nil, err
		}
		driver, err := s.repo.User.FindByID(ctx, driverID)
		if err != nil {
			return nil, fmt.Errorf("failed to get driver: %w", err)
		}
		if driver == nil {
			return nil, apperror.NotFound("driver not found")
		}
		filter.DriverID = &driverID
	}

	rides, err := s.repo.Ride.Search(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to search rides: %w", err)
	}
	total, err := s.repo.Ride.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count rides: %w", err)
	}

	return response.NewPaginatedResponse(response.RidesToResponse(rides), req.Page, req.Limit(), total), nil
}

func (s *rideService) Get(ctx context.Context, actor lifecycle.Actor, rideID string) (*response.RideResponse, error) {
	ride, err := s.find(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Authorize(actor, lifecycle.ActionViewRide, lifecycle.Resource{DriverID: ride.DriverID}); err != nil {
		return nil, err
	}

	resp := response.RideToResponse(ride)
	return &resp, nil
}

func (s *rideService) Create(ctx context.Context, actor lifecycle.Actor, req *request.CreateRideRequest) (*response.RideResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	ride, err := s.manager.CreateRide(ctx, actor, lifecycle.RideDetails{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime,
		TotalSeats:    req.TotalSeats,
	})
	if err != nil {
		return nil, err
	}

	resp := response.RideToResponse(ride)
	return &resp, nil
}

func (s *rideService) Update(ctx context.Context, actor lifecycle.Actor, rideID string, req *request.UpdateRideRequest) (*response.RideResponse, error) {
	id, err := parseID(rideID, "ride id")
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	ride, err := s.manager.UpdateRide(ctx, actor, id, lifecycle.RidePatch{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime,
		TotalSeats:    req.TotalSeats,
	})
	if err != nil {
		return nil, err
	}

	resp := response.RideToResponse(ride)
	return &resp, nil
}

func (s *rideService) Cancel(ctx context.Context, actor lifecycle.Actor, rideID string) (*response.RideResponse, error) {
	return s.transition(ctx, actor, rideID, s.manager.CancelRide)
}

func (s *rideService) Complete(ctx context.Context, actor lifecycle.Actor, rideID string) (*response.RideResponse, error) {
	return s.transition(ctx, actor, rideID, s.manager.CompleteRide)
}

func (s *rideService) Participants(ctx context.Context, actor lifecycle.Actor, rideID string) ([]response.ParticipantResponse, error) {
	ride, err := s.find(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Authorize(actor, lifecycle.ActionViewParticipants, lifecycle.Resource{DriverID: ride.DriverID}); err != nil {
		return nil, err
	}

	list, err := s.repo.Ride.Participants(ctx, ride.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	return response.ParticipantsToResponse(list), nil
}

// ==================== HELPER METHODS ====================

func (s *rideService) find(ctx context.Context, rideID string) (*entity.Ride, error) {
	id, err := parseID(rideID, "ride id")
	if err != nil {
		return nil, err
	}
	ride, err := s.repo.Ride.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	if ride == nil {
		return nil, apperror.NotFound("ride not found")
	}
	return ride, nil
}

type rideTransition func(ctx context.Context, actor lifecycle.Actor, rideID uuid.UUID) (*entity.Ride, error)

func (s *rideService) transition(ctx context.Context, actor lifecycle.Actor, rideID string, fn rideTransition) (*response.RideResponse, error) {
	id, err := parseID(rideID, "ride id")
	if err != nil {
		return nil, err
	}
	ride, err := fn(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	resp := response.RideToResponse(ride)
	return &resp, nil
}

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

type ReservationService interface {
	List(ctx context.Context, actor lifecycle.Actor, req *request.ReservationListRequest) (*response.PaginatedResponse[response.ReservationResponse], error)
	Create(ctx context.Context, actor lifecycle.Actor, req *request.CreateReservationRequest) (*response.ReservationResponse, error)
	Get(ctx context.Context, actor lifecycle.Actor, reservationID string) (*response.ReservationResponse, error)
	Approve(ctx context.Context, actor lifecycle.Actor, reservationID string) (*response.ReservationResponse, error)
	Reject(ctx context.Context, actor lifecycle.Actor, reservationID string) (*response.ReservationResponse, error)
	Cancel(ctx context.Context, actor lifecycle.Actor, reservationID string) (*response.ReservationResponse, error)
}

type reservationService struct {
	repo    *repository.Repository
	manager *lifecycle.Manager
	log     *zap.Logger
}

func NewReservationService(repo *repository.Repository, manager *lifecycle.Manager, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:    repo,
		manager: manager,
		log:     log.With(zap.String("service", "reservation")),
	}
}

// List returns reservations the actor takes part in, as passenger or as the
// ride's driver. Admins see every reservation.
func (s *reservationService) List(ctx context.Context, actor lifecycle.Actor, req *request.ReservationListRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var filter entity.ReservationFilter
	if actor.Role != entity.RoleAdmin {
		userID := actor.ID
		filter.UserID = &userID
	}
	if req.RideID != "" {
		rideID, err := parseID(req.RideID, "ride_id")
		if err != nil {
			return nil, err
		}
		filter.RideID = &rideID
	}
	if req.Status != "" {
		status := entity.ReservationStatus(req.Status)
		filter.Status = &status
	}

	list, err := s.repo.Reservation.List(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	total, err := s.repo.Reservation.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count reservations: %w", err)
	}

	return response.NewPaginatedResponse(response.ReservationsToResponse(list), req.Page, req.Limit(), total), nil
}

func (s *reservationService) Create(ctx context.Context, actor lifecycle.Actor, req *request.CreateReservationRequest) (*response.ReservationResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	rideID, err := parseID(req.RideID, "ride_id")
	if err != nil {
		return nil, err
	}

	res, err := s.manager.RequestSeats(ctx, actor, rideID, req.SeatsRequested)
	if err != nil {
		return nil, err
	}

	resp := response.ReservationToResponse(res)
	return &resp, nil
}

func (s *reservationService) Get(ctx context.Context, actor lifecycle.Actor, reservationID string) (*response.ReservationResponse, error) {
	id, err := parseID(reservationID, "reservation id")
	if err != nil {
		return nil, err
	}

	res, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return nil, apperror.NotFound("reservation not found")
	}
	ride, err := s.repo.Ride.FindByID(ctx, res.RideID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	if ride == nil {
		return nil, apperror.Invariant("reservation %s points at a missing ride", res.ID)
	}

	err = lifecycle.Authorize(actor, lifecycle.ActionViewReservation, lifecycle.Resource{
		DriverID:    ride.DriverID,
		PassengerID: res.PassengerID,
	})
	if err != nil {
		return nil, err
	}

	resp := response.ReservationToResponse(res)
	return &resp, nil
}

func (s *reservationService) Approve(ctx context.Context, actor lifecycle.Actor, reservationID string) (*response.ReservationResponse, error) {
	return s.decide(ctx, actor, reservationID, s.manager.Approve)
}

func (s *reservationService) Reject(ctx context.Context, actor lifecycle.Actor, reservationID string) (*response.ReservationResponse, error) {
	return s.decide(ctx, actor, reservationID, s.manager.Reject)
}

func (s *reservationService) Cancel(ctx context.Context, actor lifecycle.Actor, reservationID string) (*response.ReservationResponse, error) {
	return s.decide(ctx, actor, reservationID, s.manager.Cancel)
}

type reservationTransition func(ctx context.Context, actor lifecycle.Actor, id uuid.UUID) (*entity.Reservation, error)

func (s *reservationService) decide(ctx context.Context, actor lifecycle.Actor, reservationID string, fn reservationTransition) (*response.ReservationResponse, error) {
	id, err := parseID(reservationID, "reservation id")
	if err != nil {
		return nil, err
	}
	res, err := fn(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	resp := response.ReservationToResponse(res)
	return &resp, nil
}

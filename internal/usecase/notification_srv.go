package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"
	"carpool-api/internal/data/repository"
	"carpool-api/internal/dto/request"
	"carpool-api/internal/dto/response"
	"carpool-api/internal/lifecycle"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	List(ctx context.Context, actor lifecycle.Actor, unreadOnly bool, page *request.PaginatedRequest) (*response.PaginatedResponse[response.NotificationResponse], error)
	Create(ctx context.Context, actor lifecycle.Actor, req *request.CreateNotificationRequest) (*response.NotificationResponse, error)
	MarkRead(ctx context.Context, actor lifecycle.Actor, notificationID string) (*response.NotificationResponse, error)
	Delete(ctx context.Context, actor lifecycle.Actor, notificationID string) error
}

type notificationService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewNotificationService(repo *repository.Repository, log *zap.Logger) NotificationService {
	return &notificationService{
		repo: repo,
		log:  log.With(zap.String("service", "notification")),
	}
}

// List returns the actor's own notifications, newest first.
func (s *notificationService) List(ctx context.Context, actor lifecycle.Actor, unreadOnly bool, page *request.PaginatedRequest) (*response.PaginatedResponse[response.NotificationResponse], error) {
	if err := validate(page); err != nil {
		return nil, err
	}

	list, err := s.repo.Notification.FindByUser(ctx, actor.ID, unreadOnly, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	total, err := s.repo.Notification.CountByUser(ctx, actor.ID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	return response.NewPaginatedResponse(response.NotificationsToResponse(list), page.Page, page.Limit(), total), nil
}

// Create stores a custom notification. Actors may notify themselves, or the
// other party of a ride they share when ride_id names it.
func (s *notificationService) Create(ctx context.Context, actor lifecycle.Actor, req *request.CreateNotificationRequest) (*response.NotificationResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if lifecycle.IsLifecycleEvent(req.EventType) {
		return nil, apperror.Invalid(map[string]string{
			"event_type": "is reserved for ride and reservation updates",
		}, "event_type is reserved")
	}

	userID, err := parseID(req.UserID, "user_id")
	if err != nil {
		return nil, err
	}
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	n := &entity.Notification{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		UserID:     userID,
		EventType:  "custom",
		Message:    strings.TrimSpace(req.Message),
	}
	if req.EventType != "" {
		n.EventType = req.EventType
	}

	target := lifecycle.Resource{OwnerID: userID}
	if req.RideID != nil {
		rideID, err := parseID(*req.RideID, "ride_id")
		if err != nil {
			return nil, err
		}
		ride, err := s.repo.Ride.FindByID(ctx, rideID)
		if err != nil {
			return nil, fmt.Errorf("failed to get ride: %w", err)
		}
		if ride == nil {
			return nil, apperror.NotFound("ride not found")
		}
		n.RideID = &rideID

		target.DriverID = ride.DriverID
		target.PassengerID, err = s.passengerOf(ctx, ride, actor.ID, userID)
		if err != nil {
			return nil, err
		}
	}

	if err := lifecycle.Authorize(actor, lifecycle.ActionCreateNotification, target); err != nil {
		s.log.Warn("Notification rejected",
			zap.String("actor_id", actor.ID.String()),
			zap.String("user_id", userID.String()))
		return nil, err
	}

	if err := s.repo.Notification.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.log.Info("NOTIFICATION_CREATED",
		zap.String("notification_id", n.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("actor_id", actor.ID.String()))

	resp := response.NotificationToResponse(n)
	return &resp, nil
}

// passengerOf returns whichever of sender and recipient holds a reservation on
// ride, or uuid.Nil when neither does.
func (s *notificationService) passengerOf(ctx context.Context, ride *entity.Ride, sender, recipient uuid.UUID) (uuid.UUID, error) {
	candidate := sender
	if sender == ride.DriverID {
		candidate = recipient
	}
	if candidate == ride.DriverID {
		return uuid.Nil, nil
	}

	count, err := s.repo.Reservation.Count(ctx, entity.ReservationFilter{RideID: &ride.ID, UserID: &candidate})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to check reservation: %w", err)
	}
	if count == 0 {
		return uuid.Nil, nil
	}
	return candidate, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor lifecycle.Actor, notificationID string) (*response.NotificationResponse, error) {
	n, err := s.owned(ctx, actor, notificationID)
	if err != nil {
		return nil, err
	}

	if !n.IsRead {
		if err := s.repo.Notification.MarkRead(ctx, n.ID); err != nil {
			return nil, fmt.Errorf("failed to mark notification read: %w", err)
		}
		n.IsRead = true
	}

	resp := response.NotificationToResponse(n)
	return &resp, nil
}

func (s *notificationService) Delete(ctx context.Context, actor lifecycle.Actor, notificationID string) error {
	n, err := s.owned(ctx, actor, notificationID)
	if err != nil {
		return err
	}

	if err := s.repo.Notification.Delete(ctx, n.ID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	s.log.Info("NOTIFICATION_DELETED", zap.String("notification_id", n.ID.String()))
	return nil
}

func (s *notificationService) owned(ctx context.Context, actor lifecycle.Actor, notificationID string) (*entity.Notification, error) {
	id, err := parseID(notificationID, "notification id")
	if err != nil {
		return nil, err
	}
	n, err := s.repo.Notification.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if n == nil {
		return nil, apperror.NotFound("notification not found")
	}
	if err := lifecycle.Authorize(actor, lifecycle.ActionManageNotification, lifecycle.Resource{OwnerID: n.UserID}); err != nil {
		return nil, err
	}
	return n, nil
}

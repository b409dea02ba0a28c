package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carpool-api/internal/data/entity"
	"carpool-api/internal/data/repository"
	"carpool-api/internal/lifecycle"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message renders the user-facing text for an event.
func Message(ev lifecycle.Event) string {
	switch ev.Type {
	case lifecycle.EventReservationCreated:
		return fmt.Sprintf("New reservation request for %d seat(s) on %s", ev.Seats, ev.Route)
	case lifecycle.EventReservationApproved:
		return fmt.Sprintf("Your reservation on %s was approved", ev.Route)
	case lifecycle.EventReservationRejected:
		return fmt.Sprintf("Your reservation on %s was rejected", ev.Route)
	case lifecycle.EventReservationCancelled:
		return fmt.Sprintf("A reservation on %s was cancelled", ev.Route)
	case lifecycle.EventRideCompleted:
		return fmt.Sprintf("Your ride %s is complete", ev.Route)
	case lifecycle.EventRideCancelled:
		return fmt.Sprintf("The ride %s was cancelled by the driver", ev.Route)
	default:
		return string(ev.Type)
	}
}

// NotificationSink stores one notification per recipient.
type NotificationSink struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewNotificationSink(repo repository.NotificationRepository) *NotificationSink {
	return &NotificationSink{repo: repo, now: time.Now}
}

func (s *NotificationSink) Name() string { return "notification" }

func (s *NotificationSink) Handle(ctx context.Context, ev lifecycle.Event) error {
	rideID := ev.RideID
	var resID *uuid.UUID
	if ev.ReservationID != uuid.Nil {
		id := ev.ReservationID
		resID = &id
	}

	for _, userID := range ev.Recipients {
		n := &entity.Notification{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: s.now(),
			},
			UserID:        userID,
			RideID:        &rideID,
			ReservationID: resID,
			EventType:     string(ev.Type),
			Message:       Message(ev),
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return fmt.Errorf("store notification for %s: %w", userID, err)
		}
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// BrokerSink publishes each event as JSON keyed by its type.
type BrokerSink struct {
	pub     Publisher
	timeout time.Duration
}

func NewBrokerSink(pub Publisher) *BrokerSink {
	return &BrokerSink{pub: pub, timeout: 5 * time.Second}
}

func (s *BrokerSink) Name() string { return "broker" }

func (s *BrokerSink) Handle(ctx context.Context, ev lifecycle.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.pub.Publish(ctx, string(ev.Type), body)
}

type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.With(zap.String("sink", "log"))}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Handle(_ context.Context, ev lifecycle.Event) error {
	s.log.Info("Lifecycle event",
		zap.String("type", string(ev.Type)),
		zap.String("ride_id", ev.RideID.String()),
		zap.String("reservation_id", ev.ReservationID.String()),
		zap.String("actor_id", ev.ActorID.String()),
		zap.Int("recipients", len(ev.Recipients)),
		zap.Time("occurred_at", ev.OccurredAt),
	)
	return nil
}

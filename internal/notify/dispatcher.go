// Package notify delivers lifecycle events to sinks in the background so the
// request that caused them never waits on delivery.
package notify

import (
	"context"
	"errors"
	"sync"

	"carpool-api/internal/lifecycle"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	eventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_events_delivered_total",
			Help: "Lifecycle events handled per sink and outcome",
		},
		[]string{"sink", "result"},
	)
	eventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carpool_events_dropped_total",
			Help: "Lifecycle events dropped because the queue was full or closed",
		},
	)
)

// Sink handles one event. Errors are logged and never retried.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev lifecycle.Event) error
}

type Dispatcher struct {
	queue  chan lifecycle.Event
	sinks  []Sink
	log    *zap.Logger
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher starts a single worker draining a queue of size buffer.
func NewDispatcher(buffer int, log *zap.Logger, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	d := &Dispatcher{
		queue: make(chan lifecycle.Event, buffer),
		sinks: sinks,
		log:   log.With(zap.String("component", "dispatcher")),
		done:  make(chan struct{}),
	}
	go d.worker()
	return d
}

// Dispatch enqueues events without blocking. Events that do not fit are dropped.
func (d *Dispatcher) Dispatch(_ context.Context, events []lifecycle.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, ev := range events {
		if d.closed {
			eventsDropped.Inc()
			d.log.Warn("Dispatcher closed, dropping event", zap.String("type", string(ev.Type)))
			continue
		}
		select {
		case d.queue <- ev:
		default:
			eventsDropped.Inc()
			d.log.Warn("Event queue full, dropping event",
				zap.String("type", string(ev.Type)),
				zap.String("ride_id", ev.RideID.String()),
			)
		}
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		for _, s := range d.sinks {
			d.deliver(s, ev)
		}
	}
}

func (d *Dispatcher) deliver(s Sink, ev lifecycle.Event) {
	defer func() {
		if r := recover(); r != nil {
			eventsDelivered.WithLabelValues(s.Name(), "panic").Inc()
			d.log.Error("Sink panicked", zap.String("sink", s.Name()), zap.Any("panic", r))
		}
	}()

	if err := s.Handle(context.Background(), ev); err != nil {
		eventsDelivered.WithLabelValues(s.Name(), "error").Inc()
		d.log.Error("Failed to deliver event",
			zap.String("sink", s.Name()),
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)
		return
	}
	eventsDelivered.WithLabelValues(s.Name(), "ok").Inc()
}

// Close stops accepting events and waits for the queue to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("dispatcher did not drain in time"), ctx.Err())
	}
}

package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Config struct {
	URL        string
	Exchange   string
	Attempts   int
	RetryDelay time.Duration
}

// Publisher sends JSON messages to one durable topic exchange.
type Publisher struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
	mu       sync.Mutex
	log      *zap.Logger
}

// Connect dials the broker, retrying while it comes up, and declares the
// exchange.
func Connect(cfg Config, log *zap.Logger) (*Publisher, error) {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 10
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 3 * time.Second
	}
	log = log.With(zap.String("component", "rabbitmq"))

	var (
		conn *amqp091.Connection
		err  error
	)
	for i := 1; i <= cfg.Attempts; i++ {
		conn, err = amqp091.Dial(cfg.URL)
		if err == nil {
			break
		}
		log.Warn("RabbitMQ not ready, retrying",
			zap.Int("attempt", i),
			zap.Int("max_attempts", cfg.Attempts),
			zap.Error(err),
		)
		time.Sleep(cfg.RetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	log.Info("Connected to RabbitMQ", zap.String("exchange", cfg.Exchange))
	return &Publisher{conn: conn, ch: ch, exchange: cfg.Exchange, log: log}, nil
}

// Publish sends body with the given routing key as a persistent message.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.log.Warn("Failed to close channel", zap.Error(err))
	}
	return p.conn.Close()
}

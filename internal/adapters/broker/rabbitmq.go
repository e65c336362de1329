package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"eventshub/internal/domain"
)

// DefaultExchange is the topic exchange change notifications are published to.
const DefaultExchange = "eventshub"

// RabbitConfig configures the change publisher. An empty URL disables publishing.
type RabbitConfig struct {
	URL        string
	Exchange   string
	Attempts   int
	RetryDelay time.Duration
}

// envelope is the message body every consumer sees.
type envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// amqpChannel is the subset of *amqp.Channel used by the publisher.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	logger   *slog.Logger
	now      func() time.Time
}

// NewRabbitPublisher dials RabbitMQ, retrying while the broker comes up, and declares a
// durable topic exchange. With an empty URL it returns a publisher that only logs.
// The returned close func releases the channel and connection.
func NewRabbitPublisher(ctx context.Context, cfg RabbitConfig, logger *slog.Logger) (domain.ChangePublisher, func() error, error) {
	if cfg.URL == "" {
		logger.Info("change notifications disabled, no broker configured")
		return noopPublisher{logger: logger}, func() error { return nil }, nil
	}
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	conn, err := dial(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	p := newRabbitPublisher(ch, cfg.Exchange, logger)
	p.conn = conn
	return p, p.close, nil
}

func newRabbitPublisher(ch amqpChannel, exchange string, logger *slog.Logger) *rabbitPublisher {
	return &rabbitPublisher{channel: ch, exchange: exchange, logger: logger, now: time.Now}
}

func dial(ctx context.Context, cfg RabbitConfig, logger *slog.Logger) (*amqp.Connection, error) {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	var err error
	for i := 1; i <= attempts; i++ {
		var conn *amqp.Connection
		if conn, err = amqp.Dial(cfg.URL); err == nil {
			return conn, nil
		}
		if i == attempts {
			break
		}
		logger.Warn("rabbitmq not reachable, retrying", "attempt", i, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("could not connect to rabbitmq after %d attempts: %w", attempts, err)
}

func (p *rabbitPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	now := p.now()
	body, err := json.Marshal(envelope{Type: routingKey, OccurredAt: now.UTC(), Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", routingKey, err)
	}
	msg := amqp.Publishing{
		ContentType:   "application/json",
		MessageId:     uuid.NewString(),
		CorrelationId: domain.RequestIDFromContext(ctx),
		DeliveryMode:  amqp.Persistent,
		Timestamp:     now,
		Body:          body,
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.logger.DebugContext(ctx, "change published", "routing_key", routingKey, "message_id", msg.MessageId)
	return nil
}

func (p *rabbitPublisher) close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

type noopPublisher struct {
	logger *slog.Logger
}

func (n noopPublisher) Publish(ctx context.Context, routingKey string, _ any) error {
	n.logger.DebugContext(ctx, "change not published, broker disabled", "routing_key", routingKey)
	return nil
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"property-valuation/models"
	"property-valuation/utils"
)

// AMQPConfig describes where lead events are published.
type AMQPConfig struct {
	URL          string
	ExchangeName string
	RoutingKey   string
	// PublishTimeout bounds each publish; zero means 5 seconds.
	PublishTimeout time.Duration
}

// AMQPPublisher emits every recorded lead as a persistent JSON message on a
// durable topic exchange, so downstream CRM consumers can pick leads up.
type AMQPPublisher struct {
	config     AMQPConfig
	connection *amqp.Connection
	channel    *amqp.Channel
}

// NewAMQPPublisher dials the broker (with retries) and declares the exchange.
func NewAMQPPublisher(ctx context.Context, cfg AMQPConfig, retry *utils.RetryConfig) (*AMQPPublisher, error) {
	if cfg.ExchangeName == "" {
		return nil, fmt.Errorf("amqp: exchange name is required")
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	var conn *amqp.Connection
	err := retry.Do(ctx, "amqp-dial", func() error {
		var err error
		conn, err = amqp.Dial(cfg.URL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.ExchangeName,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: declare exchange %q: %w", cfg.ExchangeName, err)
	}

	return &AMQPPublisher{config: cfg, connection: conn, channel: ch}, nil
}

// Write publishes one message per lead, stopping at the first failure.
func (p *AMQPPublisher) Write(leads []*models.Lead) error {
	if p.channel == nil || p.connection == nil || p.connection.IsClosed() {
		return fmt.Errorf("amqp: not connected or channel/connection is closed")
	}

	for _, l := range leads {
		msg, err := leadMessage(l)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
		err = p.channel.PublishWithContext(ctx, p.config.ExchangeName, p.config.RoutingKey, false, false, msg)
		cancel()
		if err != nil {
			return fmt.Errorf("amqp: publish lead %s: %w", l.ID, err)
		}
	}
	return nil
}

func leadMessage(l *models.Lead) (amqp.Publishing, error) {
	body, err := json.Marshal(l)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("amqp: encode lead %s: %w", l.ID, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    l.ID.String(),
		Timestamp:    l.CreatedAt,
		Type:         "valuation.lead",
		Body:         body,
	}, nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
		p.channel = nil
	}
	if p.connection != nil {
		if err := p.connection.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.connection = nil
	}
	return firstErr
}

package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shu-50/backend-CampusCrush/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Routing keys of the domain events published on the exchange
const (
	EventNotificationCreated = "notification.created"
	EventMatchCreated        = "match.created"
	EventEmailVerification   = "email.verification"
	EventEmailPasswordReset  = "email.password_reset"
)

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// EmailEvent hands a transactional email to the mailer consuming the exchange
type EmailEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Token  string `json:"token"`
	Link   string `json:"link"`
}

// MatchEvent announces a newly created match
type MatchEvent struct {
	MatchID string `json:"matchId"`
	User1ID string `json:"user1Id"`
	User2ID string `json:"user2Id"`
}

// NewPublisher builds a RabbitMQ publisher or a noop publisher when AMQP is disabled
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		log.Warn().Str("reason", "empty amqp url").Msg("RabbitMQ disabled, using noop publisher")
		return noopPublisher{}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ disabled, using noop publisher")
		return noopPublisher{}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ disabled, using noop publisher")
		_ = conn.Close()
		return noopPublisher{}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		log.Warn().Err(err).Msg("RabbitMQ disabled, using noop publisher")
		_ = ch.Close()
		_ = conn.Close()
		return noopPublisher{}
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ connected")
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		observability.IncAMQPPublishError()
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	log.Debug().Str("routing_key", routingKey).Msg("Noop publish")
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	apperrors "github.com/Proton-105/cashflow-bot/internal/errors"
)

const publishTimeout = 5 * time.Second

// channel is the part of *amqp091.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher publishes events to a durable direct exchange.
type AMQPPublisher struct {
	conn       *amqp091.Connection
	channel    channel
	exchange   string
	routingKey string
	breaker    *apperrors.CircuitBreaker
	log        *slog.Logger
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(url, exchange, routingKey string, log *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newAMQPPublisher(ch, exchange, routingKey, log)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, exchange, routingKey string, log *slog.Logger) (*AMQPPublisher, error) {
	if log == nil {
		log = slog.Default()
	}

	// durable, not auto-deleted, not internal, wait for the broker
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		breaker:    apperrors.NewCircuitBreaker(apperrors.DefaultBreakerSettings),
		log:        log,
	}, nil
}

// PublishInvoice sends the event as a persistent JSON message.
// Broker failures are retried a few times and then trip a circuit breaker.
func (p *AMQPPublisher) PublishInvoice(ctx context.Context, event InvoiceRecorded) error {
	body, err := event.JSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.EventID,
		Timestamp:    event.RecordedAt,
		Body:         body,
	}

	err = apperrors.WithRetry(ctx, apperrors.DefaultRetryPolicy, func() error {
		return p.breaker.Call(func() error {
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			defer cancel()

			if err := p.channel.PublishWithContext(pubCtx, p.exchange, p.routingKey, false, false, msg); err != nil {
				return apperrors.NewExternalAPIError("amqp", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("publish invoice event: %w", err)
	}

	p.log.DebugContext(ctx, "invoice event published",
		slog.String("event_id", event.EventID),
		slog.String("exchange", p.exchange),
	)
	return nil
}

// Close releases the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// HealthCheck fails while the connection is down or the breaker is open.
func (p *AMQPPublisher) HealthCheck(context.Context) error {
	if p.conn != nil && p.conn.IsClosed() {
		return errors.New("amqp connection is closed")
	}
	if state := p.breaker.State(); state == apperrors.BreakerOpen {
		return fmt.Errorf("amqp publisher circuit is %s", state)
	}
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type amqpConnection interface {
	Channel() (amqpChannel, error)
	IsClosed() bool
	Close() error
}

type amqpConn struct {
	*amqp.Connection
}

func (c amqpConn) Channel() (amqpChannel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialAMQP(url string) (amqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConn{conn}, nil
}

// Publisher sends events to a durable topic exchange, routed by event type.
// A channel or connection dropped by the broker is reopened on the next
// publish.
type Publisher struct {
	url      string
	dial     func(url string) (amqpConnection, error)
	exchange string
	log      *zap.Logger

	mu   sync.Mutex // guards conn and ch
	conn amqpConnection
	ch   amqpChannel
}

func NewPublisher(url, exchange string, log *zap.Logger) (*Publisher, error) {
	return newPublisher(url, exchange, dialAMQP, log)
}

func newPublisher(url, exchange string, dial func(string) (amqpConnection, error), log *zap.Logger) (*Publisher, error) {
	p := &Publisher{
		url:      url,
		dial:     dial,
		exchange: exchange,
		log:      log.With(zap.String("component", "publisher")),
	}

	if _, err := p.channel(); err != nil {
		if p.conn != nil {
			_ = p.conn.Close()
		}
		return nil, err
	}
	return p, nil
}

// channel returns an open channel, redialing and redeclaring the exchange
// when the previous one is gone. Callers hold p.mu.
func (p *Publisher) channel() (amqpChannel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		if p.conn != nil {
			p.log.Info("Reconnected to broker")
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	if p.ch != nil {
		p.log.Info("Reopened channel", zap.String("exchange", p.exchange))
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) Publish(ctx context.Context, event ReservationEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, event.Type, msg)
	// One retry when the channel died under the publish itself.
	if err != nil && p.ch != nil && p.ch.IsClosed() {
		err = p.publish(ctx, event.Type, msg)
	}
	if err != nil {
		p.log.Error("Failed to publish event",
			zap.Error(err),
			zap.String("type", event.Type),
			zap.String("reservation_id", event.ReservationID),
		)
		return fmt.Errorf("publish %s for reservation %s: %w", event.Type, event.ReservationID, err)
	}

	return nil
}

func (p *Publisher) publish(ctx context.Context, key string, msg amqp.Publishing) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		p.exchange, // exchange
		key,        // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		if err := p.ch.Close(); err != nil {
			p.log.Warn("Failed to close channel", zap.Error(err))
		}
	}
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

func newPublishing(event ReservationEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         event.Type,
		Timestamp:    event.OccurredAt.UTC(),
		Body:         body,
	}, nil
}

// NopPublisher drops events. Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }

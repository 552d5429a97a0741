package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the part of *amqp.Channel the mirror uses.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPMirror copies events onto a durable topic exchange for consumers
// outside the API (kitchen displays, notification workers). Routing keys
// look like "newOrder.tenant.<storeId>".
type AMQPMirror struct {
	mu       sync.Mutex
	ch       AMQPChannel
	exchange string
	declared bool
}

func NewAMQPMirror(ch AMQPChannel, exchange string) *AMQPMirror {
	return &AMQPMirror{ch: ch, exchange: exchange}
}

// DialAMQP connects to url and returns a mirror with its own channel.
func DialAMQP(url, exchange string) (*AMQPMirror, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("realtime: amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("realtime: amqp channel: %w", err)
	}
	closeFn := func() error {
		ch.Close()
		return conn.Close()
	}
	return NewAMQPMirror(ch, exchange), closeFn, nil
}

// RoutingKey maps an event to its routing key.
func RoutingKey(ev Event) string {
	return ev.Name + "." + strings.ReplaceAll(ev.Topic, ":", ".")
}

func (m *AMQPMirror) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("realtime: encode event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing.
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.declared {
		if err := m.ch.ExchangeDeclare(m.exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("realtime: declare exchange %s: %w", m.exchange, err)
		}
		m.declared = true
	}

	err = m.ch.PublishWithContext(ctx, m.exchange, RoutingKey(ev), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         ev.Name,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("realtime: amqp publish: %w", err)
	}
	return nil
}

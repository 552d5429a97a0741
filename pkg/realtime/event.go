// Package realtime fans order events out to subscribers of named topics.
//
// Topics are "tenant:<storeId>" for store dashboards and "order:<orderId>"
// for customers tracking one order. A Hub delivers to the subscribers of the
// current process. Publishers in this package extend delivery to other API
// instances (Redis) and to downstream consumers (RabbitMQ).
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event names sent to clients.
const (
	EventNewOrder    = "newOrder"
	EventOrderUpdate = "orderUpdate"
)

const (
	tenantPrefix = "tenant:"
	orderPrefix  = "order:"
)

// Event is one notification addressed to a topic. It is also the wire frame.
type Event struct {
	Name  string          `json:"event"`
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// NewEvent encodes data as the event payload.
func NewEvent(name, topic string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("realtime: encode %s payload: %w", name, err)
	}
	return Event{Name: name, Topic: topic, Data: raw}, nil
}

func (e Event) validate() error {
	if e.Name == "" || e.Topic == "" {
		return fmt.Errorf("realtime: event needs a name and a topic")
	}
	return nil
}

func TenantTopic(storeID string) string { return tenantPrefix + storeID }
func OrderTopic(orderID string) string  { return orderPrefix + orderID }

// TopicKind splits topic into its kind ("tenant" or "order") and id.
func TopicKind(topic string) (kind, id string, ok bool) {
	switch {
	case strings.HasPrefix(topic, tenantPrefix) && len(topic) > len(tenantPrefix):
		return "tenant", topic[len(tenantPrefix):], true
	case strings.HasPrefix(topic, orderPrefix) && len(topic) > len(orderPrefix):
		return "order", topic[len(orderPrefix):], true
	default:
		return "", "", false
	}
}

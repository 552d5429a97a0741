package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
)

// DefaultChannel is the Redis pub/sub channel shared by all API instances.
const DefaultChannel = "delivery:events"

// RedisBridge publishes events to a Redis channel and relays every event
// seen on that channel into the local hub, so subscribers connected to any
// instance receive them.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     Publisher
}

func NewRedisBridge(client *redis.Client, channel string, hub Publisher) *RedisBridge {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{client: client, channel: channel, hub: hub}
}

// Publish sends ev to every instance, this one included.
func (b *RedisBridge) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("realtime: encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("realtime: redis publish: %w", err)
	}
	return nil
}

// Run relays channel messages to the hub until ctx ends.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("realtime: redis subscribe %s: %w", b.channel, err)
	}
	logger.Info("realtime: relaying redis channel", "channel", b.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := b.relay(ctx, []byte(msg.Payload)); err != nil {
				logger.Warn("realtime: dropping redis message", "error", err)
			}
		}
	}
}

func (b *RedisBridge) relay(ctx context.Context, payload []byte) error {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("realtime: decode event: %w", err)
	}
	if err := ev.validate(); err != nil {
		return err
	}
	return b.hub.Publish(ctx, ev)
}

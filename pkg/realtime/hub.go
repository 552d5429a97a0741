package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/metrics"
)

// ErrHubClosed is returned once the hub's Run loop has exited.
var ErrHubClosed = errors.New("realtime: hub closed")

// Subscriber receives encoded event frames.
//
// Deliver must not block; it returns false when the subscriber cannot keep
// up, and the hub then drops it. Close must be idempotent.
type Subscriber interface {
	Deliver(frame []byte) bool
	Close()
}

type membership struct {
	sub   Subscriber
	topic string
	ack   chan struct{}
}

type countReq struct {
	topic string
	reply chan int
}

// Hub owns the topic membership table. All mutations and deliveries run on
// the Run goroutine, so events on one topic reach every member in publish
// order and a Join that returns before Publish is called sees that event.
type Hub struct {
	join    chan membership
	leave   chan membership
	remove  chan membership
	publish chan Event
	count   chan countReq
	done    chan struct{}

	topics map[string]map[Subscriber]struct{}
	member map[Subscriber]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		join:    make(chan membership),
		leave:   make(chan membership),
		remove:  make(chan membership),
		publish: make(chan Event),
		count:   make(chan countReq),
		done:    make(chan struct{}),
		topics:  make(map[string]map[Subscriber]struct{}),
		member:  make(map[Subscriber]map[string]struct{}),
	}
}

// Run serves the hub until ctx ends, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for sub := range h.member {
			sub.Close()
		}
		metrics.RealtimeSubscribers.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case m := <-h.join:
			h.add(m.sub, m.topic)
			close(m.ack)

		case m := <-h.leave:
			h.del(m.sub, m.topic)
			close(m.ack)

		case m := <-h.remove:
			h.drop(m.sub)
			close(m.ack)

		case ev := <-h.publish:
			h.deliver(ev)

		case req := <-h.count:
			req.reply <- len(h.topics[req.topic])
		}
	}
}

// Join subscribes sub to topic. It returns after the membership is in place.
func (h *Hub) Join(sub Subscriber, topic string) error {
	return h.send(h.join, membership{sub: sub, topic: topic, ack: make(chan struct{})})
}

// Leave unsubscribes sub from topic.
func (h *Hub) Leave(sub Subscriber, topic string) error {
	return h.send(h.leave, membership{sub: sub, topic: topic, ack: make(chan struct{})})
}

// Remove unsubscribes sub from every topic. The subscriber is not closed.
func (h *Hub) Remove(sub Subscriber) error {
	return h.send(h.remove, membership{sub: sub, ack: make(chan struct{})})
}

func (h *Hub) send(ch chan membership, m membership) error {
	select {
	case ch <- m:
	case <-h.done:
		return ErrHubClosed
	}
	select {
	case <-m.ack:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Publish delivers ev to the current members of ev.Topic.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if err := ev.validate(); err != nil {
		return err
	}
	select {
	case h.publish <- ev:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribers returns how many subscribers topic has.
func (h *Hub) Subscribers(topic string) int {
	req := countReq{topic: topic, reply: make(chan int, 1)}
	select {
	case h.count <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) add(sub Subscriber, topic string) {
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[Subscriber]struct{})
		h.topics[topic] = members
	}
	members[sub] = struct{}{}

	joined, ok := h.member[sub]
	if !ok {
		joined = make(map[string]struct{})
		h.member[sub] = joined
		metrics.RealtimeSubscribers.Inc()
	}
	joined[topic] = struct{}{}
}

func (h *Hub) del(sub Subscriber, topic string) {
	if members, ok := h.topics[topic]; ok {
		delete(members, sub)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
	if joined, ok := h.member[sub]; ok {
		delete(joined, topic)
		if len(joined) == 0 {
			delete(h.member, sub)
			metrics.RealtimeSubscribers.Dec()
		}
	}
}

func (h *Hub) drop(sub Subscriber) {
	for topic := range h.member[sub] {
		h.del(sub, topic)
	}
}

func (h *Hub) deliver(ev Event) {
	members := h.topics[ev.Topic]
	if len(members) == 0 {
		return
	}

	frame, err := json.Marshal(ev)
	if err != nil {
		logger.Error("realtime: encode frame", "event", ev.Name, "error", err)
		return
	}

	for sub := range members {
		if sub.Deliver(frame) {
			continue
		}
		logger.Warn("realtime: subscriber too slow, dropping", "topic", ev.Topic)
		metrics.RealtimeDropped.Inc()
		h.drop(sub)
		sub.Close()
	}
}

// Package sse streams realtime topics as Server-Sent Events.
//
//	router.Get("/api/orders/{id}/events", "orders.events", func(w http.ResponseWriter, r *http.Request) {
//	    sse.Serve(w, r, hub, realtime.OrderTopic(id))
//	})
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/realtime"
)

// Heartbeat is how often an idle stream sends a keepalive comment.
var Heartbeat = 25 * time.Second

// Stream is an active SSE connection to one client.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// New sets the event-stream headers. It returns nil, after answering 500,
// when w cannot flush.
func New(w http.ResponseWriter) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, flusher: flusher}
}

// Send writes a named event with pre-encoded JSON data.
func (s *Stream) Send(event string, data json.RawMessage) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Comment writes an SSE comment line.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Hub is the membership side of realtime.Hub.
type Hub interface {
	Join(sub realtime.Subscriber, topic string) error
	Remove(sub realtime.Subscriber) error
}

// Serve subscribes the request to topic and streams its events until the
// client goes away or the hub drops the subscription.
func Serve(w http.ResponseWriter, r *http.Request, hub Hub, topic string) {
	log := logger.WithCtx(r.Context())

	inbox := realtime.NewInbox(32)
	if err := hub.Join(inbox, topic); err != nil {
		http.Error(w, "realtime unavailable", http.StatusServiceUnavailable)
		return
	}
	defer func() {
		hub.Remove(inbox) //nolint:errcheck
		inbox.Close()
	}()

	stream := New(w)
	if stream == nil {
		return
	}

	ticker := time.NewTicker(Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-inbox.Done():
			return
		case <-ticker.C:
			if err := stream.Comment("ping"); err != nil {
				return
			}
		case frame := <-inbox.C():
			var ev realtime.Event
			if err := json.Unmarshal(frame, &ev); err != nil {
				log.Warn("sse: bad frame", "error", err)
				continue
			}
			if err := stream.Send(ev.Name, ev.Data); err != nil {
				return
			}
		}
	}
}

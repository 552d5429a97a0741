// Package ws serves realtime topics over WebSocket using gorilla/websocket.
//
// A client joins and leaves topics by sending text frames:
//
//	{"action":"join","topic":"order:7f3c..."}
//	{"action":"leave","topic":"order:7f3c..."}
//
// and receives event frames {"event","topic","data"} plus acknowledgements
// {"event":"joined","topic":...} or {"event":"error","topic":...,"error":...}.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/realtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// Hub is the membership side of realtime.Hub.
type Hub interface {
	Join(sub realtime.Subscriber, topic string) error
	Leave(sub realtime.Subscriber, topic string) error
	Remove(sub realtime.Subscriber) error
}

// Options configures one connection.
type Options struct {
	// AutoJoin lists topics joined as soon as the connection opens.
	AutoJoin []string
	// Authorize vets every client join. A nil Authorize allows all topics.
	Authorize func(ctx context.Context, topic string) error
}

type command struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

type reply struct {
	Event string `json:"event"`
	Topic string `json:"topic,omitempty"`
	Error string `json:"error,omitempty"`
}

// Client is one WebSocket connection. It implements realtime.Subscriber.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *Client) Deliver(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) Close() { c.once.Do(func() { close(c.done) }) }

// Serve upgrades the request and pumps the connection until it closes. It
// blocks for the lifetime of the connection so Authorize runs with the
// request context.
func Serve(w http.ResponseWriter, r *http.Request, hub Hub, opts Options) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
		return
	}

	c := &Client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	for _, topic := range opts.AutoJoin {
		if err := hub.Join(c, topic); err != nil {
			conn.Close()
			return
		}
	}

	go c.writePump()
	c.readPump(r.Context(), hub, opts)
}

func (c *Client) readPump(ctx context.Context, hub Hub, opts Options) {
	log := logger.WithCtx(ctx)
	defer func() {
		hub.Remove(c) //nolint:errcheck
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("ws: unexpected close", "error", err)
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(msg, &cmd); err != nil || cmd.Topic == "" {
			c.reply(reply{Event: "error", Error: "expected {\"action\",\"topic\"}"})
			continue
		}

		switch cmd.Action {
		case "join":
			if opts.Authorize != nil {
				if err := opts.Authorize(ctx, cmd.Topic); err != nil {
					c.reply(reply{Event: "error", Topic: cmd.Topic, Error: err.Error()})
					continue
				}
			}
			if err := hub.Join(c, cmd.Topic); err != nil {
				return
			}
			c.reply(reply{Event: "joined", Topic: cmd.Topic})
		case "leave":
			if err := hub.Leave(c, cmd.Topic); err != nil {
				return
			}
			c.reply(reply{Event: "left", Topic: cmd.Topic})
		default:
			c.reply(reply{Event: "error", Topic: cmd.Topic, Error: "unknown action"})
		}
	}
}

func (c *Client) reply(r reply) {
	frame, _ := json.Marshal(r)
	c.Deliver(frame)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))    //nolint:errcheck
			c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
			return
		}
	}
}

package ws_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/realtime"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/ws"
)

func dial(t *testing.T, hub *realtime.Hub, opts ws.Options) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.Serve(w, r, hub, opts)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func startHub(t *testing.T) *realtime.Hub {
	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestJoinThenReceive(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, ws.Options{})

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "join", "topic": "order:o1"}))
	assert.Equal(t, map[string]any{"event": "joined", "topic": "order:o1"}, read(t, conn))

	ev, err := realtime.NewEvent(realtime.EventOrderUpdate, "order:o1", map[string]string{"id": "o1"})
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), ev))

	frame := read(t, conn)
	assert.Equal(t, "orderUpdate", frame["event"])
	assert.Equal(t, "order:o1", frame["topic"])
	assert.Equal(t, map[string]any{"id": "o1"}, frame["data"])
}

func TestAutoJoin(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, ws.Options{AutoJoin: []string{"tenant:s1"}})

	require.Eventually(t, func() bool { return hub.Subscribers("tenant:s1") == 1 }, time.Second, 5*time.Millisecond)

	ev, err := realtime.NewEvent(realtime.EventNewOrder, "tenant:s1", nil)
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), ev))
	assert.Equal(t, "newOrder", read(t, conn)["event"])

	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers("tenant:s1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestAuthorizeRejectsJoin(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, ws.Options{Authorize: func(_ context.Context, topic string) error {
		return errors.New("Not authorized for this store")
	}})

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "join", "topic": "tenant:s2"}))
	frame := read(t, conn)
	assert.Equal(t, "error", frame["event"])
	assert.Equal(t, "Not authorized for this store", frame["error"])
	assert.Equal(t, 0, hub.Subscribers("tenant:s2"))
}

func TestMalformedCommand(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, ws.Options{})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	assert.Equal(t, "error", read(t, conn)["event"])

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "shout", "topic": "order:o1"}))
	assert.Equal(t, "unknown action", read(t, conn)["error"])
}

package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	mu   sync.Mutex
	docs []LogDocument
}

func (w *memoryWriter) WriteLogs(_ context.Context, docs []LogDocument) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs = append(w.docs, docs...)
	return nil
}

func (w *memoryWriter) all() []LogDocument {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]LogDocument(nil), w.docs...)
}

func TestMongoHandlerLiftsIdsAndFlushesOnClose(t *testing.T) {
	w := &memoryWriter{}
	h := newMongoHandler(w, slog.LevelInfo, 16)

	log := slog.New(h).With("request_id", "r-1")
	log.Debug("below level")
	log.Info("order placed",
		"store_id", "s-1",
		"order_id", "o-1",
		"total", "26.98",
		"error", errors.New("boom"),
		slog.Group("cart", "lines", 2),
	)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	docs := w.all()
	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Equal(t, "INFO", doc.Level)
	assert.Equal(t, "order placed", doc.Msg)
	assert.Equal(t, "r-1", doc.RequestID)
	assert.Equal(t, "s-1", doc.StoreID)
	assert.Equal(t, "o-1", doc.OrderID)
	assert.Equal(t, "26.98", doc.Attrs["total"])
	assert.Equal(t, "boom", doc.Attrs["error"])
	assert.Equal(t, int64(2), doc.Attrs["cart.lines"])
	assert.False(t, doc.Time.IsZero())
}

func TestMongoHandlerGroupsPrefixKeys(t *testing.T) {
	w := &memoryWriter{}
	h := newMongoHandler(w, slog.LevelInfo, 16)

	slog.New(h).With("request_id", "r-2").WithGroup("http").Warn("slow request", "store_id", "s-1", "status", 200)
	require.NoError(t, h.Close())

	docs := w.all()
	require.Len(t, docs, 1)
	assert.Equal(t, "r-2", docs[0].RequestID)
	assert.Empty(t, docs[0].StoreID)
	assert.Equal(t, "s-1", docs[0].Attrs["http.store_id"])
	assert.Equal(t, int64(200), docs[0].Attrs["http.status"])
}

func TestMongoHandlerDropsWhenQueueIsFull(t *testing.T) {
	// No drain goroutine, so the queue only ever holds one record.
	h := &MongoHandler{sink: &sink{queue: make(chan LogDocument, 1)}, level: slog.LevelInfo}

	log := slog.New(h)
	log.Info("first")
	log.Info("second")
	log.Info("third")

	assert.EqualValues(t, 2, h.Dropped())
	assert.Equal(t, "first", (<-h.sink.queue).Msg)
}

func TestMultiHandlerRespectsEachLevel(t *testing.T) {
	var buf bytes.Buffer
	w := &memoryWriter{}
	sinkHandler := newMongoHandler(w, slog.LevelWarn, 16)

	log := slog.New(NewMultiHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		sinkHandler,
	)).With("request_id", "r-9")

	log.Info("stage created")
	log.Warn("publish failed")
	require.NoError(t, sinkHandler.Close())

	assert.Contains(t, buf.String(), "stage created")
	assert.Contains(t, buf.String(), "publish failed")
	docs := w.all()
	require.Len(t, docs, 1)
	assert.Equal(t, "publish failed", docs[0].Msg)
	assert.Equal(t, "r-9", docs[0].RequestID)
}

func TestAttachTeesTheBaseLogger(t *testing.T) {
	saved := L
	t.Cleanup(func() {
		L = saved
		slog.SetDefault(saved)
	})

	var buf bytes.Buffer
	L = New(&buf, "local")
	w := &memoryWriter{}
	h := newMongoHandler(w, slog.LevelInfo, 16)
	Attach(h)

	Info("order status changed", "order_id", "o-7")
	require.NoError(t, h.Close())

	assert.Contains(t, buf.String(), "order status changed")
	docs := w.all()
	require.Len(t, docs, 1)
	assert.Equal(t, "o-7", docs[0].OrderID)
}

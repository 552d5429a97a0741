package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 4096
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
)

// LogDocument is one log line as stored in MongoDB. Request, store and order
// ids are lifted out of the attributes so they can be indexed.
type LogDocument struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	StoreID   string    `bson:"store_id,omitempty"`
	OrderID   string    `bson:"order_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// DocumentWriter stores one batch of log documents.
type DocumentWriter interface {
	WriteLogs(ctx context.Context, docs []LogDocument) error
}

type collectionWriter struct {
	col *mongo.Collection
}

func (w collectionWriter) WriteLogs(ctx context.Context, docs []LogDocument) error {
	batch := make([]interface{}, len(docs))
	for i := range docs {
		batch[i] = docs[i]
	}
	_, err := w.col.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
	return err
}

// sink is the queue and drain goroutine shared by a MongoHandler and every
// handler derived from it.
type sink struct {
	w       DocumentWriter
	queue   chan LogDocument
	done    chan struct{}
	drained chan struct{}
	stop    sync.Once
	dropped atomic.Int64
	client  *mongo.Client
}

// MongoHandler is an slog.Handler that batches records into a MongoDB
// collection from a background goroutine. Handle never blocks: records that
// do not fit in the queue are dropped and counted.
type MongoHandler struct {
	sink   *sink
	level  slog.Leveler
	attrs  []groupedAttr
	groups []string
}

// groupedAttr is an attribute from WithAttrs with the groups open at the time.
type groupedAttr struct {
	prefix string
	attr   slog.Attr
}

// NewMongoHandler connects to uri and logs into db.collection at level and
// above. Close flushes and disconnects.
func NewMongoHandler(ctx context.Context, uri, db, collection string, level slog.Leveler) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(10))
	if err != nil {
		return nil, fmt.Errorf("logger: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("logger: mongo ping: %w", err)
	}

	col := client.Database(db).Collection(collection)
	_, err = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "time", Value: -1}}},
		{Keys: bson.D{{Key: "store_id", Value: 1}, {Key: "time", Value: -1}}},
	})
	if err != nil {
		Warn("logger: mongo index creation failed", "error", err)
	}

	h := newMongoHandler(collectionWriter{col: col}, level, mongoQueueSize)
	h.sink.client = client
	return h, nil
}

func newMongoHandler(w DocumentWriter, level slog.Leveler, queue int) *MongoHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	s := &sink{
		w:       w,
		queue:   make(chan LogDocument, queue),
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	go s.drain()
	return &MongoHandler{sink: s, level: level}
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	doc := LogDocument{
		Time:  r.Time,
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}
	for _, ga := range h.attrs {
		doc.add(ga.prefix, ga.attr)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		doc.add(prefix, a)
		return true
	})
	if len(doc.Attrs) == 0 {
		doc.Attrs = nil
	}

	select {
	case h.sink.queue <- doc:
	default:
		h.sink.dropped.Add(1)
	}
	return nil
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	prefix := strings.Join(h.groups, ".")
	next := *h
	next.attrs = append([]groupedAttr(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, groupedAttr{prefix: prefix, attr: a})
	}
	return &next
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

// Dropped is how many records did not fit in the queue.
func (h *MongoHandler) Dropped() int64 { return h.sink.dropped.Load() }

// Close flushes queued records and disconnects. Safe to call more than once.
func (h *MongoHandler) Close() error {
	h.sink.stop.Do(func() { close(h.sink.done) })
	<-h.sink.drained
	if h.sink.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.sink.client.Disconnect(ctx)
}

// add records a at the top level when it is one of the indexed ids and no
// group is open, and under attrs otherwise.
func (d *LogDocument) add(prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	switch {
	case prefix != "" && key != "":
		key = prefix + "." + key
	case prefix != "":
		key = prefix
	default:
		switch key {
		case "request_id":
			d.RequestID = a.Value.String()
			return
		case "store_id":
			d.StoreID = a.Value.String()
			return
		case "order_id":
			d.OrderID = a.Value.String()
			return
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			d.add(key, ga)
		}
		return
	}
	switch a.Value.Kind() {
	case slog.KindDuration:
		d.Attrs[key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			d.Attrs[key] = err.Error()
			return
		}
		d.Attrs[key] = fmt.Sprint(a.Value.Any())
	default:
		d.Attrs[key] = a.Value.Any()
	}
}

func (s *sink) drain() {
	defer close(s.drained)
	ticker := time.NewTicker(mongoDrainTick)
	defer ticker.Stop()

	batch := make([]LogDocument, 0, mongoBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Logging a sink failure through slog would loop back into the sink.
		_ = s.w.WriteLogs(ctx, batch)
		batch = make([]LogDocument, 0, mongoBatchSize)
	}

	for {
		select {
		case doc := <-s.queue:
			batch = append(batch, doc)
			if len(batch) >= mongoBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			for {
				select {
				case doc := <-s.queue:
					batch = append(batch, doc)
					if len(batch) >= mongoBatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// MultiHandler sends each record to every handler that accepts its level.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}

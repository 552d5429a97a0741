package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/metrics"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/workerpool"
)

// Publisher sends an event towards its topic's subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Fanout publishes to every target and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async hands events to a worker pool so callers never wait on delivery.
// Events are keyed by topic, so one topic's events reach next in publish
// order. Events are dropped, and counted, when the topic's lane is full.
type Async struct {
	pool    *workerpool.Pool
	next    Publisher
	timeout time.Duration
}

// NewAsync runs next on pool with a per-event timeout.
func NewAsync(pool *workerpool.Pool, next Publisher, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Async{pool: pool, next: next, timeout: timeout}
}

func (a *Async) Publish(ctx context.Context, ev Event) error {
	if err := ev.validate(); err != nil {
		return err
	}
	metrics.RealtimeEvents.WithLabelValues(ev.Name).Inc()

	// The request context ends when the handler returns; keep its values only.
	base := context.WithoutCancel(ctx)
	err := a.pool.SubmitKey(ev.Topic, func() {
		pctx, cancel := context.WithTimeout(base, a.timeout)
		defer cancel()
		if err := a.next.Publish(pctx, ev); err != nil {
			logger.WithCtx(pctx).Warn("realtime: publish failed",
				"event", ev.Name, "topic", ev.Topic, "error", err)
		}
	})
	if errors.Is(err, workerpool.ErrPoolFull) {
		metrics.RealtimeDropped.Inc()
	}
	return err
}

// Package workerpool provides a bounded goroutine pool with backpressure.
//
// Submit never blocks: when the queue is full it returns ErrPoolFull and the
// caller decides whether to drop or retry. SubmitKey pins every task of a key
// to one worker so tasks sharing a key run one at a time in submission order.
// The realtime publisher keys by topic to keep delivery off the request path
// without reordering a topic's events.
//
//	pool := workerpool.New(8, 64)
//	defer pool.Shutdown()
//
//	if err := pool.Submit(func() { publish(ev) }); errors.Is(err, workerpool.ErrPoolFull) {
//	    // shed load
//	}
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime/debug"
	"sync"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
)

var (
	// ErrPoolFull is returned by Submit when the task queue is at capacity.
	ErrPoolFull = errors.New("workerpool: pool is full")
	// ErrPoolClosed is returned after Shutdown has been called.
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Pool is a fixed set of workers draining one shared task queue. Each worker
// also owns a lane that only it drains.
type Pool struct {
	tasks chan func()
	lanes []chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	stop   sync.Once
}

// New starts size workers behind a queue of depth queue. A non-positive
// queue defaults to twice the worker count. Each lane holds queue/size tasks,
// at least one.
func New(size, queue int) *Pool {
	if size <= 0 {
		size = 1
	}
	if queue <= 0 {
		queue = size * 2
	}

	depth := queue / size
	if depth < 1 {
		depth = 1
	}

	p := &Pool{
		tasks: make(chan func(), queue),
		lanes: make([]chan func(), size),
		done:  make(chan struct{}),
	}
	p.wg.Add(size)
	for i := range p.lanes {
		p.lanes[i] = make(chan func(), depth)
		go p.worker(p.lanes[i])
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitKey enqueues task on the lane of key without blocking. Tasks with
// the same key never run concurrently and start in submission order.
func (p *Pool) SubmitKey(key string, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	h := fnv.New32a()
	h.Write([]byte(key)) //nolint:errcheck
	select {
	case p.lanes[h.Sum32()%uint32(len(p.lanes))] <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until task is queued, ctx ends or the pool shuts down.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks, runs everything already queued and waits
// for the workers to exit. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.stop.Do(func() {
		// done first so blocked SubmitWait callers release the read lock.
		close(p.done)
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		for _, lane := range p.lanes {
			close(lane)
		}
		p.mu.Unlock()
	})
	p.wg.Wait()
}

func (p *Pool) worker(lane chan func()) {
	defer p.wg.Done()
	shared := p.tasks
	for shared != nil || lane != nil {
		select {
		case task, ok := <-shared:
			if !ok {
				shared = nil
				continue
			}
			run(task)
		case task, ok := <-lane:
			if !ok {
				lane = nil
				continue
			}
			run(task)
		}
	}
}

func run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	task()
}

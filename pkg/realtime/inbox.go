package realtime

import "sync"

// Inbox is a buffered Subscriber read through C. Transports (SSE, tests)
// drain it on their own goroutine.
type Inbox struct {
	c    chan []byte
	done chan struct{}
	once sync.Once
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = 16
	}
	return &Inbox{c: make(chan []byte, size), done: make(chan struct{})}
}

func (i *Inbox) Deliver(frame []byte) bool {
	select {
	case <-i.done:
		return false
	default:
	}
	select {
	case i.c <- frame:
		return true
	default:
		return false
	}
}

// C yields delivered frames.
func (i *Inbox) C() <-chan []byte { return i.c }

// Done is closed once the inbox is closed, by its owner or by the hub.
func (i *Inbox) Done() <-chan struct{} { return i.done }

func (i *Inbox) Close() { i.once.Do(func() { close(i.done) }) }

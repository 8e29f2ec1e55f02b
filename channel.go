package webcmp

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO of messages with one consumer. Sends never
// block; after close, queued messages are still delivered and then Recv
// reports the end of the stream.
type queue struct {
	mu     sync.Mutex
	items  []Message
	closed bool
	wake   chan struct{}
}

// newChannel creates a connected sender/receiver pair.
func newChannel() (*Sender, *Receiver) {
	q := &queue{wake: make(chan struct{}, 1)}
	return &Sender{q: q}, &Receiver{q: q}
}

// Sender is the producing side of an instance channel. It is safe for
// concurrent use.
type Sender struct {
	q *queue
}

// Send enqueues m. It fails only after Close.
func (s *Sender) Send(m Message) error {
	q := s.q
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrChannelClosed
	}
	q.items = append(q.items, m)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close ends the stream. Messages already queued remain deliverable.
func (s *Sender) Close() {
	q := s.q
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Receiver is the single consuming side of an instance channel.
type Receiver struct {
	q *queue
}

// Recv returns the next message. ok is false once the channel is closed and
// drained, or when ctx is done.
func (r *Receiver) Recv(ctx context.Context) (m Message, ok bool) {
	q := r.q
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			m = q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return m, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}

		select {
		case <-q.wake:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// Len returns the number of queued messages.
func (r *Receiver) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.items)
}

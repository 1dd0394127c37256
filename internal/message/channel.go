package message

import (
	"errors"
	"sync"
)

// ErrDisconnected is returned by Send once the receiver has been closed.
var ErrDisconnected = errors.New("message receiver closed")

// queue is an unbounded FIFO. Senders never block, so the simulation can
// emit any number of messages within a tick.
type queue struct {
	mu     sync.Mutex
	items  []Message
	head   int
	closed bool
}

// Sender is a cheap, copyable handle to a channel. The zero Sender is
// not connected to anything.
type Sender struct {
	q *queue
}

// Receiver drains the channel. Only the main loop holds one.
type Receiver struct {
	q *queue
}

func NewChannel() (Sender, *Receiver) {
	q := &queue{items: make([]Message, 0, 64)}
	return Sender{q: q}, &Receiver{q: q}
}

// IsZero reports whether the sender was never connected.
func (s Sender) IsZero() bool { return s.q == nil }

// Send enqueues m. Safe for concurrent use.
func (s Sender) Send(m Message) error {
	if s.q == nil {
		return ErrDisconnected
	}
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	if s.q.closed {
		return ErrDisconnected
	}
	s.q.items = append(s.q.items, m)
	return nil
}

// TryRecv pops the oldest message without blocking.
func (r *Receiver) TryRecv() (Message, bool) {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	if r.q.head >= len(r.q.items) {
		return nil, false
	}
	m := r.q.items[r.q.head]
	r.q.items[r.q.head] = nil
	r.q.head++
	if r.q.head == len(r.q.items) {
		r.q.items = r.q.items[:0]
		r.q.head = 0
	}
	return m, true
}

// Len returns the number of queued messages.
func (r *Receiver) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.items) - r.q.head
}

// Close disconnects every sender and discards queued messages.
func (r *Receiver) Close() {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	r.q.closed = true
	r.q.items = nil
	r.q.head = 0
}

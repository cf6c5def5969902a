package storage

import "sync"

// Queue is an unbounded Subscription. Publishers call Push; the subscriber
// waits on Ready and collects everything queued so far with Drain.
type Queue struct {
	mu      sync.Mutex
	pending []Event
	ready   chan struct{}
	closed  bool
	onClose func()
}

// NewQueue creates an empty queue. onClose, if non-nil, runs once when the
// queue is closed.
func NewQueue(onClose func()) *Queue {
	return &Queue{
		ready:   make(chan struct{}, 1),
		onClose: onClose,
	}
}

// Push appends an event and signals Ready. Events pushed after Close are
// discarded.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready returns a channel that receives a value whenever events are pending.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain returns and clears all pending events in publication order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	evs := q.pending
	q.pending = nil
	return evs
}

// Close stops accepting events and drops anything still pending.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.pending = nil
	q.mu.Unlock()

	if q.onClose != nil {
		q.onClose()
	}
}

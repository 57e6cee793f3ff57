// Package subscription provides the bounded outbound queue of a single connection.
package subscription

import "sync"

// Policy decides what happens when a message arrives at a full queue.
type Policy string

const (
	// DropNew discards the incoming message and keeps the queued ones.
	DropNew Policy = "drop-new"

	// DropOldest discards the oldest queued message to make room.
	DropOldest Policy = "drop-oldest"
)

// Valid reports whether the policy is known.
func (p Policy) Valid() bool {
	return p == DropNew || p == DropOldest
}

// Subscription is a bounded, non-blocking message queue. Send never blocks
// the caller; the single consumer reads from Receive.
type Subscription struct {
	mu     sync.Mutex
	queue  chan any
	policy Policy
	closed bool
}

// New creates a Subscription holding at most size messages.
func New(size int, policy Policy) *Subscription {
	if size < 1 {
		size = 1
	}
	if !policy.Valid() {
		policy = DropNew
	}
	return &Subscription{
		queue:  make(chan any, size),
		policy: policy,
	}
}

// Send enqueues message. It returns false if the subscription is closed or
// if a message had to be dropped because the queue was full.
func (s *Subscription) Send(message any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.queue <- message:
		return true
	default:
	}

	if s.policy == DropNew {
		return false
	}

	// The consumer may drain concurrently, so neither step is guaranteed to
	// find the queue in the state observed above.
	select {
	case <-s.queue:
	default:
	}
	select {
	case s.queue <- message:
	default:
	}
	return false
}

// Receive returns the channel the consumer reads from. It is closed by Close.
func (s *Subscription) Receive() <-chan any {
	return s.queue
}

// Len returns the number of queued messages.
func (s *Subscription) Len() int {
	return len(s.queue)
}

// Close closes the queue. Calling Close more than once is a no-op.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.queue)
}

// Package broker routes outbound messages to per-connection queues.
package broker

import (
	"errors"
	"fmt"
	"sync"

	"screenshare/broker/subscription"
)

// Default values for the broker.
const (
	DefaultQueueSize  = 256
	DefaultDropPolicy = subscription.DropNew
)

var (
	// ErrNoSubscriber is returned when nobody is subscribed to the detail.
	ErrNoSubscriber = errors.New("no subscriber")

	// ErrDropped is returned when the subscriber's queue rejected the message.
	ErrDropped = errors.New("message dropped")

	// ErrAlreadySubscribed is returned when the detail already has a subscriber.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrInvalidQueueSize is returned for a non-positive queue size.
	ErrInvalidQueueSize = errors.New("invalid queue size")

	// ErrInvalidDropPolicy is returned for an unknown drop policy.
	ErrInvalidDropPolicy = errors.New("invalid drop policy")
)

// Config contains the configuration for the broker.
type Config struct {
	QueueSize  int
	DropPolicy subscription.Policy
}

// Validate checks the queue size and the drop policy.
func (c Config) Validate() error {
	if c.QueueSize < 1 {
		return fmt.Errorf("must be positive, given %d: %w", c.QueueSize, ErrInvalidQueueSize)
	}
	if !c.DropPolicy.Valid() {
		return fmt.Errorf("%q: %w", c.DropPolicy, ErrInvalidDropPolicy)
	}
	return nil
}

// Broker holds one subscription per connection.
type Broker struct {
	mu     sync.RWMutex
	config Config
	subs   map[Detail]*subscription.Subscription
}

// New creates a new instance of Broker.
func New(config Config) *Broker {
	return &Broker{
		config: config,
		subs:   make(map[Detail]*subscription.Subscription),
	}
}

// Subscribe creates the outbound queue for detail.
func (b *Broker) Subscribe(detail Detail) (*subscription.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[detail]; ok {
		return nil, fmt.Errorf("%s: %w", detail, ErrAlreadySubscribed)
	}
	sub := subscription.New(b.config.QueueSize, b.config.DropPolicy)
	b.subs[detail] = sub
	return sub, nil
}

// Unsubscribe removes and closes the queue of detail if it is still sub.
func (b *Broker) Unsubscribe(detail Detail, sub *subscription.Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.subs[detail]
	if !ok || current != sub {
		return fmt.Errorf("%s: %w", detail, ErrNoSubscriber)
	}
	delete(b.subs, detail)
	sub.Close()
	return nil
}

// Publish enqueues message for detail without blocking.
func (b *Broker) Publish(detail Detail, message any) error {
	b.mu.RLock()
	sub, ok := b.subs[detail]
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s: %w", detail, ErrNoSubscriber)
	}
	if !sub.Send(message) {
		return fmt.Errorf("%s: %w", detail, ErrDropped)
	}
	return nil
}

// Len returns the number of subscribers.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

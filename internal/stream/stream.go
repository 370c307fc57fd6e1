package stream

import (
	"sync"

	"github.com/sujalbistaa/shadowspace/internal/models"
)

// EventType names the two kinds of feed events.
type EventType string

const (
	EventPostCreated EventType = "post.created"
	EventPostUpdated EventType = "post.updated"
)

// Event is a feed change. Post carries the full row as committed,
// including its version, so consumers can drop out-of-order updates.
type Event struct {
	Type EventType   `json:"type"`
	Post models.Post `json:"post"`
}

// Subscription is a cancellable handle to the event stream. Events are
// delivered on Events() from the moment of subscription; nothing emitted
// earlier is replayed.
type Subscription struct {
	ch     chan Event
	broker *Broker
	once   sync.Once
}

// Events returns the channel events arrive on. It is closed by Cancel.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Cancel removes the subscription. Once Cancel returns, no further events
// are delivered and the channel is closed.
func (s *Subscription) Cancel() {
	s.once.Do(func() { s.broker.unsubscribe(s) })
}

// Broker fans feed events out to all live subscriptions. Delivery is
// at-least-once per connected subscriber; a subscriber that cannot keep up
// with its buffer misses events rather than blocking the bus.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
	eventCh     chan Event
	stopCh      chan struct{}
	stopOnce    sync.Once
}

const (
	busBuffer        = 100
	subscriberBuffer = 50
)

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[*Subscription]struct{}),
		eventCh:     make(chan Event, busBuffer),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop shuts the broker down. Pending events are dropped.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

// Subscribe registers a new consumer and returns its handle.
func (b *Broker) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{ch: make(chan Event, subscriberBuffer), broker: b}
	b.subscribers[sub] = struct{}{}
	return sub
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub.ch)
}

// Publish enqueues an event for distribution.
func (b *Broker) Publish(event Event) {
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub.ch <- event:
		default:
			// Subscriber buffer full, skip.
		}
	}
}

package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Subscriber receives bus events. Deliver is invoked synchronously under the
// publisher's lock and must not block; returning an error (or panicking)
// removes the subscriber from the bus and closes it. Close must be
// idempotent.
type Subscriber interface {
	Deliver(event string, data []byte) error
	Close()
}

// Bus is the in-process event fanout. Subscribers are delivered to in
// subscription order; a broken subscriber is dropped without affecting the
// publisher or the remaining subscribers.
type Bus struct {
	mu   sync.Mutex
	subs []Subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds a subscriber. Re-subscribing an already present subscriber
// is a no-op.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.subs {
		if existing == s {
			return
		}
	}
	b.subs = append(b.subs, s)
}

// Unsubscribe removes a subscriber without closing it. The caller owns the
// subscriber's lifecycle; unsubscribe first, then close, so no delivery can
// race the teardown.
func (b *Bus) Unsubscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.subs {
		if existing == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// SubscriberCount returns the number of attached subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish marshals payload once and delivers the bytes to every subscriber
// in order. Subscribers that fail are removed and closed after the fanout;
// the publisher is never told.
func (b *Bus) Publish(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal event payload", "event", event, "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var broken []Subscriber
	for _, s := range b.subs {
		if err := deliver(s, event, data); err != nil {
			slog.Warn("Removing broken subscriber", "event", event, "error", err)
			broken = append(broken, s)
		}
	}

	for _, s := range broken {
		for i, existing := range b.subs {
			if existing == s {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		s.Close()
	}
}

// Reset detaches and closes every subscriber.
func (b *Bus) Reset() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

// deliver invokes Deliver with panic containment so one bad subscriber
// cannot take down the publishing operation.
func deliver(s Subscriber, event string, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked: %v", r)
		}
	}()
	return s.Deliver(event, data)
}

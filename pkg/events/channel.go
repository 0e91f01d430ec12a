package events

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrSubscriberClosed is returned by Deliver after Close; the bus reacts by
// pruning the subscriber.
var ErrSubscriberClosed = errors.New("subscriber closed")

// Envelope is one delivered event: the name and the marshaled payload bytes.
type Envelope struct {
	Event string
	Data  []byte
}

// ChannelSubscriber adapts the synchronous bus to a transport goroutine via
// a bounded channel. Deliver never blocks: when the buffer is full the event
// is dropped and counted, because a slow SSE/WebSocket client must not stall
// the core. Consumers read from Events until it is closed.
type ChannelSubscriber struct {
	ch      chan Envelope
	closed  atomic.Bool
	dropped atomic.Int64
	once    sync.Once
}

// NewChannelSubscriber creates a subscriber with the given buffer capacity.
func NewChannelSubscriber(buffer int) *ChannelSubscriber {
	return &ChannelSubscriber{ch: make(chan Envelope, buffer)}
}

// Deliver enqueues the event or drops it when the buffer is full.
func (s *ChannelSubscriber) Deliver(event string, data []byte) error {
	if s.closed.Load() {
		return ErrSubscriberClosed
	}
	select {
	case s.ch <- Envelope{Event: event, Data: data}:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// Close marks the subscriber closed and closes the Events channel. Safe to
// call more than once. Unsubscribe from the bus before closing so no
// delivery can race the channel close.
func (s *ChannelSubscriber) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
	})
}

// Events returns the receive side of the buffer.
func (s *ChannelSubscriber) Events() <-chan Envelope {
	return s.ch
}

// Dropped reports how many events were discarded due to a full buffer.
func (s *ChannelSubscriber) Dropped() int64 {
	return s.dropped.Load()
}

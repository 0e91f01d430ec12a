package e2e

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// recordedEvent is one bus event as the recorder saw it.
type recordedEvent struct {
	Event string
	Data  json.RawMessage
}

// eventRecorder subscribes directly to the bus and keeps every event in
// arrival order. Deliver runs synchronously under the core lock, so the
// recorded sequence is the authoritative publish order.
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{}
}

// Deliver implements events.Subscriber.
func (r *eventRecorder) Deliver(event string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Event: event, Data: buf})
	return nil
}

// Close implements events.Subscriber.
func (r *eventRecorder) Close() {}

// Events returns a snapshot of everything recorded so far.
func (r *eventRecorder) Events() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// EventsNamed returns the recorded events with the given name, in order.
func (r *eventRecorder) EventsNamed(name string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops everything recorded so far. Scenarios call it between stages
// so assertions see only the stage under test.
func (r *eventRecorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// WaitFor polls until an event with the given name arrives, or the timeout
// passes. It runs on the caller's goroutine.
func (r *eventRecorder) WaitFor(name string, timeout time.Duration) (recordedEvent, error) {
	return r.WaitForMatch(name, func(json.RawMessage) bool { return true }, timeout)
}

// WaitForMatch polls until an event with the given name satisfies match.
func (r *eventRecorder) WaitForMatch(name string, match func(data json.RawMessage) bool, timeout time.Duration) (recordedEvent, error) {
	deadline := time.After(timeout)
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-deadline:
			return recordedEvent{}, fmt.Errorf("timeout waiting for %q (recorded %d events)", name, len(r.Events()))
		case <-tick.C:
			for _, e := range r.EventsNamed(name) {
				if match(e.Data) {
					return e, nil
				}
			}
		}
	}
}

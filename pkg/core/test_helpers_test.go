package core

import (
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synthmob/synthmob/pkg/events"
	"github.com/synthmob/synthmob/pkg/models"
)

// testClock is a manually advanced clock for deterministic tests.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// eventSink records every bus delivery for assertions. Core tests run a
// single goroutine, so no locking is needed.
type eventSink struct {
	envelopes []events.Envelope
}

func (s *eventSink) Deliver(event string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.envelopes = append(s.envelopes, events.Envelope{Event: event, Data: cp})
	return nil
}

func (s *eventSink) Close() {}

func (s *eventSink) clear() { s.envelopes = nil }

// names lists the recorded event names in delivery order.
func (s *eventSink) names() []string {
	out := make([]string, 0, len(s.envelopes))
	for _, e := range s.envelopes {
		out = append(out, e.Event)
	}
	return out
}

// count reports how many times an event was delivered.
func (s *eventSink) count(event string) int {
	n := 0
	for _, e := range s.envelopes {
		if e.Event == event {
			n++
		}
	}
	return n
}

// last returns the payload of the most recent delivery of event.
func (s *eventSink) last(event string) ([]byte, bool) {
	for i := len(s.envelopes) - 1; i >= 0; i-- {
		if s.envelopes[i].Event == event {
			return s.envelopes[i].Data, true
		}
	}
	return nil, false
}

// decodeLast unmarshals the most recent delivery of event into out.
func decodeLast(t *testing.T, sink *eventSink, event string, out any) {
	t.Helper()
	data, ok := sink.last(event)
	require.True(t, ok, "expected a %s event on the bus", event)
	require.NoError(t, json.Unmarshal(data, out))
}

// coreFixture bundles a core wired to a recording bus with a manual clock
// and a seeded random source.
type coreFixture struct {
	core  *Core
	bus   *events.Bus
	clock *testClock
	sink  *eventSink
}

func newCoreFixture(t *testing.T, mutate ...func(*Options)) *coreFixture {
	t.Helper()
	clock := newTestClock()
	bus := events.NewBus()
	sink := &eventSink{}
	bus.Subscribe(sink)

	opts := Options{
		Clock: clock.Now,
		Rand:  rand.New(rand.NewPCG(7, 11)),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return &coreFixture{
		core:  New(bus, opts),
		bus:   bus,
		clock: clock,
		sink:  sink,
	}
}

func (f *coreFixture) register(t *testing.T, name string) models.RegisteredAgent {
	t.Helper()
	agent, err := f.core.RegisterAgent(name)
	require.NoError(t, err)
	return agent
}

// requireCode asserts that err is a core error carrying the given code.
func requireCode(t *testing.T, err error, code Code) *Error {
	t.Helper()
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	require.Equal(t, code, coreErr.Code)
	return coreErr
}

// testAgent builds a registry row for component-level tests that bypass
// the facade.
func testAgent(id, name string) *agentRecord {
	return &agentRecord{ID: id, Name: name}
}

// testRand returns a deterministic random source.
func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func intptr(v int) *int { return &v }

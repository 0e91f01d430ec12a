// Package e2e boots complete in-process synthmob instances and drives them
// over real HTTP, SSE and WebSocket connections.
package e2e

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synthmob/synthmob/pkg/api"
	"github.com/synthmob/synthmob/pkg/config"
	"github.com/synthmob/synthmob/pkg/core"
	"github.com/synthmob/synthmob/pkg/events"
)

// adminKey authorizes POST /admin/reset on test instances.
const adminKey = "e2e-admin-key"

// startInstant is the fixed simulated boot time every instance starts at.
var startInstant = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// TestApp boots a complete synthmob instance for e2e testing.
//
// The core runs on a hand-advanced clock while the scheduler keeps ticking
// in real time at a fast cadence. A test advances the clock past a deadline
// (cooldown expiry, movement completion, ritual phase end) and the next real
// tick finalizes it, so scenarios spanning simulated minutes finish in
// milliseconds.
type TestApp struct {
	Config    *config.Config
	Bus       *events.Bus
	Core      *core.Core
	Scheduler *core.Scheduler
	Server    *api.Server

	// Clock is the simulated time source the core consults.
	Clock *manualClock
	// Recorder sees every bus event in authoritative publish order.
	Recorder *eventRecorder

	BaseURL string // e.g. "http://127.0.0.1:54321"
	WSURL   string // e.g. "ws://127.0.0.1:54321/ws"

	t *testing.T
}

// testAppConfig holds options accumulated before creating the TestApp.
type testAppConfig struct {
	cfg       *config.Config
	ritual    core.RitualConfig
	tickEvery time.Duration
	seed      uint64
}

// TestAppOption configures the test app.
type TestAppOption func(*testAppConfig)

// WithConfig sets a custom config.
func WithConfig(cfg *config.Config) TestAppOption {
	return func(c *testAppConfig) { c.cfg = cfg }
}

// WithRitualConfig sets the voting-cycle cadence. Scenarios that drive the
// ritual pick short phases so the simulated advances stay well inside the
// five-minute presence window.
func WithRitualConfig(rc core.RitualConfig) TestAppOption {
	return func(c *testAppConfig) { c.ritual = rc }
}

// WithTickCadence sets the scheduler's real tick period.
func WithTickCadence(d time.Duration) TestAppOption {
	return func(c *testAppConfig) { c.tickEvery = d }
}

// WithSeed sets the core's random seed. The default makes spawn points and
// random epoch rolls reproducible across runs.
func WithSeed(seed uint64) TestAppOption {
	return func(c *testAppConfig) { c.seed = seed }
}

// NewTestApp creates and starts a full synthmob test instance.
// Shutdown is registered via t.Cleanup automatically.
func NewTestApp(t *testing.T, opts ...TestAppOption) *TestApp {
	t.Helper()

	// Apply options.
	tc := &testAppConfig{
		ritual:    core.DefaultRitualConfig(),
		tickEvery: 15 * time.Millisecond,
		seed:      1,
	}
	for _, opt := range opts {
		opt(tc)
	}
	if tc.cfg == nil {
		tc.cfg = defaultTestConfig()
	}
	tc.cfg.Wayfinding.TickInterval = tc.tickEvery

	clock := newManualClock(startInstant)
	recorder := newEventRecorder()

	// 1. Event bus, with the recorder attached before anything publishes.
	bus := events.NewBus()
	bus.Subscribe(recorder)

	// 2. Coordination core on the simulated clock.
	coordination := core.New(bus, core.Options{
		Ritual: tc.ritual,
		Clock:  clock.Now,
		Rand:   rand.New(rand.NewPCG(tc.seed, tc.seed>>1)),
	})

	// 3. Scheduler with fast real ticks.
	scheduler := core.NewSchedulerWithCadence(coordination, tc.tickEvery, tc.tickEvery)
	scheduler.Start(context.Background())

	// 4. HTTP server on a random port.
	server := api.NewServer(tc.cfg, coordination, bus)
	server.SetReadyCheck(scheduler.Running)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = server.StartWithListener(ln)
	}()

	addr := ln.Addr().String()
	app := &TestApp{
		Config:    tc.cfg,
		Bus:       bus,
		Core:      coordination,
		Scheduler: scheduler,
		Server:    server,
		Clock:     clock,
		Recorder:  recorder,
		BaseURL:   fmt.Sprintf("http://%s", addr),
		WSURL:     fmt.Sprintf("ws://%s/ws", addr),
		t:         t,
	}

	// Teardown mirrors the binary's shutdown order: stop the scheduler,
	// detach stream subscribers so their handlers return, then drain HTTP.
	t.Cleanup(func() {
		scheduler.Stop()
		bus.Reset()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	})

	return app
}

// defaultTestConfig creates the accelerated config test instances run with.
// Tests typically override timings via WithRitualConfig rather than here.
func defaultTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.ResetAdminKey = adminKey
	// Keep SSE heartbeats out of scenario windows.
	cfg.Server.HeartbeatInterval = time.Minute
	return cfg
}

package core

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// WayfindingTickInterval is the arrival finalization cadence.
	WayfindingTickInterval = 500 * time.Millisecond
	// RitualCheckInterval is the phase deadline check cadence. Phase ends
	// are absolute timestamps, so a late check only delays the transition.
	RitualCheckInterval = time.Second
)

// Scheduler drives the core's two background cadences: the wayfinding
// arrival tick and the ritual phase check. Both calls acquire the core
// lock internally.
type Scheduler struct {
	core        *Core
	tickEvery   time.Duration
	ritualEvery time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	running     atomic.Bool
}

// NewScheduler creates a scheduler on the production cadence.
func NewScheduler(core *Core) *Scheduler {
	return NewSchedulerWithCadence(core, WayfindingTickInterval, RitualCheckInterval)
}

// NewSchedulerWithCadence creates a scheduler with explicit tick periods.
// Zero or negative periods fall back to the production cadence.
func NewSchedulerWithCadence(core *Core, tickEvery, ritualEvery time.Duration) *Scheduler {
	if tickEvery <= 0 {
		tickEvery = WayfindingTickInterval
	}
	if ritualEvery <= 0 {
		ritualEvery = RitualCheckInterval
	}
	return &Scheduler{
		core:        core,
		tickEvery:   tickEvery,
		ritualEvery: ritualEvery,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the scheduling loop in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	s.running.Store(true)
	go s.run(ctx)
}

// Stop signals the loop to stop and waits for it to finish.
// It is safe to call Stop multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// Running reports whether the scheduling loop is active. The readiness
// probe consults this.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	defer s.running.Store(false)

	slog.Info("Scheduler started", "wayfinding_tick", s.tickEvery, "ritual_check", s.ritualEvery)

	moveTicker := time.NewTicker(s.tickEvery)
	defer moveTicker.Stop()
	ritualTicker := time.NewTicker(s.ritualEvery)
	defer ritualTicker.Stop()

	for {
		select {
		case <-s.stopCh:
			slog.Info("Scheduler shutting down")
			return
		case <-ctx.Done():
			slog.Info("Context cancelled, scheduler shutting down")
			return
		case <-moveTicker.C:
			s.core.TickWayfinding()
		case <-ritualTicker.C:
			s.core.StepRitual()
		}
	}
}

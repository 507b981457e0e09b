package harness

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/adamcrespi/freertos-538/edf"
)

// TickSource drives Kernel.Tick at a fixed wall-clock (or, in tests,
// fake-clock) rate. This is the out-of-scope "tick source" collaborator
// spec.md §1 says the core requires but does not define; here it is a
// thin wrapper over benbjohnson/clock so tests can advance time
// deterministically instead of sleeping real wall-clock intervals,
// mirroring the ticker-driven loops in
// control_plane/coordination/janitor.go and
// fluxforge/agent/heartbeat.go.
type TickSource struct {
	kernel   *edf.Kernel
	delayed  edf.DelayedList
	clock    clock.Clock
	period   time.Duration
	tick     edf.Tick
	log      zerolog.Logger
}

// NewTickSource builds a tick source over kernel, ticking every period
// according to clk (use clock.New() for real time, clock.NewMock() in
// tests).
func NewTickSource(kernel *edf.Kernel, delayed edf.DelayedList, clk clock.Clock, period time.Duration, log zerolog.Logger) *TickSource {
	return &TickSource{
		kernel:  kernel,
		delayed: delayed,
		clock:   clk,
		period:  period,
		log:     log.With().Str("component", "tick_source").Logger(),
	}
}

// Run ticks the kernel until ctx is cancelled.
func (t *TickSource) Run(ctx context.Context) {
	ticker := t.clock.Ticker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick++
			t.kernel.Tick(t.tick, t.delayed)
		}
	}
}

// CurrentTick reports the last tick number delivered to the kernel.
func (t *TickSource) CurrentTick() edf.Tick {
	return t.tick
}

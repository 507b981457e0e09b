package edf

import (
	"github.com/rs/zerolog"
)

// DelayedList is the "delayed-list data structure keyed by wake time"
// the core requires from its kernel collaborators (spec §1). The
// release engine only needs to pull jobs due at a given tick and file
// a suspending job away; how the structure is organized internally
// (sorted list, timer wheel, ...) is the collaborator's business.
type DelayedList interface {
	// PopDue removes and returns, in deterministic (registry) order,
	// every job whose wake tick is exactly tick (spec §4.D boundary
	// behavior: ties on the same wake tick use registry order).
	PopDue(tick Tick) []*Job
	// Add files job away to be returned by a future PopDue(wakeTick).
	Add(job *Job, wakeTick Tick)
}

// ReleaseEngine is the tick-driven machinery that wakes delayed jobs
// and advances their deadlines (spec §4.D). Modeled on the
// ticker-driven scan-and-act loops in
// control_plane/coordination/agent_monitor.go and
// control_plane/coordination/janitor.go, adapted from "scan on a
// timer" to "scan on every tick, driven by the kernel's tick
// handler" — the release engine itself holds no goroutine or ticker;
// it is invoked synchronously from Kernel.Tick so it shares the same
// critical section as the ready-set mutation (spec §5). The
// preemption check (step 4 of spec §4.D) is run by the caller
// (Kernel.Tick) against the jobs this returns, keeping the dispatcher
// decision in one place (edf.Dispatcher) instead of duplicated here.
type ReleaseEngine struct {
	readySet *ReadySet
	log      zerolog.Logger
}

// NewReleaseEngine wires a release engine over the given ready set.
func NewReleaseEngine(readySet *ReadySet, log zerolog.Logger) *ReleaseEngine {
	return &ReleaseEngine{
		readySet: readySet,
		log:      log.With().Str("component", "release").Logger(),
	}
}

// Tick processes every job in delayed whose wake time is tick: removes
// it, refreshes its deadline fields if EDF, and inserts it into the
// ready set. Returns the released jobs in the order they were
// released, for the caller to run the preemption check against.
func (e *ReleaseEngine) Tick(tick Tick, delayed DelayedList) []*Job {
	due := delayed.PopDue(tick)
	for _, job := range due {
		if job.IsEDF {
			// Rationale (spec §4.D): advance from the wake point, not
			// at the prior sleep call, so a job that finished early
			// can never re-enter ready with an already-stale deadline.
			job.ReleaseTime = job.NextRelease
			job.AbsDeadline = job.NextRelease + job.Params.D
			job.NextRelease = job.NextRelease + job.Params.T
			job.MissedThisJob = false
		}
		e.readySet.Insert(job)
		e.log.Debug().
			Int("task", int(job.Task)).
			Uint64("tick", uint64(tick)).
			Uint64("abs_deadline", uint64(job.AbsDeadline)).
			Msg("job released")
	}
	return due
}

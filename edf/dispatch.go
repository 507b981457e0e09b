package edf

import (
	"github.com/rs/zerolog"
)

// EDFBand is the conventional single EDF priority band (spec §4.E.1).
// Level 0 is reserved for the idle task, exactly as the stock
// scheduler's legacy priority bands are laid out.
const EDFBand = 1

// SwitchRequest is what the dispatcher hands back to the kernel when
// a context switch is warranted. The kernel (not the dispatcher) owns
// the actual context-switch primitive, which is out of scope for the
// core (spec §1); the dispatcher only decides.
type SwitchRequest struct {
	Requested bool
	Next      *Job
}

// Dispatcher selects the minimum-deadline ready job on a context
// switch, and decides whether a waking job should preempt the running
// one (spec §4.E). Modeled on the dispatch decisions in
// control_plane/scheduler/scheduler.go's processNextTask/worker: a
// small, total (never-failing) decision function plus an optional
// pair of trace-hook callbacks.
type Dispatcher struct {
	readySet *ReadySet

	// OnSwitchIn/OnSwitchOut are the pure callback hooks spec §6
	// describes (on_switch_in/on_switch_out): absence means no-op,
	// and they must never call back into the core.
	OnSwitchIn  func(TaskID)
	OnSwitchOut func(TaskID)

	log zerolog.Logger
}

// NewDispatcher wires a dispatcher over readySet.
func NewDispatcher(readySet *ReadySet, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{readySet: readySet, log: log.With().Str("component", "dispatch").Logger()}
}

// Select returns the task to run at the given priority band. At
// EDFBand it is the head of the ready set; any other band falls back
// to the stock round-robin policy, which this core does not
// implement (spec §1 out of scope) — callers pass their own
// legacyNext for non-EDF bands.
func (d *Dispatcher) Select(band int, legacyNext func() *Job) *Job {
	if band == EDFBand {
		return d.readySet.PeekMin()
	}
	if legacyNext != nil {
		return legacyNext()
	}
	return nil
}

// RunningInfo describes the job currently executing. OnJobReady does
// not take it; it takes the running *Job directly, and treats a nil
// *Job (no task running yet, e.g. at boot) as "nothing to preempt".
type RunningInfo struct {
	Job   *Job
	IsEDF bool
}

// OnJobReady implements the preemption decision (spec §4.E.2) for a
// job that just became ready (release, unblock, or first release
// post-admission). It is edge-triggered: the running job is never
// preempted unless this comparison says so.
func (d *Dispatcher) OnJobReady(waking *Job, running *Job) SwitchRequest {
	if running == nil {
		return SwitchRequest{Requested: true, Next: waking}
	}

	switch {
	case !running.IsEDF && waking.IsEDF:
		// Legacy running task, EDF waking task: EDF always occupies a
		// higher priority band than any legacy task (spec §4.E.2).
		return d.request(waking)

	case running.IsEDF && waking.IsEDF:
		if waking.AbsDeadline < running.AbsDeadline {
			return d.request(waking)
		}
		// Equal or later deadlines never preempt: favor progress of
		// the running job (spec §4.E.2).
		return SwitchRequest{}

	case running.IsEDF && !waking.IsEDF:
		// Running EDF job is never preempted by a lower, non-EDF band.
		return SwitchRequest{}

	default: // both non-EDF
		// Legacy priority comparison is the collaborator's business;
		// the core makes no decision here.
		return SwitchRequest{}
	}
}

func (d *Dispatcher) request(next *Job) SwitchRequest {
	d.log.Debug().Int("task", int(next.Task)).Uint64("abs_deadline", uint64(next.AbsDeadline)).Msg("preemption requested")
	return SwitchRequest{Requested: true, Next: next}
}

// SwitchIn/SwitchOut invoke the trace hooks if set, matching spec §6's
// "pure callbacks with no return value" contract.
func (d *Dispatcher) SwitchIn(task TaskID) {
	if d.OnSwitchIn != nil {
		d.OnSwitchIn(task)
	}
}

func (d *Dispatcher) SwitchOut(task TaskID) {
	if d.OnSwitchOut != nil {
		d.OnSwitchOut(task)
	}
}

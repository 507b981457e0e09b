package edf

import (
	"sync"

	"github.com/rs/zerolog"
)

// TaskHandle is the opaque handle returned by CreateTask (spec §6).
type TaskHandle struct {
	ID   TaskID
	Name string
}

// Kernel is the single scheduler-context handle spec §9 calls for:
// "implementations in a language without ambient globals must pass a
// single scheduler context handle explicitly". It owns the registry,
// ready set, admission controller, release engine, dispatcher and
// miss monitor, and serializes every mutation through one mutex — the
// "mutex-equivalent primitive" spec §5/§9 says is sufficient on a
// uniprocessor, with no lock hierarchy.
//
// Kernel itself never spawns goroutines or blocks a caller: that is
// the out-of-scope TCB fabric's job (see package harness for a
// simulation of it). Kernel only makes decisions and mutates the
// core's own data structures.
type Kernel struct {
	mu sync.Mutex

	registry   *Registry
	readySet   *ReadySet
	admission  *AdmissionController
	release    *ReleaseEngine
	dispatcher *Dispatcher
	monitor    *MissMonitor

	currentTick Tick
	running     *Job

	// edfEnabled mirrors spec §6's configUSE_EDF_SCHEDULER compile-time
	// switch. When false, CreateTask always fails (NotSchedulable for
	// otherwise valid parameters) and Tick returns without releasing
	// jobs or running the miss monitor: the surrounding kernel is expected to
	// have reverted to unsorted tail append / round-robin dispatch on
	// its own, per spec.
	edfEnabled bool

	// onRelease, if set, fires once per job released by the tick
	// handler — separate from the dispatcher's trace hooks, this is
	// the signal the TCB harness uses to wake a suspended goroutine.
	onRelease func(job *Job)

	log zerolog.Logger
}

// Config bundles the compile-time-equivalent knobs the spec treats as
// a single switch plus the sizing constants the rest of the core
// needs (registry capacity, tick rate for the PDA horizon cap).
type Config struct {
	EDFEnabled        bool
	RegistryCapacity  int
	TickRateHz        Tick
}

// NewKernel constructs a Kernel with fresh, empty core state.
func NewKernel(cfg Config, log zerolog.Logger) *Kernel {
	readySet := NewReadySet()
	k := &Kernel{
		registry:   NewRegistry(cfg.RegistryCapacity),
		readySet:   readySet,
		admission:  NewAdmissionController(cfg.TickRateHz, log),
		release:    NewReleaseEngine(readySet, log),
		dispatcher: NewDispatcher(readySet, log),
		monitor:    NewMissMonitor(readySet, log),
		edfEnabled: cfg.EDFEnabled,
		log:        log.With().Str("component", "kernel").Logger(),
	}
	return k
}

// SetTraceHooks installs the on_switch_in/on_switch_out callbacks
// (spec §6).
func (k *Kernel) SetTraceHooks(onIn, onOut func(TaskID)) {
	k.dispatcher.OnSwitchIn = onIn
	k.dispatcher.OnSwitchOut = onOut
}

// SetOnRelease installs the release-notification hook the TCB harness
// uses to wake a suspended goroutine when its job becomes ready again.
func (k *Kernel) SetOnRelease(f func(job *Job)) {
	k.onRelease = f
}

// SetOnMiss installs the deadline-miss callback (spec §4.F), forwarded
// directly to the miss monitor.
func (k *Kernel) SetOnMiss(f func(job *Job, tick Tick)) {
	k.monitor.SetOnMiss(f)
}

// Enabled reports the configUSE_EDF_SCHEDULER equivalent (spec §6).
func (k *Kernel) Enabled() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.edfEnabled
}

// Running returns the job the kernel currently believes is executing,
// or nil.
func (k *Kernel) Running() *Job {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// CreateTask is the create_edf_task entry point (spec §6). It runs
// admission against the current registry snapshot; on accept it
// appends to the registry, releases the task's first job at the
// current tick (so its first absolute deadline is currentTick+D), and
// inserts it into the ready set via the same path a periodic release
// would use. On reject, the registry, ready set and delayed structure
// are left exactly as they were (spec §7 partial-failure invariant):
// CreateTask mutates nothing before the accept decision is final.
func (k *Kernel) CreateTask(name string, params TaskParams) (*TaskHandle, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.edfEnabled {
		return nil, &NotSchedulableError{Params: params, Test: "disabled", Detail: "configUSE_EDF_SCHEDULER is off"}
	}

	snapshot := k.registry.Snapshot()
	decision := k.admission.Admit(snapshot, params)
	if !decision.Accept {
		return nil, &NotSchedulableError{Params: params, Test: decision.Test, Detail: decision.Detail}
	}

	id, err := k.registry.Add(params)
	if err != nil {
		return nil, err
	}

	job := &Job{
		Task:        id,
		Params:      params,
		ReleaseTime: k.currentTick,
		AbsDeadline: k.currentTick + params.D,
		NextRelease: k.currentTick + params.T,
		IsEDF:       true,
	}
	k.readySet.Insert(job)
	sw := k.dispatcher.OnJobReady(job, k.running)
	k.applySwitch(sw)

	return &TaskHandle{ID: id, Name: name}, nil
}

// Suspend implements the delay_until_next_period contract's core-side
// half (spec §6): the caller's job leaves the ready set and is filed
// into delayed keyed by its NextRelease tick. If the suspending job
// was the running job, the kernel immediately dispatches the next EDF
// job (if any) so there is never a tick where "running" is stale.
func (k *Kernel) Suspend(job *Job, delayed DelayedList) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.readySet.Remove(job)
	delayed.Add(job, job.NextRelease)

	if k.running == job {
		k.dispatcher.SwitchOut(job.Task)
		k.running = nil
		next := k.dispatcher.Select(EDFBand, nil)
		if next != nil {
			k.running = next
			k.dispatcher.SwitchIn(next.Task)
		}
	}
}

// Tick is the periodic tick handler (spec §4.D, §4.F): it releases
// every delayed job due at tick, runs the preemption check for each,
// and then runs the deadline-miss monitor over the resulting ready
// set. It is total — it never returns an error (spec §7).
func (k *Kernel) Tick(tick Tick, delayed DelayedList) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.edfEnabled {
		return
	}

	k.currentTick = tick
	released := k.release.Tick(tick, delayed)
	for _, job := range released {
		if k.onRelease != nil {
			k.onRelease(job)
		}
		sw := k.dispatcher.OnJobReady(job, k.running)
		k.applySwitch(sw)
	}

	k.monitor.Check(tick, k.running)
}

// applySwitch performs the context-switch bookkeeping the dispatcher
// requested: invoking the trace hooks and updating the running
// pointer. The actual context-switch primitive (resuming a suspended
// goroutine/thread) is the TCB harness's responsibility; Kernel only
// tracks which job it believes is running.
func (k *Kernel) applySwitch(sw SwitchRequest) {
	if !sw.Requested || sw.Next == k.running {
		return
	}
	if k.running != nil {
		k.dispatcher.SwitchOut(k.running.Task)
	}
	k.running = sw.Next
	k.dispatcher.SwitchIn(sw.Next.Task)
}

// TestAdmission is the §6 test helper: given a candidate, it returns
// both the LL-bound and PDA decisions against the current registry
// snapshot without mutating any state.
func (k *Kernel) TestAdmission(candidate TaskParams) (ll, pda AdmissionDecision) {
	snapshot := k.registry.Snapshot()
	return k.admission.TestAdmission(snapshot, candidate)
}

// Registry exposes the read-only registry view (used by the demo
// server and history store; never mutated outside CreateTask/Remove).
func (k *Kernel) Registry() *Registry { return k.registry }

// ReadySet exposes the ready set for snapshot/telemetry purposes.
func (k *Kernel) ReadySet() *ReadySet { return k.readySet }

// RemoveTask deletes a task from the registry (spec §1 extension
// point: append-only core, deletion MAY simply drop a registry entry
// with no re-admission check of the remaining set). Any job for the
// task currently in the ready set is also dropped; in-flight
// deadline-miss bookkeeping for it is discarded, per spec §5.
func (k *Kernel) RemoveTask(id TaskID) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.running != nil && k.running.Task == id {
		k.running = nil
	}
	for _, job := range k.readySet.Jobs() {
		if job.Task == id {
			k.readySet.Remove(job)
		}
	}
	return k.registry.Remove(id)
}

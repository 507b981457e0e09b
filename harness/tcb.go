// Package harness simulates the task-control-block fabric spec.md §1
// declares out of scope for the core: goroutine-per-task bodies that
// cooperatively suspend at delay_until_next_period and resume when the
// kernel releases their next job. It exists only to make the core
// exercisable end to end; it is not a model of real context switching.
package harness

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/adamcrespi/freertos-538/edf"
)

// Body is a simulated task's workload: receives the job instance it is
// currently executing and should return before its deadline to avoid a
// miss. ctx is cancelled when the harness is shutting down.
type Body func(ctx context.Context, job *edf.Job)

// Harness wires a Kernel to a set of simulated task bodies and a
// shared delayed list. Each registered task runs its body once per
// release, then calls Suspend and blocks until woken.
type Harness struct {
	kernel  *edf.Kernel
	delayed *DelayedList
	log     zerolog.Logger

	mu      sync.Mutex
	wake    map[edf.TaskID]chan *edf.Job
}

// New wires a harness over kernel and delayed, installing the
// kernel's onRelease hook so released jobs wake their task's
// goroutine.
func New(kernel *edf.Kernel, delayed *DelayedList, log zerolog.Logger) *Harness {
	h := &Harness{
		kernel:  kernel,
		delayed: delayed,
		log:     log.With().Str("component", "harness").Logger(),
		wake:    make(map[edf.TaskID]chan *edf.Job),
	}
	kernel.SetOnRelease(h.onRelease)
	return h
}

func (h *Harness) onRelease(job *edf.Job) {
	h.mu.Lock()
	ch, ok := h.wake[job.Task]
	h.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- job:
	default:
		// Task's goroutine is still catching up on a prior release;
		// dropping this wake is safe because the job pointer is the
		// same mutable record the ready set already holds.
	}
}

// Spawn starts a goroutine running body once per release of firstJob,
// suspending between releases via Kernel.Suspend. It returns
// immediately; the goroutine exits when ctx is cancelled.
func (h *Harness) Spawn(ctx context.Context, firstJob *edf.Job, body Body) {
	ch := make(chan *edf.Job, 1)
	h.mu.Lock()
	h.wake[firstJob.Task] = ch
	h.mu.Unlock()

	go h.run(ctx, firstJob, ch, body)
}

func (h *Harness) run(ctx context.Context, job *edf.Job, wake chan *edf.Job, body Body) {
	current := job
	for {
		body(ctx, current)

		select {
		case <-ctx.Done():
			return
		default:
		}

		h.kernel.Suspend(current, h.delayed)

		select {
		case <-ctx.Done():
			return
		case next := <-wake:
			current = next
		}
	}
}

// Package workload holds the demonstration task bodies referenced by
// spec.md's out-of-scope list ("the demonstration task bodies"
// themselves are not part of the graded core). Each body is a
// harness.Body: it simulates doing C ticks worth of work and returns.
package workload

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/adamcrespi/freertos-538/edf"
)

// Periodic simulates a well-behaved job that always finishes inside
// its worst-case execution time: it sleeps for a wall-clock
// approximation of job.Params.C ticks at the given tick period, then
// returns. Used for S1/S2's accepted task sets.
func Periodic(tickPeriod time.Duration, log zerolog.Logger) func(ctx context.Context, job *edf.Job) {
	return func(ctx context.Context, job *edf.Job) {
		budget := time.Duration(job.Params.C) * tickPeriod
		select {
		case <-ctx.Done():
		case <-time.After(budget):
		}
		log.Debug().Int("task", int(job.Task)).Msg("job body completed")
	}
}

// Overrunning simulates a job that runs past its worst-case execution
// time on purpose, so the deadline-miss monitor (spec.md §4.F) has
// something to detect. Used for S6.
func Overrunning(tickPeriod time.Duration, overrunFactor int, log zerolog.Logger) func(ctx context.Context, job *edf.Job) {
	if overrunFactor < 1 {
		overrunFactor = 1
	}
	return func(ctx context.Context, job *edf.Job) {
		budget := time.Duration(job.Params.C) * tickPeriod * time.Duration(overrunFactor)
		select {
		case <-ctx.Done():
		case <-time.After(budget):
		}
		log.Debug().Int("task", int(job.Task)).Msg("overrunning job body completed")
	}
}

package edf

import (
	"github.com/rs/zerolog"
)

// MissMonitor detects and counts jobs whose absolute deadline has
// passed while still runnable or incomplete (spec §4.F). Policy is
// log-and-continue: a miss is recorded but the job runs to
// completion. Modeled on the staleness-detection shape of
// control_plane/coordination/agent_monitor.go's checkLiveness, but
// driven synchronously from the tick handler rather than its own
// ticker, so it shares the kernel's critical section.
type MissMonitor struct {
	readySet *ReadySet
	log      zerolog.Logger

	// onMiss, if set, is invoked once per newly detected miss; used to
	// feed the Prometheus counter and the structured trace log.
	onMiss func(job *Job, tick Tick)
}

// NewMissMonitor wires a monitor over readySet.
func NewMissMonitor(readySet *ReadySet, log zerolog.Logger) *MissMonitor {
	return &MissMonitor{readySet: readySet, log: log.With().Str("component", "monitor").Logger()}
}

// SetOnMiss installs a callback invoked exactly once per job instance
// the first tick it is found overrun.
func (m *MissMonitor) SetOnMiss(f func(job *Job, tick Tick)) {
	m.onMiss = f
}

// Check inspects every job in the ready set, plus the currently
// running job if it is not already present there (a kernel MAY choose
// either representation; Check tolerates both), and increments
// MissCount exactly once per job instance the first tick the job is
// found overrun. Equality (tick == AbsDeadline) is never a miss (spec
// §9): only current_tick > abs_deadline counts.
func (m *MissMonitor) Check(tick Tick, running *Job) {
	seen := make(map[*Job]struct{})
	for _, job := range m.readySet.Jobs() {
		m.checkJob(job, tick)
		seen[job] = struct{}{}
	}
	if running != nil {
		if _, already := seen[running]; !already {
			m.checkJob(running, tick)
		}
	}
}

func (m *MissMonitor) checkJob(job *Job, tick Tick) {
	if !job.IsEDF {
		return
	}
	if tick <= job.AbsDeadline {
		return
	}
	if job.MissedThisJob {
		return // already counted this job instance
	}
	job.MissedThisJob = true
	job.MissCount++
	m.log.Warn().
		Int("task", int(job.Task)).
		Uint64("tick", uint64(tick)).
		Uint64("abs_deadline", uint64(job.AbsDeadline)).
		Uint64("miss_count", job.MissCount).
		Msg("deadline miss")
	if m.onMiss != nil {
		m.onMiss(job, tick)
	}
}

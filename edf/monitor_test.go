package edf

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestMonitorCountsMissExactlyOnce(t *testing.T) {
	rs := NewReadySet()
	job := &Job{Task: 1, IsEDF: true, AbsDeadline: 100}
	rs.Insert(job)

	m := NewMissMonitor(rs, zerolog.Nop())
	m.Check(101, nil)
	m.Check(102, nil)
	m.Check(103, nil)

	if job.MissCount != 1 {
		t.Fatalf("expected exactly one miss recorded across repeated ticks, got %d", job.MissCount)
	}
}

func TestMonitorEqualDeadlineIsNotAMiss(t *testing.T) {
	rs := NewReadySet()
	job := &Job{Task: 1, IsEDF: true, AbsDeadline: 100}
	rs.Insert(job)

	m := NewMissMonitor(rs, zerolog.Nop())
	m.Check(100, nil)

	if job.MissCount != 0 {
		t.Fatalf("tick == abs_deadline must not count as a miss, got count %d", job.MissCount)
	}
}

func TestMonitorResetsOnNextJobInstance(t *testing.T) {
	rs := NewReadySet()
	job := &Job{Task: 1, IsEDF: true, AbsDeadline: 100}
	rs.Insert(job)

	m := NewMissMonitor(rs, zerolog.Nop())
	m.Check(150, nil)
	if job.MissCount != 1 {
		t.Fatalf("expected 1 miss, got %d", job.MissCount)
	}

	// Simulate release engine advancing to the next job instance.
	job.AbsDeadline = 400
	job.MissedThisJob = false

	m.Check(450, nil)
	if job.MissCount != 2 {
		t.Fatalf("expected a second miss to be counted for the new job instance, got %d", job.MissCount)
	}
}

func TestMonitorChecksRunningJobNotInReadySet(t *testing.T) {
	rs := NewReadySet()
	m := NewMissMonitor(rs, zerolog.Nop())

	running := &Job{Task: 1, IsEDF: true, AbsDeadline: 10}
	m.Check(20, running)

	if running.MissCount != 1 {
		t.Fatalf("expected the running job (not in the ready set) to still be checked, got %d", running.MissCount)
	}
}

func TestMonitorIgnoresNonEDFJobs(t *testing.T) {
	rs := NewReadySet()
	job := &Job{Task: 1, IsEDF: false, AbsDeadline: 10}
	rs.Insert(job)

	m := NewMissMonitor(rs, zerolog.Nop())
	m.Check(100, nil)

	if job.MissCount != 0 {
		t.Error("non-EDF jobs use legacy scheduling and are never counted by the EDF miss monitor")
	}
}

func TestMonitorOnMissCallback(t *testing.T) {
	rs := NewReadySet()
	job := &Job{Task: 1, IsEDF: true, AbsDeadline: 10}
	rs.Insert(job)

	var gotTask TaskID
	var gotTick Tick
	m := NewMissMonitor(rs, zerolog.Nop())
	m.SetOnMiss(func(j *Job, tick Tick) {
		gotTask = j.Task
		gotTick = tick
	})
	m.Check(11, nil)

	if gotTask != 1 || gotTick != 11 {
		t.Errorf("expected onMiss callback with task=1 tick=11, got task=%d tick=%d", gotTask, gotTick)
	}
}

package edf

import (
	"testing"

	"github.com/rs/zerolog"
)

// fakeDelayedList is a minimal DelayedList for core tests: a slice
// scanned linearly, good enough at test scale. Jobs sharing a wake
// tick come back in Add order (PopDue scans front to back), not
// sorted by registry order; the tests here file one job per wake tick.
type fakeDelayedList struct {
	entries []delayedEntry
}

type delayedEntry struct {
	job  *Job
	wake Tick
}

func (f *fakeDelayedList) Add(job *Job, wakeTick Tick) {
	f.entries = append(f.entries, delayedEntry{job: job, wake: wakeTick})
}

func (f *fakeDelayedList) PopDue(tick Tick) []*Job {
	var due []*Job
	remaining := f.entries[:0]
	for _, e := range f.entries {
		if e.wake == tick {
			due = append(due, e.job)
		} else {
			remaining = append(remaining, e)
		}
	}
	f.entries = remaining
	return due
}

func newTestKernel() *Kernel {
	return NewKernel(Config{EDFEnabled: true, RegistryCapacity: 8, TickRateHz: 1000}, zerolog.Nop())
}

func TestCreateTaskAcceptsAndSetsFirstDeadline(t *testing.T) {
	k := newTestKernel()
	h, err := k.CreateTask("t1", TaskParams{C: 10, D: 50, T: 100})
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if h == nil {
		t.Fatal("expected non-nil handle")
	}
	if k.registry.Len() != 1 {
		t.Fatalf("expected registry to have 1 entry, got %d", k.registry.Len())
	}
	job := k.readySet.PeekMin()
	if job == nil || job.AbsDeadline != 50 {
		t.Fatalf("expected first job's abs_deadline == currentTick(0)+D(50), got %+v", job)
	}
}

func TestCreateTaskRejectsInvalidParams(t *testing.T) {
	k := newTestKernel()
	_, err := k.CreateTask("bad", TaskParams{C: 0, D: 10, T: 10})
	if err == nil {
		t.Fatal("expected InvalidParametersError")
	}
	if _, ok := err.(*InvalidParametersError); !ok {
		t.Fatalf("expected *InvalidParametersError, got %T", err)
	}
	if k.registry.Len() != 0 {
		t.Error("a rejected create must not touch the registry")
	}
}

func TestCreateTaskRejectionLeavesStateUntouched(t *testing.T) {
	k := newTestKernel()
	k.CreateTask("t1", TaskParams{C: 80, D: 200, T: 400})
	k.CreateTask("t2", TaskParams{C: 150, D: 400, T: 800})
	k.CreateTask("t3", TaskParams{C: 400, D: 1000, T: 1600})

	beforeRegistryLen := k.registry.Len()
	beforeReadyLen := k.readySet.Len()

	_, err := k.CreateTask("overload", TaskParams{C: 150, D: 200, T: 200})
	if err == nil {
		t.Fatal("expected the overload candidate to be rejected (S3)")
	}
	if k.registry.Len() != beforeRegistryLen {
		t.Errorf("registry size changed on reject: before %d after %d", beforeRegistryLen, k.registry.Len())
	}
	if k.readySet.Len() != beforeReadyLen {
		t.Errorf("ready set size changed on reject: before %d after %d", beforeReadyLen, k.readySet.Len())
	}
}

func TestCreateTaskRejectsWhenRegistryFull(t *testing.T) {
	k := NewKernel(Config{EDFEnabled: true, RegistryCapacity: 1, TickRateHz: 1000}, zerolog.Nop())
	if _, err := k.CreateTask("t1", TaskParams{C: 1, D: 10, T: 10}); err != nil {
		t.Fatalf("unexpected reject on first create: %v", err)
	}
	_, err := k.CreateTask("t2", TaskParams{C: 1, D: 10, T: 10})
	if err == nil {
		t.Fatal("expected RegistryFullError")
	}
}

func TestCreateTaskDisabledWhenConfigOff(t *testing.T) {
	k := NewKernel(Config{EDFEnabled: false, RegistryCapacity: 8, TickRateHz: 1000}, zerolog.Nop())
	_, err := k.CreateTask("t1", TaskParams{C: 1, D: 10, T: 10})
	if err == nil {
		t.Fatal("expected creation to fail while configUSE_EDF_SCHEDULER is off")
	}
}

func TestTickReleasesAndAdvancesDeadline(t *testing.T) {
	k := newTestKernel()
	k.CreateTask("t1", TaskParams{C: 10, D: 50, T: 100})
	job := k.readySet.PeekMin()

	delayed := &fakeDelayedList{}
	k.Suspend(job, delayed)
	if k.readySet.Len() != 0 {
		t.Fatal("expected ready set empty after suspend")
	}

	k.Tick(100, delayed)

	if job.ReleaseTime != 100 {
		t.Errorf("expected release_time == 100, got %d", job.ReleaseTime)
	}
	if job.AbsDeadline != 150 {
		t.Errorf("expected abs_deadline == 150 (release+D), got %d", job.AbsDeadline)
	}
	if job.NextRelease != 200 {
		t.Errorf("expected next_release == 200 (release+T), got %d", job.NextRelease)
	}
	if k.readySet.Len() != 1 {
		t.Error("expected job back in the ready set after release")
	}
}

func TestDeadlineMonotonicityAcrossPeriods(t *testing.T) {
	k := newTestKernel()
	k.CreateTask("t1", TaskParams{C: 5, D: 20, T: 20})
	job := k.readySet.PeekMin()
	delayed := &fakeDelayedList{}

	var deadlines []Tick
	deadlines = append(deadlines, job.AbsDeadline)
	tick := Tick(0)
	for i := 0; i < 3; i++ {
		k.Suspend(job, delayed)
		tick = job.NextRelease
		k.Tick(tick, delayed)
		deadlines = append(deadlines, job.AbsDeadline)
	}

	for i := 1; i < len(deadlines); i++ {
		if deadlines[i] != deadlines[i-1]+20 {
			t.Fatalf("expected deadline_{k+1} = deadline_k + T, got sequence %v", deadlines)
		}
	}
}

func TestTestAdmissionDoesNotMutateRegistry(t *testing.T) {
	k := newTestKernel()
	k.CreateTask("t1", TaskParams{C: 10, D: 50, T: 100})
	before := k.registry.Len()

	k.TestAdmission(TaskParams{C: 1000, D: 1, T: 1})

	if k.registry.Len() != before {
		t.Error("TestAdmission must never mutate the registry")
	}
}

func TestRemoveTaskDropsRegistryAndReadyJob(t *testing.T) {
	k := newTestKernel()
	h, _ := k.CreateTask("t1", TaskParams{C: 10, D: 50, T: 100})

	if !k.RemoveTask(h.ID) {
		t.Fatal("expected RemoveTask to succeed")
	}
	if k.registry.Len() != 0 {
		t.Error("expected registry empty after removal")
	}
	if k.readySet.Len() != 0 {
		t.Error("expected the removed task's job gone from the ready set")
	}
}

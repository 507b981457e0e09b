package edf

import "testing"

func TestReadySetOrdersByDeadline(t *testing.T) {
	rs := NewReadySet()
	rs.Insert(&Job{Task: 1, AbsDeadline: 300})
	rs.Insert(&Job{Task: 2, AbsDeadline: 100})
	rs.Insert(&Job{Task: 3, AbsDeadline: 200})

	min := rs.PeekMin()
	if min.Task != 2 {
		t.Errorf("expected task 2 (deadline 100) at head, got %d", min.Task)
	}
}

func TestReadySetFIFOTieBreak(t *testing.T) {
	rs := NewReadySet()
	first := &Job{Task: 1, AbsDeadline: 100}
	second := &Job{Task: 2, AbsDeadline: 100}
	rs.Insert(first)
	rs.Insert(second)

	got := rs.RemoveMin()
	if got.Task != 1 {
		t.Errorf("expected first-inserted task 1 to win the tie, got %d", got.Task)
	}
	got = rs.RemoveMin()
	if got.Task != 2 {
		t.Errorf("expected second task 2 next, got %d", got.Task)
	}
}

func TestReadySetRemove(t *testing.T) {
	rs := NewReadySet()
	a := &Job{Task: 1, AbsDeadline: 100}
	b := &Job{Task: 2, AbsDeadline: 50}
	rs.Insert(a)
	rs.Insert(b)

	rs.Remove(b)
	if rs.Len() != 1 {
		t.Fatalf("expected 1 job left, got %d", rs.Len())
	}
	if rs.PeekMin().Task != 1 {
		t.Errorf("expected remaining job to be task 1, got %d", rs.PeekMin().Task)
	}
}

func TestReadySetEmptyPeekAndRemove(t *testing.T) {
	rs := NewReadySet()
	if rs.PeekMin() != nil {
		t.Error("expected nil PeekMin on empty ready set")
	}
	if rs.RemoveMin() != nil {
		t.Error("expected nil RemoveMin on empty ready set")
	}
}

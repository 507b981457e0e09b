package history

import (
	"context"
	"testing"
)

func TestMemoryStoreRecentEventsOrderAndLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.RecordEvent(ctx, TraceEvent{Tick: uint64(i), Task: 1, Kind: "release"})
	}

	got, err := s.RecentEvents(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Tick != 2 || got[2].Tick != 4 {
		t.Errorf("expected the last 3 events in order, got %+v", got)
	}
}

func TestMemoryStoreMissesForTaskFiltersByTask(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.RecordMiss(ctx, MissRecord{Task: 1, Tick: 10})
	s.RecordMiss(ctx, MissRecord{Task: 2, Tick: 20})
	s.RecordMiss(ctx, MissRecord{Task: 1, Tick: 30})

	got, err := s.MissesForTask(ctx, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 misses for task 1, got %d", len(got))
	}
}

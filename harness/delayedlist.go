package harness

import (
	"sort"
	"sync"

	"github.com/adamcrespi/freertos-538/edf"
)

// DelayedList is a map-keyed-by-wake-tick implementation of
// edf.DelayedList. Jobs sharing a wake tick are returned in ascending
// TaskID order, which is the order the registry admitted them, giving
// the registry-order tie-break spec.md §4.D requires. Modeled on the mutex-guarded map style of
// control_plane/store/memory.go, swapped from a string-keyed map to
// a tick-keyed one.
type DelayedList struct {
	mu      sync.Mutex
	byTick  map[edf.Tick][]*edf.Job
}

// NewDelayedList returns an empty delayed list.
func NewDelayedList() *DelayedList {
	return &DelayedList{byTick: make(map[edf.Tick][]*edf.Job)}
}

// Add files job to be returned by a future PopDue(wakeTick).
func (d *DelayedList) Add(job *edf.Job, wakeTick edf.Tick) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byTick[wakeTick] = append(d.byTick[wakeTick], job)
}

// PopDue removes and returns every job filed under exactly tick, in
// registry (TaskID) order.
func (d *DelayedList) PopDue(tick edf.Tick) []*edf.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	due := d.byTick[tick]
	delete(d.byTick, tick)
	sort.SliceStable(due, func(i, j int) bool { return due[i].Task < due[j].Task })
	return due
}

// Len reports how many distinct wake ticks currently hold jobs, for
// test assertions and dashboard display.
func (d *DelayedList) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byTick)
}

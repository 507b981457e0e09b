package edf

import (
	"container/heap"
	"sync"
)

// ReadySet is the deadline-ordered ready set (spec §4.A): a min-heap
// keyed by AbsDeadline, ties broken by insertion sequence so equal
// deadlines stay FIFO. Modeled on control_plane/scheduler/queue.go's
// ThreadSafeQueue, with the sort key swapped from effective-priority
// to absolute deadline and the tie-break changed from deadline-only
// to (deadline, sequence).
//
// Legacy (non-EDF) entries are appended with AbsDeadline left at their
// caller-assigned sort key and participate in the same heap ordering;
// the kernel is responsible for never comparing an EDF job's deadline
// against a non-EDF job's sort key (spec invariant 7) by routing
// non-EDF dispatch through the stock round-robin path instead.
type jobHeap []*Job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].AbsDeadline != h[j].AbsDeadline {
		return h[i].AbsDeadline < h[j].AbsDeadline
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x interface{}) {
	job := x.(*Job)
	job.index = len(*h)
	*h = append(*h, job)
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	job.index = -1
	*h = old[0 : n-1]
	return job
}

// ReadySet wraps jobHeap with a mutex and a monotonic insertion
// sequence counter for FIFO tie-breaking.
type ReadySet struct {
	mu      sync.Mutex
	heap    jobHeap
	nextSeq uint64
}

// NewReadySet returns an empty ready set.
func NewReadySet() *ReadySet {
	return &ReadySet{heap: make(jobHeap, 0)}
}

// Insert places job into the ready set ordered by AbsDeadline, stable
// on ties. O(log n).
func (r *ReadySet) Insert(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.seq = r.nextSeq
	r.nextSeq++
	heap.Push(&r.heap, job)
}

// PeekMin returns the job with the minimum AbsDeadline without
// removing it, or nil if empty. O(1).
func (r *ReadySet) PeekMin() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.heap) == 0 {
		return nil
	}
	return r.heap[0]
}

// RemoveMin pops and returns the job with the minimum AbsDeadline, or
// nil if empty.
func (r *ReadySet) RemoveMin() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.heap) == 0 {
		return nil
	}
	return heap.Pop(&r.heap).(*Job)
}

// Remove removes a specific job given its heap handle. O(log n).
func (r *ReadySet) Remove(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.index < 0 || job.index >= len(r.heap) {
		return
	}
	heap.Remove(&r.heap, job.index)
}

// Len reports the number of jobs currently ready.
func (r *ReadySet) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.heap)
}

package edf

// Jobs returns a snapshot slice of every job currently in the ready
// set, in no particular order. Used by the deadline-miss monitor
// (spec §4.F), which must inspect the whole set every tick without
// disturbing heap order.
func (r *ReadySet) Jobs() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Job, len(r.heap))
	copy(out, r.heap)
	return out
}

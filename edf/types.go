// Package edf implements the dispatch core, release engine and
// admission controller of an Earliest-Deadline-First real-time
// scheduler layered over a single-processor preemptive kernel.
package edf

import (
	"fmt"
)

// Tick is a single quantum of the periodic timer interrupt.
type Tick uint64

// TaskID identifies an admitted task within the Registry.
type TaskID int

// TaskParams are the immutable parameters of an admitted task, in
// ticks. Invariant: 1 <= C <= D <= T.
type TaskParams struct {
	C Tick // worst-case execution time
	T Tick // period
	D Tick // relative deadline
}

// Implicit reports whether the task uses the implicit-deadline model
// (D == T).
func (p TaskParams) Implicit() bool { return p.D == p.T }

// Validate checks the per-task parameter invariant (spec §3, inv. 1).
func (p TaskParams) Validate() error {
	if p.C < 1 {
		return &InvalidParametersError{Params: p, Reason: "C must be >= 1"}
	}
	if p.D < p.C {
		return &InvalidParametersError{Params: p, Reason: "D must be >= C"}
	}
	if p.T < p.D {
		return &InvalidParametersError{Params: p, Reason: "T must be >= D"}
	}
	return nil
}

// Job is the mutable per-job state of the single live job for a task.
type Job struct {
	Task         TaskID
	Params       TaskParams
	ReleaseTime  Tick
	AbsDeadline  Tick
	NextRelease  Tick
	MissCount    uint64
	MissedThisJob bool
	IsEDF        bool

	seq   uint64 // insertion sequence, breaks ties FIFO (spec §4.A)
	index int    // heap index, maintained by container/heap
}

// Errors returned by task creation (TaskParams.Validate, Registry.Add
// and Kernel.CreateTask). Modeled after
// control_plane/resilience/errors.go: small structs implementing
// error. This package returns them unwrapped, so callers match them
// with errors.As or a type assertion.

type InvalidParametersError struct {
	Params TaskParams
	Reason string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid task parameters C=%d D=%d T=%d: %s", e.Params.C, e.Params.D, e.Params.T, e.Reason)
}

type RegistryFullError struct {
	Capacity int
}

func (e *RegistryFullError) Error() string {
	return fmt.Sprintf("registry out of capacity (max %d tasks)", e.Capacity)
}

type NotSchedulableError struct {
	Params TaskParams
	Test   string // "LL", "PDA", or "disabled" when the EDF scheduler is off
	Detail string
}

func (e *NotSchedulableError) Error() string {
	return fmt.Sprintf("candidate C=%d D=%d T=%d rejected by %s: %s", e.Params.C, e.Params.D, e.Params.T, e.Test, e.Detail)
}

package edf

import (
	"github.com/rs/zerolog"
)

// FixedPointScale is the LL-bound scale factor S from spec §4.C.2.
// Gives 0.01% precision in 64-bit integer arithmetic; bump it if
// 64-bit multiplication is cheap on the target (spec §9).
const FixedPointScale = 10000

// pdaHorizonK is the k constant in H = min(k*max(Ti), 60*tickRate)
// (spec §4.C.3.b).
const pdaHorizonK = 4

// AdmissionDecision is the result of a feasibility test, returned
// without mutating any state (spec §4.C: "a pure function of inputs
// plus the registry snapshot").
type AdmissionDecision struct {
	Accept bool
	Test   string // "LL" or "PDA"
	Detail string
}

// AdmissionController gates task creation so the admitted set stays
// schedulable (spec §4.C). It holds no state of its own beyond the
// tick rate needed to compute the PDA horizon cap; the registry
// snapshot is supplied by the caller (the Kernel), keeping the
// controller a pure function the way
// control_plane/scheduler/circuit_breaker.go keeps its admission
// predicate (ShouldAdmit) free of side effects on reject.
type AdmissionController struct {
	tickRate Tick // ticks per second, used for the PDA horizon cap
	log      zerolog.Logger
}

// NewAdmissionController returns a controller that assumes tickRate
// ticks occur per second (used only to bound the PDA horizon).
func NewAdmissionController(tickRate Tick, log zerolog.Logger) *AdmissionController {
	if tickRate == 0 {
		tickRate = 1000
	}
	return &AdmissionController{tickRate: tickRate, log: log.With().Str("component", "admission").Logger()}
}

// Selector decides, per spec §4.C.1: LL bound iff every task (existing
// plus candidate) is implicit-deadline, otherwise PDA.
func (a *AdmissionController) selector(existing []TaskParams, candidate TaskParams) string {
	if !candidate.Implicit() {
		return "PDA"
	}
	for _, p := range existing {
		if !p.Implicit() {
			return "PDA"
		}
	}
	return "LL"
}

// Admit runs the selected feasibility test against existing (the
// registry snapshot) plus candidate, and returns accept/reject. It
// mutates nothing; on reject, the registry and ready set are left
// exactly as supplied (spec §4.C.4, §7 "rejected create_edf_task
// leaves state bit-identical").
func (a *AdmissionController) Admit(existing []TaskParams, candidate TaskParams) AdmissionDecision {
	test := a.selector(existing, candidate)
	var decision AdmissionDecision
	if test == "LL" {
		decision = a.llBound(existing, candidate)
	} else {
		decision = a.pda(existing, candidate)
	}
	a.log.Debug().
		Str("test", decision.Test).
		Bool("accept", decision.Accept).
		Uint64("C", uint64(candidate.C)).
		Uint64("D", uint64(candidate.D)).
		Uint64("T", uint64(candidate.T)).
		Str("detail", decision.Detail).
		Msg("admission decision")
	return decision
}

// TestAdmission is the public §6 test-helper wrapper: given a
// candidate, it returns both the LL-bound and PDA decisions without
// mutating state, regardless of which test the selector would have
// picked for a real admission. Used by the 100-task comparison
// harness (spec §8 S5).
func (a *AdmissionController) TestAdmission(existing []TaskParams, candidate TaskParams) (ll, pda AdmissionDecision) {
	return a.llBound(existing, candidate), a.pda(existing, candidate)
}

// llBound implements the Liu & Layland utilization bound (spec
// §4.C.2): sum(floor(Ci*S/Ti)) <= S, rounding each per-term
// contribution downward (documented, consistent choice per spec's
// requirement — this favors acceptance by at most n LSBs of S, which
// at S=10000 and n<=128 is worst-case 0.0128 (1.28%) of utilization: judged
// an acceptable, spec-sanctioned bias toward acceptance rather than
// rejection).
func (a *AdmissionController) llBound(existing []TaskParams, candidate TaskParams) AdmissionDecision {
	var total uint64
	for _, p := range append(append([]TaskParams{}, existing...), candidate) {
		term := (uint64(p.C) * FixedPointScale) / uint64(p.T)
		total += term
	}
	if total <= FixedPointScale {
		return AdmissionDecision{Accept: true, Test: "LL", Detail: "utilization within bound"}
	}
	return AdmissionDecision{Accept: false, Test: "LL", Detail: "utilization exceeds bound"}
}

// horizon computes H = min(k*max(Ti), 60*tickRate) over the candidate
// set (spec §4.C.3.b).
func (a *AdmissionController) horizon(set []TaskParams) Tick {
	var maxT Tick
	for _, p := range set {
		if p.T > maxT {
			maxT = p.T
		}
	}
	capH := 60 * a.tickRate
	h := pdaHorizonK * maxT
	if h > capH {
		h = capH
	}
	return h
}

// testingPoints enumerates the union of {Di + j*Ti : j>=0, Di+j*Ti <=
// H} for every task in set, ascending and deduplicated (spec
// §4.C.3.c).
func (a *AdmissionController) testingPoints(set []TaskParams, h Tick) []Tick {
	seen := make(map[Tick]struct{})
	var points []Tick
	for _, p := range set {
		for l := p.D; l <= h; l += p.T {
			if _, ok := seen[l]; !ok {
				seen[l] = struct{}{}
				points = append(points, l)
			}
			if p.T == 0 {
				break // defensive: Validate() rejects T<1 at admission time
			}
		}
	}
	// insertion sort: point counts are small (bounded by horizon/min
	// period * n tasks), and ascending order is required by §4.C.3.d.
	for i := 1; i < len(points); i++ {
		v := points[i]
		j := i - 1
		for j >= 0 && points[j] > v {
			points[j+1] = points[j]
			j--
		}
		points[j+1] = v
	}
	return points
}

// demandAt computes h(L) = sum(max(0, floor((L-Di)/Ti)+1) * Ci) over
// set (spec §4.C.3, term computation). Uses uint64 accumulation per
// the overflow-safety guidance in spec §9.
func demandAt(set []TaskParams, l Tick) uint64 {
	var h uint64
	for _, p := range set {
		if l < p.D {
			continue // job has not had a deadline by L: contributes zero
		}
		jobs := uint64((l-p.D)/p.T) + 1
		h += jobs * uint64(p.C)
	}
	return h
}

// pda implements Processor Demand Analysis for constrained deadlines
// (spec §4.C.3): accept iff h(L) <= L at every testing point within
// the horizon.
func (a *AdmissionController) pda(existing []TaskParams, candidate TaskParams) AdmissionDecision {
	set := append(append([]TaskParams{}, existing...), candidate)
	h := a.horizon(set)
	points := a.testingPoints(set, h)
	for _, l := range points {
		demand := demandAt(set, l)
		if demand > uint64(l) {
			return AdmissionDecision{Accept: false, Test: "PDA", Detail: "processor demand exceeds interval length at a testing point"}
		}
	}
	return AdmissionDecision{Accept: true, Test: "PDA", Detail: "processor demand within bound across horizon"}
}

package admissioncache

import (
	"context"
	"testing"

	"github.com/adamcrespi/freertos-538/edf"
)

func TestGetOrComputeCachesAfterFirstCall(t *testing.T) {
	c := New(nil, 0)
	calls := 0
	compute := func() (edf.AdmissionDecision, edf.AdmissionDecision) {
		calls++
		return edf.AdmissionDecision{Accept: true, Test: "LL"}, edf.AdmissionDecision{Accept: true, Test: "PDA"}
	}

	key := Key(1, edf.TaskParams{C: 10, D: 50, T: 100})
	ll1, pda1 := c.GetOrCompute(context.Background(), key, compute)
	ll2, pda2 := c.GetOrCompute(context.Background(), key, compute)

	if calls != 1 {
		t.Fatalf("expected compute to run exactly once, ran %d times", calls)
	}
	if ll1 != ll2 || pda1 != pda2 {
		t.Error("expected identical decisions from cache on second call")
	}
}

func TestKeyDiffersByToken(t *testing.T) {
	params := edf.TaskParams{C: 10, D: 50, T: 100}
	if Key(1, params) == Key(2, params) {
		t.Error("expected different registry-snapshot tokens to produce different keys")
	}
}

func TestKeyDiffersByParams(t *testing.T) {
	a := Key(1, edf.TaskParams{C: 10, D: 50, T: 100})
	b := Key(1, edf.TaskParams{C: 20, D: 50, T: 100})
	if a == b {
		t.Error("expected different candidate parameters to produce different keys")
	}
}

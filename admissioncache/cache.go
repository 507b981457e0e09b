// Package admissioncache memoizes admission feasibility results so a
// demo server driving the S5 hundred-task comparison harness (or any
// repeated test_admission probe) does not re-run Processor Demand
// Analysis for a query it has already answered against the same
// registry contents.
package admissioncache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/adamcrespi/freertos-538/edf"
	"github.com/adamcrespi/freertos-538/observability"
)

// Backend is the minimal key-value contract the cache needs,
// implemented by RedisBackend. With a nil Backend the Cache uses its
// own in-process map instead.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// entry is the JSON payload stored per cache key.
type entry struct {
	LL  edf.AdmissionDecision
	PDA edf.AdmissionDecision
}

// Cache memoizes TestAdmission results. A nil backend falls back to
// an in-process sync.Map, mirroring idempotency.Store's Redis-or-local
// shape.
type Cache struct {
	backend Backend
	local   sync.Map
	ttl     time.Duration
}

// New wires a cache over backend. Pass nil for backend to use only
// the in-process fallback (suitable for a single-instance demo run).
func New(backend Backend, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{backend: backend, ttl: ttl}
}

// Key derives a cache key from the candidate parameters and a caller
// supplied registry snapshot token (e.g. a monotonically increasing
// version counter maintained alongside Registry — the cache is keyed
// on "these exact numbers against this exact snapshot").
func Key(token uint64, params edf.TaskParams) string {
	return fmt.Sprintf("admission:%d:%d:%d:%d", token, params.C, params.D, params.T)
}

// GetOrCompute returns a cached (LL, PDA) decision pair for key, or
// computes it via compute and stores the result.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func() (ll, pda edf.AdmissionDecision)) (ll, pda edf.AdmissionDecision) {
	if ll, pda, ok := c.get(ctx, key); ok {
		observability.AdmissionCacheHits.WithLabelValues("hit").Inc()
		return ll, pda
	}
	observability.AdmissionCacheHits.WithLabelValues("miss").Inc()

	ll, pda = compute()
	c.set(ctx, key, entry{LL: ll, PDA: pda})
	return ll, pda
}

func (c *Cache) get(ctx context.Context, key string) (ll, pda edf.AdmissionDecision, ok bool) {
	if c.backend != nil {
		raw, err := c.backend.Get(ctx, key)
		if err != nil || raw == "" {
			return ll, pda, false
		}
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return ll, pda, false
		}
		return e.LL, e.PDA, true
	}

	val, found := c.local.Load(key)
	if !found {
		return ll, pda, false
	}
	e := val.(entry)
	return e.LL, e.PDA, true
}

func (c *Cache) set(ctx context.Context, key string, e entry) {
	if c.backend != nil {
		raw, err := json.Marshal(e)
		if err != nil {
			return
		}
		c.backend.Set(ctx, key, string(raw), c.ttl)
		return
	}
	c.local.Store(key, e)
}

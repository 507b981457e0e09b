package main

import (
	"golang.org/x/time/rate"
)

// adminLimiter rate-limits the test_admission HTTP surface: an
// unthrottled endpoint that runs Processor Demand Analysis against an
// attacker-chosen registry size is a CPU-cost foot-gun. Modeled on
// control_plane/scheduler/limiter.go's TokenBucketLimiter, simplified
// to a single global bucket since this demo has no per-tenant concept.
type adminLimiter struct {
	limiter *rate.Limiter
}

func newAdminLimiter(rps float64, burst int) *adminLimiter {
	return &adminLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *adminLimiter) Allow() bool {
	return l.limiter.Allow()
}

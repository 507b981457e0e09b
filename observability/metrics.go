// Package observability holds the Prometheus collectors the
// simulation kernel exposes over /metrics. The edf core itself takes
// no dependency on this package; it only invokes callbacks the demo
// binary wires here, keeping the core a pure decision-making library.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadySetDepth tracks the number of EDF jobs currently ready.
	ReadySetDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edf_ready_set_depth",
		Help: "Current number of jobs in the deadline-ordered ready set",
	})

	// AdmissionDecisions tracks admission outcomes by test and result.
	// The test label is whatever the caller passes; simkernel's
	// task-creation handler records every create under "create".
	AdmissionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edf_admission_decisions_total",
		Help: "Total admission decisions, labeled by feasibility test and outcome",
	}, []string{"test", "accept"})

	// AdmissionLatency tracks feasibility-test duration. simkernel's
	// /admission/test handler times the LL and PDA tests together and
	// records that combined duration under both labels.
	AdmissionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "edf_admission_latency_seconds",
		Help:    "Admission feasibility test duration",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	}, []string{"test"})

	// DeadlineMisses tracks deadline overruns per task.
	DeadlineMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edf_deadline_misses_total",
		Help: "Total deadline-miss events, labeled by task id",
	}, []string{"task"})

	// PreemptionsTotal tracks dispatcher-requested context switches.
	PreemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edf_preemptions_total",
		Help: "Total context switches requested by the dispatcher",
	}, []string{"reason"}) // simkernel counts every switch-in under reason "release"

	// RunningTaskDeadline tracks the absolute deadline of the currently
	// running job, for dashboard display.
	RunningTaskDeadline = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "edf_running_task_abs_deadline_ticks",
		Help: "Absolute deadline, in ticks, of the currently running task",
	}, []string{"task"})

	// RegistryUtilization tracks the admitted task count against capacity.
	RegistryUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edf_registry_utilization_ratio",
		Help: "Ratio of admitted tasks to registry capacity",
	})

	// AdmissionCacheHits tracks admissioncache memoization hits/misses.
	AdmissionCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edf_admission_cache_total",
		Help: "Admission-test cache lookups, labeled by outcome",
	}, []string{"outcome"}) // hit, miss

	// TraceStreamClients tracks connected websocket trace viewers.
	TraceStreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edf_trace_stream_clients",
		Help: "Current number of connected trace-stream websocket clients",
	})

	// AdmissionEndpointRateLimited tracks rejections from the HTTP
	// admission-test rate limiter.
	AdmissionEndpointRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edf_admission_endpoint_rate_limited_total",
		Help: "test_admission HTTP requests rejected by the rate limiter",
	})
)

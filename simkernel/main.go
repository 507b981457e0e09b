// Command simkernel is the demonstration server: it wires the edf
// core to a simulated task-control-block harness, a history store, an
// admission-decision cache, Prometheus metrics and a websocket trace
// stream, and exposes an HTTP surface for driving and observing it.
// Layout follows control_plane/main.go's flat, cmd-less convention: a
// single top-level package main directory.
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	realclock "github.com/benbjohnson/clock"
	gorillaws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/adamcrespi/freertos-538/admissioncache"
	"github.com/adamcrespi/freertos-538/edf"
	"github.com/adamcrespi/freertos-538/harness"
	"github.com/adamcrespi/freertos-538/history"
	"github.com/adamcrespi/freertos-538/observability"
)

var upgrader = gorillaws.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// server bundles the wired dependencies the HTTP handlers close over.
type server struct {
	kernel   *edf.Kernel
	delayed  *harness.DelayedList
	tcb      *harness.Harness
	hist     history.Store
	cache    *admissioncache.Cache
	trace    *TraceHub
	limiter  *adminLimiter
	log      zerolog.Logger

	namesMu sync.RWMutex
	names   map[edf.TaskID]string

	registryVersion uint64
}

func main() {
	cfg := LoadConfig()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	kernel := edf.NewKernel(edf.Config{
		EDFEnabled:       cfg.EDFEnabled,
		RegistryCapacity: cfg.RegistryCapacity,
		TickRateHz:       edf.Tick(cfg.TickRateHz),
	}, log)

	delayed := harness.NewDelayedList()
	tcb := harness.New(kernel, delayed, log)

	s := &server{
		kernel:  kernel,
		delayed: delayed,
		tcb:     tcb,
		hist:    newHistoryStore(cfg, log),
		cache:   newAdmissionCache(cfg, log),
		trace:   NewTraceHub(log),
		limiter: newAdminLimiter(cfg.AdmissionTestRPS, cfg.AdmissionTestBurst),
		log:     log,
		names:   make(map[edf.TaskID]string),
	}

	kernel.SetTraceHooks(
		func(id edf.TaskID) { s.onSwitchIn(id) },
		func(id edf.TaskID) { s.onSwitchOut(id) },
	)
	kernel.SetOnMiss(func(job *edf.Job, tick edf.Tick) {
		s.onMiss(job, tick)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.trace.Run(ctx)

	tickSource := harness.NewTickSource(kernel, delayed, realclock.New(), time.Second/time.Duration(cfg.TickRateHz), log)
	go tickSource.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/tasks", s.handleTasks(ctx))
	mux.HandleFunc("/admission/test", s.handleAdmissionTest)
	mux.HandleFunc("/trace/stream", s.handleTraceStream)
	mux.HandleFunc("/scheduler/snapshot", s.handleSnapshot)

	log.Info().Str("addr", cfg.ListenAddr).Msg("simkernel listening")
	log.Fatal().Err(http.ListenAndServe(cfg.ListenAddr, mux)).Msg("server exited")
}

func newHistoryStore(cfg Config, log zerolog.Logger) history.Store {
	if cfg.PostgresDSN == "" {
		log.Info().Msg("POSTGRES_DSN unset, using in-memory history store")
		return history.NewMemoryStore()
	}
	store, err := history.NewPostgresStore(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to postgres, falling back to in-memory history store")
		return history.NewMemoryStore()
	}
	return store
}

func newAdmissionCache(cfg Config, log zerolog.Logger) *admissioncache.Cache {
	if cfg.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR unset, using in-process admission cache")
		return admissioncache.New(nil, 0)
	}
	backend, err := admissioncache.NewRedisBackend(cfg.RedisAddr, "", 0)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to redis, falling back to in-process admission cache")
		return admissioncache.New(nil, 0)
	}
	return admissioncache.New(backend, time.Hour)
}

func (s *server) onSwitchIn(id edf.TaskID) {
	observability.PreemptionsTotal.WithLabelValues("release").Inc()
	s.trace.Publish(TraceEvent{Kind: "switch_in", Task: int(id)})
}

func (s *server) onSwitchOut(id edf.TaskID) {
	s.trace.Publish(TraceEvent{Kind: "switch_out", Task: int(id)})
}

func (s *server) onMiss(job *edf.Job, tick edf.Tick) {
	observability.DeadlineMisses.WithLabelValues(strconv.Itoa(int(job.Task))).Inc()
	s.trace.Publish(TraceEvent{Kind: "miss", Task: int(job.Task), Tick: uint64(tick), Deadline: uint64(job.AbsDeadline)})
	s.hist.RecordMiss(context.Background(), history.MissRecord{
		Task: int(job.Task), Tick: uint64(tick), Deadline: uint64(job.AbsDeadline), Recorded: time.Now(),
	})
}

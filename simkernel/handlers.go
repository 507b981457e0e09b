package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/adamcrespi/freertos-538/admissioncache"
	"github.com/adamcrespi/freertos-538/edf"
	"github.com/adamcrespi/freertos-538/observability"
	"github.com/adamcrespi/freertos-538/workload"
)

// createTaskRequest is the POST /tasks body: worst-case execution
// time, relative deadline and period, all in ticks, plus an optional
// overrun flag that spawns a deliberately-overrunning demo body (S6).
type createTaskRequest struct {
	Name     string `json:"name"`
	C        uint64 `json:"c"`
	D        uint64 `json:"d"`
	T        uint64 `json:"t"`
	Overrun  bool   `json:"overrun"`
}

type createTaskResponse struct {
	TaskID int    `json:"task_id"`
	Name   string `json:"name"`
}

// handleTasks dispatches POST (create) and GET (list) on /tasks.
func (s *server) handleTasks(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.handleCreateTask(ctx, w, r)
		case http.MethodGet:
			s.handleListTasks(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *server) handleCreateTask(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	params := edf.TaskParams{C: edf.Tick(req.C), D: edf.Tick(req.D), T: edf.Tick(req.T)}
	handle, err := s.kernel.CreateTask(req.Name, params)
	if err != nil {
		observability.AdmissionDecisions.WithLabelValues("create", "false").Inc()
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	observability.AdmissionDecisions.WithLabelValues("create", "true").Inc()
	atomic.AddUint64(&s.registryVersion, 1)
	observability.RegistryUtilization.Set(float64(s.kernel.Registry().Len()) / float64(s.kernel.Registry().Capacity()))

	s.namesMu.Lock()
	s.names[handle.ID] = handle.Name
	s.namesMu.Unlock()

	firstJob := s.jobForTask(handle.ID)
	if firstJob != nil {
		body := workload.Periodic(time.Second/time.Duration(max1(s.kernel.Registry().Len())), s.log)
		if req.Overrun {
			body = workload.Overrunning(time.Second/time.Duration(max1(s.kernel.Registry().Len())), 3, s.log)
		}
		s.tcb.Spawn(ctx, firstJob, body)
	}

	observability.ReadySetDepth.Set(float64(s.kernel.ReadySet().Len()))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(createTaskResponse{TaskID: int(handle.ID), Name: handle.Name})
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func (s *server) jobForTask(id edf.TaskID) *edf.Job {
	for _, job := range s.kernel.ReadySet().Jobs() {
		if job.Task == id {
			return job
		}
	}
	return nil
}

type taskView struct {
	TaskID int    `json:"task_id"`
	Name   string `json:"name"`
	C      uint64 `json:"c"`
	D      uint64 `json:"d"`
	T      uint64 `json:"t"`
}

func (s *server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	snapshot := s.kernel.Registry().Snapshot()
	s.namesMu.RLock()
	defer s.namesMu.RUnlock()

	views := make([]taskView, 0, len(snapshot))
	for i, p := range snapshot {
		id := edf.TaskID(i)
		views = append(views, taskView{
			TaskID: int(id),
			Name:   s.names[id],
			C:      uint64(p.C),
			D:      uint64(p.D),
			T:      uint64(p.T),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

// admissionTestRequest is the POST /admission/test body (spec §6's
// test_admission helper): candidate parameters only, never mutates
// the registry.
type admissionTestRequest struct {
	C uint64 `json:"c"`
	D uint64 `json:"d"`
	T uint64 `json:"t"`
}

type admissionTestResponse struct {
	LL  edf.AdmissionDecision `json:"ll"`
	PDA edf.AdmissionDecision `json:"pda"`
}

func (s *server) handleAdmissionTest(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		observability.AdmissionEndpointRateLimited.Inc()
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req admissionTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	candidate := edf.TaskParams{C: edf.Tick(req.C), D: edf.Tick(req.D), T: edf.Tick(req.T)}

	token := atomic.LoadUint64(&s.registryVersion)
	key := admissioncache.Key(token, candidate)

	ll, pda := s.cache.GetOrCompute(r.Context(), key, func() (edf.AdmissionDecision, edf.AdmissionDecision) {
		start := time.Now()
		ll, pda := s.kernel.TestAdmission(candidate)
		observability.AdmissionLatency.WithLabelValues("LL").Observe(time.Since(start).Seconds())
		observability.AdmissionLatency.WithLabelValues("PDA").Observe(time.Since(start).Seconds())
		return ll, pda
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(admissionTestResponse{LL: ll, PDA: pda})
}

func (s *server) handleTraceStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("trace stream upgrade failed")
		return
	}
	s.trace.Register(conn)
}

type snapshotView struct {
	ReadySetDepth int        `json:"ready_set_depth"`
	RegistryLen   int        `json:"registry_len"`
	Running       *taskView  `json:"running,omitempty"`
}

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	view := snapshotView{
		ReadySetDepth: s.kernel.ReadySet().Len(),
		RegistryLen:   s.kernel.Registry().Len(),
	}
	if running := s.kernel.Running(); running != nil {
		s.namesMu.RLock()
		name := s.names[running.Task]
		s.namesMu.RUnlock()
		view.Running = &taskView{TaskID: int(running.Task), Name: name}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}


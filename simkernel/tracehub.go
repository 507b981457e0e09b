package main

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/adamcrespi/freertos-538/observability"
)

const maxTraceClients = 200

// TraceEvent is the JSON payload pushed to every connected trace
// viewer: one line per switch_in/switch_out/miss event.
type TraceEvent struct {
	Kind     string `json:"kind"`
	Task     int    `json:"task"`
	Tick     uint64 `json:"tick,omitempty"`
	Deadline uint64 `json:"deadline,omitempty"`
}

// TraceHub fans schedule-trace events out to connected websocket
// clients. Modeled on control_plane/ws_hub.go's MetricsHub: a single
// goroutine owns the client map and serializes register/unregister/
// broadcast through channels instead of a mutex-guarded critical
// section shared with writers.
type TraceHub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	events     chan TraceEvent
	log        zerolog.Logger
}

// NewTraceHub constructs an idle hub; call Run to start its loop.
func NewTraceHub(log zerolog.Logger) *TraceHub {
	return &TraceHub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		events:     make(chan TraceEvent, 256),
		log:        log.With().Str("component", "trace_hub").Logger(),
	}
}

// Run drives the hub's main loop until ctx is cancelled.
func (h *TraceHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case conn := <-h.register:
			if len(h.clients) >= maxTraceClients {
				conn.Close()
				h.log.Warn().Int("max", maxTraceClients).Msg("trace client rejected, at capacity")
				continue
			}
			h.clients[conn] = struct{}{}
			observability.TraceStreamClients.Set(float64(len(h.clients)))

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				observability.TraceStreamClients.Set(float64(len(h.clients)))
			}

		case ev := <-h.events:
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
				if err := conn.WriteJSON(ev); err != nil {
					go h.Unregister(conn)
				}
			}
		}
	}
}

func (h *TraceHub) shutdown() {
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

// Register adds a new websocket client to the broadcast set.
func (h *TraceHub) Register(conn *websocket.Conn) { h.register <- conn }

// Unregister removes a websocket client.
func (h *TraceHub) Unregister(conn *websocket.Conn) { h.unregister <- conn }

// Publish enqueues an event for broadcast. Non-blocking: a full
// buffer drops the event rather than stalling the caller, since the
// caller here is the kernel's own critical section.
func (h *TraceHub) Publish(ev TraceEvent) {
	select {
	case h.events <- ev:
	default:
	}
}

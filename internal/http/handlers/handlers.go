package handlers

import (
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/preston-bernstein/match-overlay/internal/hostloop"
	"github.com/preston-bernstein/match-overlay/internal/logging"
	"github.com/preston-bernstein/match-overlay/internal/overlay"
)

// StateSource exposes the overlay's display state.
type StateSource interface {
	Snapshot() overlay.State
}

// Handler serves the status surface of a running overlay.
type Handler struct {
	state  StateSource
	ready  func() bool
	loop   func() hostloop.Status
	logger *slog.Logger
}

// NewHandler wires the handler. ready reports whether the streams are live; a nil ready always reports ready.
func NewHandler(state StateSource, ready func() bool, loop func() hostloop.Status, logger *slog.Logger) *Handler {
	return &Handler{
		state:  state,
		ready:  ready,
		loop:   loop,
		logger: logger,
	}
}

type loopStatus struct {
	Running          bool      `json:"running"`
	Ticks            int64     `json:"ticks"`
	LastTick         time.Time `json:"lastTick"`
	LastTickDuration float64   `json:"lastTickMs"`
}

type stateResponse struct {
	Overlay overlay.State `json:"overlay"`
	Loop    *loopStatus   `json:"loop,omitempty"`
}

// Health reports liveness.
func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports whether both streams are still live.
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	if h.ready != nil && !h.ready() {
		writeError(w, r, nethttp.StatusServiceUnavailable, "streams not connected", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
}

// State returns what the overlay currently displays, with host loop activity when known.
func (h *Handler) State(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	if h.state == nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "overlay not running", h.logger)
		return
	}
	resp := stateResponse{Overlay: h.state.Snapshot()}
	if h.loop != nil {
		st := h.loop()
		resp.Loop = &loopStatus{
			Running:          st.Running,
			Ticks:            st.Ticks,
			LastTick:         st.LastTick,
			LastTickDuration: float64(st.LastTickDuration) / float64(time.Millisecond),
		}
	}
	logging.Debug(loggerFromContext(r, h.logger), "served overlay state", "clock_seconds", resp.Overlay.ClockSeconds)
	writeJSON(w, nethttp.StatusOK, resp, h.logger)
}

// NotFound answers every unknown route.
func (h *Handler) NotFound(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeError(w, r, nethttp.StatusNotFound, "not found", h.logger)
}

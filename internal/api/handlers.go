// Package api serves the monitor's published state over local HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/petems/airpods-monitor/internal/monitor"
	"github.com/petems/airpods-monitor/internal/status"
	"github.com/rs/zerolog"
)

// Monitor is the part of the monitor the handlers use.
type Monitor interface {
	State() monitor.State
	RefreshNow() bool
	Subscribe(fn monitor.Listener) string
	Unsubscribe(id string)
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	mon      Monitor
	showText func() bool
	log      zerolog.Logger
}

// StatusResponse is a published state plus its presentation.
type StatusResponse struct {
	monitor.State
	Title   string   `json:"title"`
	Tooltip string   `json:"tooltip"`
	Lines   []string `json:"lines"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) present(st monitor.State) StatusResponse {
	showText := true
	if h.showText != nil {
		showText = h.showText()
	}
	return StatusResponse{
		State:   st,
		Title:   status.Title(st.Device, showText),
		Tooltip: status.Tooltip(st.Device),
		Lines:   status.Lines(st.Device),
	}
}

func (h *Handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.present(h.mon.State()))
}

func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	if !h.mon.RefreshNow() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "monitor is not running"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

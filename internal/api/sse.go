package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/petems/airpods-monitor/internal/monitor"
)

// subscriberBuffer bounds how far a slow client may fall behind before
// publications are dropped for it.
const subscriberBuffer = 8

// sseEvents sends the current state immediately, then every publication.
func (h *Handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := make(chan monitor.State, subscriberBuffer)
	id := h.mon.Subscribe(func(st monitor.State) {
		select {
		case ch <- st:
		default:
			h.log.Debug().Uint64("seq", st.Seq).Msg("SSE client behind, dropping state")
		}
	})
	defer h.mon.Unsubscribe(id)

	sendSSE(w, flusher, h.present(h.mon.State()))

	for {
		select {
		case st := <-ch:
			sendSSE(w, flusher, h.present(st))
		case <-r.Context().Done():
			return
		}
	}
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const heartbeatInterval = 25 * time.Second

// SSEHandler streams hub events to dashboard clients as server-sent events.
// Each event is the JSON-encoded trade on the default message channel; a
// comment line goes out periodically so idle proxies keep the connection open.
// Reconnection after a drop is the client's job.
type SSEHandler struct {
	hub *Hub
	log *zap.Logger
}

func NewSSEHandler(hub *Hub, log *zap.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, log: log}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	// Subscribe before the headers go out: once the client sees the response
	// start, its events are guaranteed to flow.
	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case trade := <-sub:
			data, err := json.Marshal(trade)
			if err != nil {
				h.log.Error("failed encoding trade event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

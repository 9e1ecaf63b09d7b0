package stream

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler is the websocket flavor of the trade feed: same hub, JSON text
// frames instead of SSE framing. Inbound frames are drained and ignored; the
// read pump only exists to notice the peer going away.
type WSHandler struct {
	hub      *Hub
	origin   string
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *Hub, origin string, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		origin: origin,
		log:    log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) },
		},
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	reqOrigin := r.Header.Get("Origin")
	// Allow both localhost and 127.0.0.1 variants for development
	if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
		if strings.Contains(reqOrigin, "localhost") || strings.Contains(reqOrigin, "127.0.0.1") {
			return true
		}
	}
	return strings.EqualFold(reqOrigin, origin)
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade rejected", zap.Error(err))
		return
	}
	defer conn.Close()
	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	for {
		select {
		case trade := <-sub:
			if err := conn.WriteJSON(trade); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

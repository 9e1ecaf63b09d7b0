package stream

import (
	"sync"

	"qa-tradefeed/internal/types"
)

const subscriberBuffer = 100

// Hub fans newly ingested trades out to every connected subscriber. Each
// subscriber owns a buffered channel; publish is non-blocking, so one stalled
// consumer drops its own events instead of starving the others or the
// ingestion path.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan types.Trade]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan types.Trade]struct{})}
}

func (h *Hub) Subscribe() chan types.Trade {
	ch := make(chan types.Trade, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes the channel. Safe to call more than once.
func (h *Hub) Unsubscribe(ch chan types.Trade) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers the trade to all current subscribers, best effort.
func (h *Hub) Publish(t types.Trade) {
	h.mu.RLock()
	for ch := range h.subs {
		select {
		case ch <- t:
		default:
		}
	}
	h.mu.RUnlock()
}

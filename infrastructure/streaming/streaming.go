// Package streaming implements the SSE-compatible subscribe channel
// and websocket broadcaster: every emitted OmenSignal is pushed to
// connected subscribers; a disconnect drops that subscriber without
// affecting the producer.
package streaming

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hoangpro/omen/domain/signal"
)

// subscriberBuffer bounds how far a slow subscriber can lag before
// signals for it are dropped, so one stalled consumer never blocks the
// producer.
const subscriberBuffer = 64

// Hub fans out every Publish call to all currently-subscribed channels.
type Hub struct {
	mu   sync.Mutex
	subs map[chan signal.OmenSignal]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan signal.OmenSignal]struct{})}
}

// Subscribe registers a new channel and returns it plus an unsubscribe
// function the caller must call on disconnect.
func (h *Hub) Subscribe() (chan signal.OmenSignal, func()) {
	ch := make(chan signal.OmenSignal, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish pushes sig to every subscriber. A subscriber whose buffer is
// full is skipped for this signal rather than blocking the producer.
func (h *Hub) Publish(sig signal.OmenSignal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- sig:
		default:
			log.Warn().Str("signal_id", sig.SignalID).Msg("streaming: subscriber buffer full, dropping signal for it")
		}
	}
}

// ServeSSE implements the SSE-compatible subscribe channel: one
// `{"data": <OmenSignal JSON>}` line per signal until the client
// disconnects.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			body, err := json.Marshal(map[string]signal.OmenSignal{"data": sig})
			if err != nil {
				continue
			}
			if _, err := w.Write(append([]byte("data: "), append(body, '\n', '\n')...)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and streams signals as JSON
// text frames until the client disconnects or a write fails.
func (h *Hub) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("streaming: websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for sig := range ch {
		if err := conn.WriteJSON(sig); err != nil {
			return
		}
	}
}

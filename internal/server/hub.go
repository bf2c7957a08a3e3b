package server

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub fans pipeline progress events out to WebSocket subscribers,
// grouped by run ID. A run with no subscribers publishes into the void;
// progress streaming is best effort and never blocks the pipeline.
type Hub struct {
	mu     sync.Mutex
	runs   map[string]map[*websocket.Conn]struct{}
	logger zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		runs:   make(map[string]map[*websocket.Conn]struct{}),
		logger: logger.With().Str("component", "ws-hub").Logger(),
	}
}

// Subscribe registers conn for events on runID.
func (h *Hub) Subscribe(runID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.runs[runID] == nil {
		h.runs[runID] = make(map[*websocket.Conn]struct{})
	}
	h.runs[runID][conn] = struct{}{}
}

// Unsubscribe removes conn from runID. The caller closes the connection.
func (h *Hub) Unsubscribe(runID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.runs[runID], conn)
	if len(h.runs[runID]) == 0 {
		delete(h.runs, runID)
	}
}

// Publish sends event to every subscriber of runID. Write failures drop
// the subscriber.
func (h *Hub) Publish(runID string, event any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.runs[runID] {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug().Err(err).Str("run_id", runID).Msg("Dropping dead subscriber")
			conn.Close()
			delete(h.runs[runID], conn)
		}
	}
}

// CloseAll closes every subscriber connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for runID, conns := range h.runs {
		for conn := range conns {
			conn.Close()
		}
		delete(h.runs, runID)
	}
}

// SubscriberCount reports the number of subscribers for runID.
func (h *Hub) SubscriberCount(runID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.runs[runID])
}

// Package websocket pushes graph refresh events to connected dashboard
// clients. The hub fans a small notification out to every client; clients
// fetch the full model over HTTP.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"falak/internal/graph"
)

// Message types sent to clients.
const (
	TypeConnection   = "connection"
	TypeGraphRefresh = "graph:refresh"
)

// Message is the envelope for every event sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// RefreshEvent is the payload of a graph:refresh message.
type RefreshEvent struct {
	ModelID     string    `json:"model_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Instruments int       `json:"instruments"`
	Edges       int       `json:"edges"`
}

// Hub maintains the set of active clients and broadcasts refresh events to
// them.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*Client]bool

	logger *slog.Logger
}

// NewHub creates a Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket_hub")),
	}
}

// Run processes client registration and broadcasts until the context is
// cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client registered", slog.Int("clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client unregistered", slog.Int("clients", count))

		case payload := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow client; drop the event rather than block the
					// hub.
				}
			}
			h.mu.RUnlock()
		}
	}
}

func marshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// NotifyRefresh implements the graph service notifier: it broadcasts a
// refresh event describing the new model.
func (h *Hub) NotifyRefresh(model *graph.MarketGraphModel) {
	msg := Message{
		Type:      TypeGraphRefresh,
		Timestamp: time.Now().UTC(),
		Data: RefreshEvent{
			ModelID:     model.ID,
			GeneratedAt: model.GeneratedAt,
			Instruments: len(model.Instruments),
			Edges:       len(model.Edges),
		},
	}

	payload, err := marshalMessage(msg)
	if err != nil {
		h.logger.Error("marshal refresh event", slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("broadcast queue full, refresh event dropped")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

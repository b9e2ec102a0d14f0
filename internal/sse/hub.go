package sse

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/playgate/internal/model"
)

// Hub fans one viewer's events out to its connected streams
type Hub struct {
	viewerID model.ViewerID
	clients  map[*Client]bool
	mu       sync.RWMutex
	logger   *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a viewer
func NewHub(viewerID model.ViewerID, logger *slog.Logger) *Hub {
	return &Hub{
		viewerID:   viewerID,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("viewer_id", string(viewerID))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	defer close(h.stopped)
	h.logger.Debug("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.done:
			// Flush what was queued before Close, typically the closing event
		drain:
			for {
				select {
				case msg := <-h.broadcast:
					h.deliver(msg)
				default:
					break drain
				}
			}

			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("sse client unregistered",
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

func (h *Hub) deliver(msg []byte) {
	h.mu.RLock()
	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			dropped++
			h.logger.Warn("sse message dropped - client buffer full",
				slog.String("client_id", client.id))
		}
	}
	sent := len(h.clients) - dropped
	h.mu.RUnlock()

	if dropped > 0 {
		h.logger.Warn("sse broadcast partial failure",
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
}

// Register adds a client to the hub. It returns false if the hub has
// already stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// BroadcastEvent sends an SSE event with a name and data
func (h *Hub) BroadcastEvent(eventName, data string) {
	select {
	case h.broadcast <- formatSSEMessage(eventName, data):
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// Close shuts down the hub after delivering queued messages
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message with event name and data.
// Each line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteString("\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits on \n, dropping \r and a trailing empty line
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager manages hubs for all viewers
type HubManager struct {
	hubs   map[model.ViewerID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.ViewerID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a viewer, creating and starting one if
// needed. created reports whether a new hub was made.
func (m *HubManager) GetOrCreateHub(viewerID model.ViewerID) (hub *Hub, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[viewerID]; ok {
		return hub, false
	}

	hub = NewHub(viewerID, m.logger)
	m.hubs[viewerID] = hub
	go hub.Run()
	return hub, true
}

// GetHub returns the hub for a viewer, or nil if it doesn't exist
func (m *HubManager) GetHub(viewerID model.ViewerID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[viewerID]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(viewerID model.ViewerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[viewerID]; ok {
		hub.Close()
		delete(m.hubs, viewerID)
		m.logger.Info("sse hub removed", slog.String("viewer_id", string(viewerID)))
	}
}

// Count returns the number of live hubs
func (m *HubManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// CloseAll closes every hub
func (m *HubManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}

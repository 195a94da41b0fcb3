package stream

import (
	"log/slog"
	"sync"

	"github.com/pairwise-games/stakeroom/internal/model"
)

// Hub fans out snapshot broadcasts and directed events to all connected
// participants over SSE. One hub serves the whole process.
type Hub struct {
	mu      sync.RWMutex
	clients map[model.ConnectionID]*Client
	closed  bool
	logger  *slog.Logger
}

// Ensure Hub implements Publisher
var _ Publisher = (*Hub)(nil)

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionID]*Client),
		logger:  logger.With(slog.String("component", "stream")),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(client.send)
		return
	}
	h.clients[client.connID] = client
	h.logger.Info("stream client registered",
		slog.String("connection_id", string(client.connID)),
		slog.String("user_id", string(client.userID)),
		slog.Int("total_clients", len(h.clients)))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[client.connID]; ok && current == client {
		delete(h.clients, client.connID)
		close(client.send)
		h.logger.Info("stream client unregistered",
			slog.String("connection_id", string(client.connID)),
			slog.Int("total_clients", len(h.clients)))
	}
}

// PublishSnapshots fans out the open-challenges and active-matches views.
// The own flag on each challenge reflects the receiving participant, so
// challenge creators get a personalized rendering. Every other viewer sees
// the same list and shares one rendering.
func (h *Hub) PublishSnapshots(challenges []*model.Challenge, matches []model.MatchView) {
	matchesMsg := formatSSEMessage(string(model.EventActiveMatches), encodeActiveMatches(matches))

	creators := make(map[model.UserID]bool, len(challenges))
	for _, ch := range challenges {
		creators[ch.CreatorUserID] = true
	}
	neutralMsg := formatSSEMessage(string(model.EventOpenChallenges),
		encodeOpenChallenges(challenges, ""))
	ownerMsgs := make(map[model.UserID][]byte, len(creators))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		challengesMsg := neutralMsg
		if creators[client.userID] {
			msg, ok := ownerMsgs[client.userID]
			if !ok {
				msg = formatSSEMessage(string(model.EventOpenChallenges),
					encodeOpenChallenges(challenges, client.userID))
				ownerMsgs[client.userID] = msg
			}
			challengesMsg = msg
		}
		client.trySend(h.logger, challengesMsg)
		client.trySend(h.logger, matchesMsg)
	}
}

// SendSnapshotTo delivers the current views to a single connection
func (h *Hub) SendSnapshotTo(connID model.ConnectionID, challenges []*model.Challenge, matches []model.MatchView) {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	client.trySend(h.logger, formatSSEMessage(string(model.EventOpenChallenges),
		encodeOpenChallenges(challenges, client.userID)))
	client.trySend(h.logger, formatSSEMessage(string(model.EventActiveMatches),
		encodeActiveMatches(matches)))
}

// SendTo delivers a directed event to a single connection
func (h *Hub) SendTo(connID model.ConnectionID, event model.Event) {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	client.trySend(h.logger, formatSSEMessage(string(event.Type), encodeEvent(event)))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects further registrations
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for connID, client := range h.clients {
		close(client.send)
		delete(h.clients, connID)
	}
	h.logger.Info("stream hub closed")
}

// formatSSEMessage formats an SSE message with event name and data.
// Multi-line data is properly formatted with "data: " prefix on each line.
func formatSSEMessage(eventName string, data []byte) []byte {
	msg := []byte("event: " + eventName + "\n")
	line := []byte("data: ")
	for _, b := range data {
		if b == '\n' {
			line = append(line, '\n')
			msg = append(msg, line...)
			line = []byte("data: ")
			continue
		}
		if b != '\r' {
			line = append(line, b)
		}
	}
	if len(line) > len("data: ") {
		line = append(line, '\n')
		msg = append(msg, line...)
	}
	msg = append(msg, '\n')
	return msg
}

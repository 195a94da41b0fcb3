package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pairwise-games/stakeroom/internal/model"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client represents a connected SSE client
type Client struct {
	connID model.ConnectionID
	userID model.UserID
	send   chan []byte
}

// NewClient creates a new SSE client
func NewClient(connID model.ConnectionID, userID model.UserID) *Client {
	return &Client{
		connID: connID,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

// trySend enqueues a message without blocking, dropping it if the client's
// buffer is full
func (c *Client) trySend(logger *slog.Logger, msg []byte) {
	select {
	case c.send <- msg:
	default:
		logger.Warn("stream message dropped - client buffer full",
			slog.String("connection_id", string(c.connID)))
	}
}

// ServeSSE handles the SSE connection for an already-registered client. It
// blocks until the client disconnects or the hub closes the client's
// channel, and unregisters the client on the way out.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, client *Client) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		hub.Unregister(client)
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	defer hub.Unregister(client)

	// Send initial connection event carrying the connection id
	_, _ = w.Write(formatSSEMessage("connected", encodeConnected(client.connID)))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}

package handler

import (
	"context"
	"net/http"

	"github.com/pairwise-games/stakeroom/internal/api/middleware"
	"github.com/pairwise-games/stakeroom/internal/services/match"
	"github.com/pairwise-games/stakeroom/internal/services/registry"
	"github.com/pairwise-games/stakeroom/internal/stream"
)

// EventsHandler handles the SSE event stream. The stream IS a participant's
// presence: opening it registers the connection, and its close is the single
// leave event that tears the participant down.
type EventsHandler struct {
	hub         *stream.Hub
	registry    *registry.Registry
	coordinator *match.Coordinator
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *stream.Hub, reg *registry.Registry, coordinator *match.Coordinator) *EventsHandler {
	return &EventsHandler{
		hub:         hub,
		registry:    reg,
		coordinator: coordinator,
	}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	p, err := h.registry.Connect(r.Context(), session.UserID, session.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}
	// The request context is already done when the stream ends
	defer h.registry.Disconnect(context.Background(), p.ConnectionID)

	client := stream.NewClient(p.ConnectionID, p.UserID)
	h.hub.Register(client)

	// Seed the stream so the client does not wait for the next transition
	h.coordinator.SeedStream(r.Context(), p.ConnectionID)

	stream.ServeSSE(w, r, h.hub, client)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pairwise-games/stakeroom/internal/api/middleware"
	"github.com/pairwise-games/stakeroom/internal/api/request"
	"github.com/pairwise-games/stakeroom/internal/api/response"
	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/services/match"
	"github.com/pairwise-games/stakeroom/internal/services/registry"
)

// MatchHandler handles match and room-session endpoints
type MatchHandler struct {
	coordinator *match.Coordinator
	registry    *registry.Registry
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(coordinator *match.Coordinator, reg *registry.Registry) *MatchHandler {
	return &MatchHandler{
		coordinator: coordinator,
		registry:    reg,
	}
}

// List handles GET /api/v1/matches
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.coordinator.ActiveMatches(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	matches := make([]response.MatchSummary, len(views))
	for i, v := range views {
		matches[i] = response.MatchSummaryFromView(v)
	}

	response.JSON(w, http.StatusOK, matches)
}

// Get handles GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])

	m, err := h.coordinator.GetMatch(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

// Join handles POST /api/v1/matches/{id}/join
func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	p, err := h.registry.ParticipantFor(r.Context(), session.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	id := model.MatchID(mux.Vars(r)["id"])

	room, err := h.coordinator.Join(r.Context(), p, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromSnapshot(room))
}

// Complete handles POST /api/v1/matches/{id}/complete
// Gated behind the arbiter key: results are declared by the trusted game
// backend, not by players.
func (h *MatchHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])

	var req request.CompleteMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.WinnerUserID == "" {
		WriteError(w, NewInvalidRequestError("winner_user_id is required"))
		return
	}

	m, err := h.coordinator.Complete(r.Context(), id, model.UserID(req.WinnerUserID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

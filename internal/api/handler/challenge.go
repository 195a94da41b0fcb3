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

// ChallengeHandler handles challenge-book endpoints
type ChallengeHandler struct {
	coordinator *match.Coordinator
	registry    *registry.Registry
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(coordinator *match.Coordinator, reg *registry.Registry) *ChallengeHandler {
	return &ChallengeHandler{
		coordinator: coordinator,
		registry:    reg,
	}
}

// Create handles POST /api/v1/challenges
func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := h.activeParticipant(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	ch, err := h.coordinator.CreateChallenge(r.Context(), p, req.Stake)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ChallengeFromModel(ch, p.UserID))
}

// List handles GET /api/v1/challenges
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	views, err := h.coordinator.OpenChallenges(r.Context(), session.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	challenges := make([]response.Challenge, len(views))
	for i, v := range views {
		challenges[i] = response.ChallengeFromView(v)
	}

	response.JSON(w, http.StatusOK, challenges)
}

// Accept handles POST /api/v1/challenges/{id}/accept
func (h *ChallengeHandler) Accept(w http.ResponseWriter, r *http.Request) {
	p, err := h.activeParticipant(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	id := model.ChallengeID(mux.Vars(r)["id"])

	m, err := h.coordinator.AcceptChallenge(r.Context(), p, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

// Withdraw handles DELETE /api/v1/challenges/{id}
func (h *ChallengeHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	p, err := h.activeParticipant(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	id := model.ChallengeID(mux.Vars(r)["id"])

	if err := h.coordinator.WithdrawChallenge(r.Context(), p, id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// activeParticipant resolves the session's user to their live connection.
// Book and match actions require an open event stream.
func (h *ChallengeHandler) activeParticipant(r *http.Request) (*model.Participant, error) {
	session := middleware.MustGetSession(r.Context())
	return h.registry.ParticipantFor(r.Context(), session.UserID)
}

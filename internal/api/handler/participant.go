package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pairwise-games/stakeroom/internal/api/middleware"
	"github.com/pairwise-games/stakeroom/internal/api/request"
	"github.com/pairwise-games/stakeroom/internal/api/response"
	"github.com/pairwise-games/stakeroom/internal/services/auth"
	"github.com/pairwise-games/stakeroom/internal/services/balance"
)

// ParticipantHandler handles participant identity endpoints
type ParticipantHandler struct {
	authService *auth.Service
	gate        balance.Gate
}

// NewParticipantHandler creates a new participant handler
func NewParticipantHandler(authService *auth.Service, gate balance.Gate) *ParticipantHandler {
	return &ParticipantHandler{
		authService: authService,
		gate:        gate,
	}
}

// CreateGuest handles POST /api/v1/participants/guest
func (h *ParticipantHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	session, err := h.authService.CreateGuest(req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// GetMe handles GET /api/v1/participants/me
func (h *ParticipantHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	bal, err := h.gate.Balance(r.Context(), session.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Participant{
		UserID:      string(session.UserID),
		DisplayName: session.DisplayName,
		Balance:     bal,
	})
}

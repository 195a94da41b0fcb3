package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pairwise-games/stakeroom/internal/api/middleware"
	"github.com/pairwise-games/stakeroom/internal/api/request"
	"github.com/pairwise-games/stakeroom/internal/api/response"
	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/services/cancellation"
	"github.com/pairwise-games/stakeroom/internal/services/registry"
)

// CancellationHandler handles cancellation request and arbitration endpoints
type CancellationHandler struct {
	workflow *cancellation.Workflow
	registry *registry.Registry
}

// NewCancellationHandler creates a new cancellation handler
func NewCancellationHandler(workflow *cancellation.Workflow, reg *registry.Registry) *CancellationHandler {
	return &CancellationHandler{
		workflow: workflow,
		registry: reg,
	}
}

// Request handles POST /api/v1/matches/{id}/cancellation
func (h *CancellationHandler) Request(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	p, err := h.registry.ParticipantFor(r.Context(), session.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	id := model.MatchID(mux.Vars(r)["id"])

	var req request.RequestCancellationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Allow empty body; reason is optional
		req = request.RequestCancellationRequest{}
	}

	cr, err := h.workflow.Request(r.Context(), p, id, req.Reason)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CancellationFromModel(cr))
}

// Get handles GET /api/v1/matches/{id}/cancellation
func (h *CancellationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])

	cr, err := h.workflow.PendingRequest(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CancellationFromModel(cr))
}

// Resolve handles POST /api/v1/matches/{id}/cancellation/resolve
// Gated behind the arbiter key.
func (h *CancellationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])

	var req request.ResolveCancellationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	m, err := h.workflow.Resolve(r.Context(), id, model.CancellationDecision(req.Decision))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidDisplayName  = "INVALID_DISPLAY_NAME"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotConnected        = "NOT_CONNECTED"
	CodeInvalidStake        = "INVALID_STAKE"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeChallengeNotFound   = "CHALLENGE_NOT_FOUND"
	CodeSelfAccept          = "SELF_ACCEPT"
	CodeNotChallengeOwner   = "NOT_CHALLENGE_OWNER"
	CodeMatchNotFound       = "MATCH_NOT_FOUND"
	CodeNotAParticipant     = "NOT_A_PARTICIPANT"
	CodeMatchNotJoinable    = "MATCH_NOT_JOINABLE"
	CodeMatchNotInProgress  = "MATCH_NOT_IN_PROGRESS"
	CodeMatchEnded          = "MATCH_ENDED"
	CodeAlreadyRequested    = "CANCELLATION_ALREADY_REQUESTED"
	CodeNoPendingRequest    = "NO_PENDING_CANCELLATION"
	CodeAlreadyResolved     = "CANCELLATION_ALREADY_RESOLVED"
	CodeInvalidDecision     = "INVALID_DECISION"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrParticipantNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotConnected, "Participant not found"}}
	case errors.Is(err, model.ErrNotConnected):
		return &httpError{http.StatusConflict, APIError{CodeNotConnected, "An active event stream is required"}}
	case errors.Is(err, model.ErrInvalidDisplayName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDisplayName, "Display name must not be empty"}}
	case errors.Is(err, model.ErrInvalidStake):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidStake, "Stake must be a positive amount"}}
	case errors.Is(err, model.ErrInsufficientBalance):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientBalance, "Insufficient balance for this stake"}}
	case errors.Is(err, model.ErrChallengeNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeChallengeNotFound, "Challenge not found"}}
	case errors.Is(err, model.ErrSelfAccept):
		return &httpError{http.StatusConflict, APIError{CodeSelfAccept, "Cannot accept your own challenge"}}
	case errors.Is(err, model.ErrNotChallengeOwner):
		return &httpError{http.StatusForbidden, APIError{CodeNotChallengeOwner, "Challenge belongs to another player"}}
	case errors.Is(err, model.ErrMatchNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMatchNotFound, "Match not found"}}
	case errors.Is(err, model.ErrNotAParticipant):
		return &httpError{http.StatusForbidden, APIError{CodeNotAParticipant, "Not a participant of this match"}}
	case errors.Is(err, model.ErrMatchNotJoinable):
		return &httpError{http.StatusConflict, APIError{CodeMatchNotJoinable, "Match is not accepting joins"}}
	case errors.Is(err, model.ErrMatchNotInProgress):
		return &httpError{http.StatusConflict, APIError{CodeMatchNotInProgress, "Match is not in progress"}}
	case errors.Is(err, model.ErrMatchTerminal):
		return &httpError{http.StatusConflict, APIError{CodeMatchEnded, "Match has already ended"}}
	case errors.Is(err, model.ErrAlreadyRequested):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyRequested, "A cancellation request is already pending"}}
	case errors.Is(err, model.ErrNoPendingRequest):
		return &httpError{http.StatusNotFound, APIError{CodeNoPendingRequest, "No pending cancellation request"}}
	case errors.Is(err, model.ErrAlreadyResolved):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyResolved, "Cancellation request already resolved"}}
	case errors.Is(err, model.ErrInvalidDecision):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDecision, "Decision must be approved or rejected"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrInvalidArbiterKey):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Invalid arbiter key"}}
	case errors.Is(err, auth.ErrArbiterDisabled):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Arbiter access not configured"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

package request

// CreateGuestRequest is the request body for creating a guest participant
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// CreateChallengeRequest is the request body for opening a challenge
type CreateChallengeRequest struct {
	Stake int64 `json:"stake"`
}

// CompleteMatchRequest is the request body for declaring a match result
type CompleteMatchRequest struct {
	WinnerUserID string `json:"winner_user_id"`
}

// RequestCancellationRequest is the request body for requesting cancellation
type RequestCancellationRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ResolveCancellationRequest is the request body for an arbiter's ruling
type ResolveCancellationRequest struct {
	Decision string `json:"decision"`
}

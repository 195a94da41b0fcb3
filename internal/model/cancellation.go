package model

import "time"

// CancellationID uniquely identifies a cancellation request
type CancellationID string

// CancellationStatus is the arbitration status of a cancellation request
type CancellationStatus string

const (
	CancellationPending  CancellationStatus = "pending"
	CancellationApproved CancellationStatus = "approved"
	CancellationRejected CancellationStatus = "rejected"
)

// CancellationDecision is an arbiter's ruling on a pending request
type CancellationDecision string

const (
	DecisionApproved CancellationDecision = "approved"
	DecisionRejected CancellationDecision = "rejected"
)

// Valid reports whether the decision is one an arbiter may submit
func (d CancellationDecision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// CancellationRequest is a player-initiated early-termination request
// awaiting external arbitration. At most one request is outstanding per
// match; resolved requests are kept for the idempotence check on repeat
// resolve calls.
type CancellationRequest struct {
	ID               CancellationID
	MatchID          MatchID
	RequestingUserID UserID
	Reason           string
	Status           CancellationStatus
	CreatedAt        time.Time
	ResolvedAt       time.Time // zero while pending
}

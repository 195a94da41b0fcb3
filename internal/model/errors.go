package model

import "errors"

// Common errors used across the application
var (
	// Participant errors
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNotConnected        = errors.New("no active event stream for participant")
	ErrInvalidDisplayName  = errors.New("display name must not be empty")

	// Challenge errors
	ErrInvalidStake        = errors.New("stake must be a positive amount")
	ErrInsufficientBalance = errors.New("insufficient balance for stake")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrSelfAccept          = errors.New("cannot accept your own challenge")
	ErrNotChallengeOwner   = errors.New("challenge belongs to another player")

	// Match errors
	ErrMatchNotFound      = errors.New("match not found")
	ErrNotAParticipant    = errors.New("not a participant of this match")
	ErrMatchNotJoinable   = errors.New("match is not accepting joins")
	ErrMatchNotInProgress = errors.New("match is not in progress")
	ErrMatchTerminal      = errors.New("match has already ended")

	// Cancellation errors
	ErrAlreadyRequested = errors.New("a cancellation request is already pending")
	ErrNoPendingRequest = errors.New("no pending cancellation request")
	ErrAlreadyResolved  = errors.New("cancellation request already resolved")
	ErrInvalidDecision  = errors.New("invalid cancellation decision")
)

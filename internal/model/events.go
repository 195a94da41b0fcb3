package model

import "time"

// EventType identifies the type of an outbound event
type EventType string

const (
	// Broadcast views, republished after every committed transition
	EventOpenChallenges EventType = "open_challenges"
	EventActiveMatches  EventType = "active_matches"

	// Directed match lifecycle events
	EventMatchFormed           EventType = "match_formed"
	EventEnterRoom             EventType = "enter_room"
	EventMatchStarted          EventType = "match_started"
	EventMatchCompleted        EventType = "match_completed"
	EventCancellationRequested EventType = "cancellation_requested"
	EventCancellationResolved  EventType = "cancellation_resolved"
	EventOpponentDisconnected  EventType = "opponent_disconnected"
)

// Event is the base structure for all outbound events
type Event struct {
	Type      EventType
	Timestamp time.Time
	MatchID   MatchID // empty for book-level events
	Payload   any     // type-specific data, one of the payload structs below
}

// MatchFormedPayload notifies both sides that a challenge was consumed
// into a match; each side must still confirm by joining the room
type MatchFormedPayload struct {
	MatchID      MatchID
	Stake        int64
	OpponentName string
}

// EnterRoomPayload directs a connection into the match's room session
type EnterRoomPayload struct {
	MatchID MatchID
}

// MatchStartedPayload is emitted when the second distinct participant joins
type MatchStartedPayload struct {
	MatchID MatchID
	PlayerA string
	PlayerB string
	Stake   int64
}

// MatchCompletedPayload carries the declared result
type MatchCompletedPayload struct {
	MatchID      MatchID
	WinnerUserID UserID
	Pot          int64
}

// CancellationRequestedPayload notifies the opponent that arbitration is pending
type CancellationRequestedPayload struct {
	MatchID          MatchID
	RequestingUserID UserID
	Reason           string
}

// CancellationResolvedPayload carries the arbiter's ruling
type CancellationResolvedPayload struct {
	MatchID  MatchID
	Decision CancellationDecision
	// State the match moved to: cancelled on approval, in_progress on rejection
	MatchState MatchState
}

// OpponentDisconnectedPayload is a forced terminal transition, not an error;
// the external ledger decides what happens to the escrowed stakes
type OpponentDisconnectedPayload struct {
	MatchID        MatchID
	DepartedUserID UserID
}

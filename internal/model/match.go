package model

import "time"

// MatchID uniquely identifies a formed match
type MatchID string

// MatchState represents the session lifecycle of a match
type MatchState string

const (
	MatchStateForming               MatchState = "forming"
	MatchStateWaiting               MatchState = "waiting"
	MatchStateInProgress            MatchState = "in_progress"
	MatchStateCancellationRequested MatchState = "cancellation_requested"
	MatchStateCompleted             MatchState = "completed"
	MatchStateCancelled             MatchState = "cancelled"
)

// Terminal reports whether no further transitions are legal from this state
func (s MatchState) Terminal() bool {
	return s == MatchStateCompleted || s == MatchStateCancelled
}

// Active reports whether the match should appear in the active-matches view
func (s MatchState) Active() bool {
	return !s.Terminal() && s != MatchStateForming
}

// PlayerSlot is a snapshot of one participant taken at match formation.
// ConnectionID is rebound when the same user rejoins on a new connection.
type PlayerSlot struct {
	UserID       UserID
	ConnectionID ConnectionID
	DisplayName  string
	Joined       bool
}

// Match is a formed pairing of two participants at a stake
type Match struct {
	ID           MatchID
	PlayerA      PlayerSlot
	PlayerB      PlayerSlot
	Stake        int64
	State        MatchState
	JoinedCount  int
	WinnerUserID UserID // set when State is completed
	CancelReason string // set when State is cancelled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SlotFor returns the slot for the given user, or nil if the user is not a
// participant of this match
func (m *Match) SlotFor(userID UserID) *PlayerSlot {
	if m.PlayerA.UserID == userID {
		return &m.PlayerA
	}
	if m.PlayerB.UserID == userID {
		return &m.PlayerB
	}
	return nil
}

// SlotForConnection returns the slot currently bound to the given connection,
// or nil if the connection is not part of this match
func (m *Match) SlotForConnection(connID ConnectionID) *PlayerSlot {
	if m.PlayerA.ConnectionID == connID {
		return &m.PlayerA
	}
	if m.PlayerB.ConnectionID == connID {
		return &m.PlayerB
	}
	return nil
}

// Opponent returns the slot opposite the given user
func (m *Match) Opponent(userID UserID) *PlayerSlot {
	if m.PlayerA.UserID == userID {
		return &m.PlayerB
	}
	return &m.PlayerA
}

// HasConnection reports whether the connection is bound to either slot
func (m *Match) HasConnection(connID ConnectionID) bool {
	return m.SlotForConnection(connID) != nil
}

// MatchView is a match as published in the active-matches broadcast; it
// carries no connection ids or other internals beyond the match id
type MatchView struct {
	ID      MatchID
	PlayerA string
	PlayerB string
	Stake   int64
	State   MatchState
}

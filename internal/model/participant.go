package model

import "time"

// UserID uniquely identifies a participant across connections
type UserID string

// ConnectionID identifies a single live connection; a participant gets a
// fresh one on every reconnect
type ConnectionID string

// Participant represents a connected player
type Participant struct {
	ConnectionID ConnectionID
	UserID       UserID
	DisplayName  string
	ConnectedAt  time.Time
}

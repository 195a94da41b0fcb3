package response

import (
	"time"

	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/services/auth"
	"github.com/pairwise-games/stakeroom/internal/services/match"
)

// Participant represents a participant identity in API responses
type Participant struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Balance     int64  `json:"balance"`
}

// AuthResponse is the response for the guest creation endpoint
type AuthResponse struct {
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		UserID:       string(s.UserID),
		DisplayName:  s.DisplayName,
		SessionToken: s.Token,
	}
}

// Challenge represents an open challenge in API responses
type Challenge struct {
	ID          string    `json:"id"`
	CreatorName string    `json:"creator_name"`
	Stake       int64     `json:"stake"`
	Own         bool      `json:"own,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// ChallengeFromModel converts a model.Challenge to a response Challenge
func ChallengeFromModel(c *model.Challenge, requesterID model.UserID) Challenge {
	return Challenge{
		ID:          string(c.ID),
		CreatorName: c.CreatorName,
		Stake:       c.Stake,
		Own:         c.CreatorUserID == requesterID,
		CreatedAt:   c.CreatedAt,
	}
}

// ChallengeFromView converts a model.ChallengeView
func ChallengeFromView(v model.ChallengeView) Challenge {
	return Challenge{
		ID:          string(v.ID),
		CreatorName: v.CreatorName,
		Stake:       v.Stake,
		Own:         v.Own,
	}
}

// PlayerSlot represents one side of a match
type PlayerSlot struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Joined      bool   `json:"joined"`
}

// Match represents a match in API responses
type Match struct {
	ID           string     `json:"id"`
	PlayerA      PlayerSlot `json:"player_a"`
	PlayerB      PlayerSlot `json:"player_b"`
	Stake        int64      `json:"stake"`
	State        string     `json:"state"`
	JoinedCount  int        `json:"joined_count"`
	WinnerUserID string     `json:"winner_user_id,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
}

// MatchFromModel converts a model.Match to a response Match
func MatchFromModel(m *model.Match) Match {
	return Match{
		ID:           string(m.ID),
		PlayerA:      slotFromModel(m.PlayerA),
		PlayerB:      slotFromModel(m.PlayerB),
		Stake:        m.Stake,
		State:        string(m.State),
		JoinedCount:  m.JoinedCount,
		WinnerUserID: string(m.WinnerUserID),
		CancelReason: m.CancelReason,
	}
}

func slotFromModel(s model.PlayerSlot) PlayerSlot {
	return PlayerSlot{
		UserID:      string(s.UserID),
		DisplayName: s.DisplayName,
		Joined:      s.Joined,
	}
}

// MatchSummary is a match as listed in the active-matches view
type MatchSummary struct {
	ID      string `json:"id"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	Stake   int64  `json:"stake"`
	State   string `json:"state"`
}

// MatchSummaryFromView converts a model.MatchView
func MatchSummaryFromView(v model.MatchView) MatchSummary {
	return MatchSummary{
		ID:      string(v.ID),
		PlayerA: v.PlayerA,
		PlayerB: v.PlayerB,
		Stake:   v.Stake,
		State:   string(v.State),
	}
}

// Room represents a room snapshot returned from a join
type Room struct {
	MatchID     string   `json:"match_id"`
	Players     []string `json:"players"`
	State       string   `json:"state"`
	JoinedCount int      `json:"joined_count"`
}

// RoomFromSnapshot converts a match.RoomSnapshot
func RoomFromSnapshot(s *match.RoomSnapshot) Room {
	return Room{
		MatchID:     string(s.MatchID),
		Players:     s.Players,
		State:       string(s.State),
		JoinedCount: s.JoinedCount,
	}
}

// Cancellation represents a cancellation request in API responses
type Cancellation struct {
	ID               string    `json:"id"`
	MatchID          string    `json:"match_id"`
	RequestingUserID string    `json:"requesting_user_id"`
	Reason           string    `json:"reason,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// CancellationFromModel converts a model.CancellationRequest
func CancellationFromModel(c *model.CancellationRequest) Cancellation {
	return Cancellation{
		ID:               string(c.ID),
		MatchID:          string(c.MatchID),
		RequestingUserID: string(c.RequestingUserID),
		Reason:           c.Reason,
		Status:           string(c.Status),
		CreatedAt:        c.CreatedAt,
	}
}

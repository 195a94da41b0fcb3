package stream

import (
	"encoding/json"

	"github.com/pairwise-games/stakeroom/internal/model"
)

// Wire shapes for outbound events. Field sets are fixed per event name so
// clients can decode on the event tag alone.

type challengeWire struct {
	ID          string `json:"id"`
	CreatorName string `json:"creator_name"`
	Stake       int64  `json:"stake"`
	Own         bool   `json:"own"`
}

type matchWire struct {
	ID      string `json:"id"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	Stake   int64  `json:"stake"`
	State   string `json:"state"`
}

type connectedWire struct {
	Status       string `json:"status"`
	ConnectionID string `json:"connection_id"`
}

type matchFormedWire struct {
	MatchID      string `json:"match_id"`
	Stake        int64  `json:"stake"`
	OpponentName string `json:"opponent_name"`
}

type enterRoomWire struct {
	MatchID string `json:"match_id"`
}

type matchStartedWire struct {
	MatchID string `json:"match_id"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	Stake   int64  `json:"stake"`
}

type matchCompletedWire struct {
	MatchID      string `json:"match_id"`
	WinnerUserID string `json:"winner_user_id"`
	Pot          int64  `json:"pot"`
}

type cancellationRequestedWire struct {
	MatchID          string `json:"match_id"`
	RequestingUserID string `json:"requesting_user_id"`
	Reason           string `json:"reason"`
}

type cancellationResolvedWire struct {
	MatchID    string `json:"match_id"`
	Decision   string `json:"decision"`
	MatchState string `json:"match_state"`
}

type opponentDisconnectedWire struct {
	MatchID        string `json:"match_id"`
	DepartedUserID string `json:"departed_user_id"`
}

func encodeConnected(connID model.ConnectionID) []byte {
	return mustMarshal(connectedWire{Status: "connected", ConnectionID: string(connID)})
}

func encodeOpenChallenges(challenges []*model.Challenge, viewer model.UserID) []byte {
	views := make([]challengeWire, 0, len(challenges))
	for _, ch := range challenges {
		views = append(views, challengeWire{
			ID:          string(ch.ID),
			CreatorName: ch.CreatorName,
			Stake:       ch.Stake,
			Own:         ch.CreatorUserID == viewer,
		})
	}
	return mustMarshal(views)
}

func encodeActiveMatches(matches []model.MatchView) []byte {
	views := make([]matchWire, 0, len(matches))
	for _, m := range matches {
		views = append(views, matchWire{
			ID:      string(m.ID),
			PlayerA: m.PlayerA,
			PlayerB: m.PlayerB,
			Stake:   m.Stake,
			State:   string(m.State),
		})
	}
	return mustMarshal(views)
}

// encodeEvent renders a directed event's payload to its wire shape
func encodeEvent(event model.Event) []byte {
	switch p := event.Payload.(type) {
	case model.MatchFormedPayload:
		return mustMarshal(matchFormedWire{
			MatchID:      string(p.MatchID),
			Stake:        p.Stake,
			OpponentName: p.OpponentName,
		})
	case model.EnterRoomPayload:
		return mustMarshal(enterRoomWire{MatchID: string(p.MatchID)})
	case model.MatchStartedPayload:
		return mustMarshal(matchStartedWire{
			MatchID: string(p.MatchID),
			PlayerA: p.PlayerA,
			PlayerB: p.PlayerB,
			Stake:   p.Stake,
		})
	case model.MatchCompletedPayload:
		return mustMarshal(matchCompletedWire{
			MatchID:      string(p.MatchID),
			WinnerUserID: string(p.WinnerUserID),
			Pot:          p.Pot,
		})
	case model.CancellationRequestedPayload:
		return mustMarshal(cancellationRequestedWire{
			MatchID:          string(p.MatchID),
			RequestingUserID: string(p.RequestingUserID),
			Reason:           p.Reason,
		})
	case model.CancellationResolvedPayload:
		return mustMarshal(cancellationResolvedWire{
			MatchID:    string(p.MatchID),
			Decision:   string(p.Decision),
			MatchState: string(p.MatchState),
		})
	case model.OpponentDisconnectedPayload:
		return mustMarshal(opponentDisconnectedWire{
			MatchID:        string(p.MatchID),
			DepartedUserID: string(p.DepartedUserID),
		})
	default:
		return mustMarshal(struct{}{})
	}
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// All wire types marshal cleanly; this is unreachable
		return []byte("{}")
	}
	return data
}

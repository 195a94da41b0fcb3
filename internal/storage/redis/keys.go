package redis

import (
	"fmt"

	"github.com/pairwise-games/stakeroom/internal/model"
)

// Key prefix for all coordination data
const keyPrefix = "stakeroom"

// Key generation functions for each entity type

// participantKey returns the Redis key for a Participant
func participantKey(connID model.ConnectionID) string {
	return fmt.Sprintf("%s:participant:%s", keyPrefix, connID)
}

// challengeKey returns the Redis key for a Challenge
func challengeKey(id model.ChallengeID) string {
	return fmt.Sprintf("%s:challenge:%s", keyPrefix, id)
}

// challengeIndexKey returns the Redis key for the SET of open challenge keys
func challengeIndexKey() string {
	return fmt.Sprintf("%s:idx:challenges", keyPrefix)
}

// matchKey returns the Redis key for a Match
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// matchIndexKey returns the Redis key for the SET of match keys
func matchIndexKey() string {
	return fmt.Sprintf("%s:idx:matches", keyPrefix)
}

// cancellationKey returns the Redis key for a match's current CancellationRequest
func cancellationKey(matchID model.MatchID) string {
	return fmt.Sprintf("%s:cancellation:%s", keyPrefix, matchID)
}

package storage

import (
	"context"

	"github.com/pairwise-games/stakeroom/internal/model"
)

// Storage defines the interface for data persistence.
//
// Implementations guarantee per-operation consistency only; the coordination
// services own the critical sections that span multiple operations.
type Storage interface {
	// Participant operations
	SaveParticipant(ctx context.Context, p *model.Participant) error
	GetParticipant(ctx context.Context, connID model.ConnectionID) (*model.Participant, error)
	DeleteParticipant(ctx context.Context, connID model.ConnectionID) error

	// Challenge operations
	SaveChallenge(ctx context.Context, ch *model.Challenge) error
	GetChallenge(ctx context.Context, id model.ChallengeID) (*model.Challenge, error)
	DeleteChallenge(ctx context.Context, id model.ChallengeID) error
	ListChallenges(ctx context.Context) ([]*model.Challenge, error)
	ChallengeExists(ctx context.Context, id model.ChallengeID) (bool, error)

	// Match operations
	SaveMatch(ctx context.Context, m *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	DeleteMatch(ctx context.Context, id model.MatchID) error
	ListActiveMatches(ctx context.Context) ([]*model.Match, error)

	// Cancellation request operations, keyed by match (at most one current
	// request per match)
	SaveCancellation(ctx context.Context, req *model.CancellationRequest) error
	GetCancellationForMatch(ctx context.Context, matchID model.MatchID) (*model.CancellationRequest, error)
	DeleteCancellationForMatch(ctx context.Context, matchID model.MatchID) error
}

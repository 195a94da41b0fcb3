package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
//
// Entities are stored and returned by value, matching the redis backend's
// marshal/unmarshal semantics: a caller mutating a returned entity changes
// nothing until it saves, and entities handed out earlier never observe
// later writes. All model structs are flat, so a struct copy is a full copy.
type Storage struct {
	mu sync.RWMutex

	participants  map[model.ConnectionID]model.Participant
	challenges    map[model.ChallengeID]model.Challenge
	matches       map[model.MatchID]model.Match
	cancellations map[model.MatchID]model.CancellationRequest
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		participants:  make(map[model.ConnectionID]model.Participant),
		challenges:    make(map[model.ChallengeID]model.Challenge),
		matches:       make(map[model.MatchID]model.Match),
		cancellations: make(map[model.MatchID]model.CancellationRequest),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Participant operations

func (s *Storage) SaveParticipant(ctx context.Context, p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ConnectionID] = *p
	return nil
}

func (s *Storage) GetParticipant(ctx context.Context, connID model.ConnectionID) (*model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[connID]
	if !ok {
		return nil, model.ErrParticipantNotFound
	}
	return &p, nil
}

func (s *Storage) DeleteParticipant(ctx context.Context, connID model.ConnectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, connID)
	return nil
}

// Challenge operations

func (s *Storage) SaveChallenge(ctx context.Context, ch *model.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[ch.ID] = *ch
	return nil
}

func (s *Storage) GetChallenge(ctx context.Context, id model.ChallengeID) (*model.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.challenges[id]
	if !ok {
		return nil, model.ErrChallengeNotFound
	}
	return &ch, nil
}

func (s *Storage) DeleteChallenge(ctx context.Context, id model.ChallengeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, id)
	return nil
}

func (s *Storage) ListChallenges(ctx context.Context) ([]*model.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	challenges := make([]*model.Challenge, 0, len(s.challenges))
	for _, ch := range s.challenges {
		cp := ch
		challenges = append(challenges, &cp)
	}
	sortChallenges(challenges)
	return challenges, nil
}

func (s *Storage) ChallengeExists(ctx context.Context, id model.ChallengeID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.challenges[id]
	return ok, nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, m *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = *m
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return &m, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	return nil
}

func (s *Storage) ListActiveMatches(ctx context.Context) ([]*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []*model.Match
	for _, m := range s.matches {
		if m.State.Active() {
			cp := m
			matches = append(matches, &cp)
		}
	}
	sortMatches(matches)
	return matches, nil
}

// Cancellation request operations

func (s *Storage) SaveCancellation(ctx context.Context, req *model.CancellationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancellations[req.MatchID] = *req
	return nil
}

func (s *Storage) GetCancellationForMatch(ctx context.Context, matchID model.MatchID) (*model.CancellationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.cancellations[matchID]
	if !ok {
		return nil, model.ErrNoPendingRequest
	}
	return &req, nil
}

func (s *Storage) DeleteCancellationForMatch(ctx context.Context, matchID model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancellations, matchID)
	return nil
}

// Snapshot views are published after every transition, so listings need a
// stable order across calls
func sortChallenges(challenges []*model.Challenge) {
	sort.Slice(challenges, func(i, j int) bool {
		if challenges[i].CreatedAt.Equal(challenges[j].CreatedAt) {
			return challenges[i].ID < challenges[j].ID
		}
		return challenges[i].CreatedAt.Before(challenges[j].CreatedAt)
	})
}

func sortMatches(matches []*model.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
}

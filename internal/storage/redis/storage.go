package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Participant operations

func (s *Storage) SaveParticipant(ctx context.Context, p *model.Participant) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, participantKey(p.ConnectionID), data, s.cfg.ParticipantTTL).Err()
}

func (s *Storage) GetParticipant(ctx context.Context, connID model.ConnectionID) (*model.Participant, error) {
	data, err := s.client.Get(ctx, participantKey(connID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrParticipantNotFound
		}
		return nil, err
	}

	var p model.Participant
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) DeleteParticipant(ctx context.Context, connID model.ConnectionID) error {
	return s.client.Del(ctx, participantKey(connID)).Err()
}

// Challenge operations

func (s *Storage) SaveChallenge(ctx context.Context, ch *model.Challenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return err
	}

	key := challengeKey(ch.ID)
	indexKey := challengeIndexKey()

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.ChallengeTTL)
	pipe.SAdd(ctx, indexKey, key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetChallenge(ctx context.Context, id model.ChallengeID) (*model.Challenge, error) {
	data, err := s.client.Get(ctx, challengeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrChallengeNotFound
		}
		return nil, err
	}

	var ch model.Challenge
	if err := json.Unmarshal(data, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *Storage) DeleteChallenge(ctx context.Context, id model.ChallengeID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, challengeKey(id))
	pipe.SRem(ctx, challengeIndexKey(), challengeKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListChallenges(ctx context.Context) ([]*model.Challenge, error) {
	keys, err := s.client.SMembers(ctx, challengeIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.Challenge{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	challenges := make([]*model.Challenge, 0, len(values))
	var stale []interface{}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Value expired out from under the index
			stale = append(stale, keys[i])
			continue
		}
		var ch model.Challenge
		if err := json.Unmarshal([]byte(str), &ch); err != nil {
			return nil, err
		}
		challenges = append(challenges, &ch)
	}

	if len(stale) > 0 {
		_ = s.client.SRem(ctx, challengeIndexKey(), stale...).Err()
	}

	sortChallenges(challenges)
	return challenges, nil
}

func (s *Storage) ChallengeExists(ctx context.Context, id model.ChallengeID) (bool, error) {
	exists, err := s.client.Exists(ctx, challengeKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, m *model.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	key := matchKey(m.ID)
	indexKey := matchIndexKey()

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.MatchTTL)
	pipe.SAdd(ctx, indexKey, key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	data, err := s.client.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	var m model.Match
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, matchKey(id))
	pipe.SRem(ctx, matchIndexKey(), matchKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListActiveMatches(ctx context.Context) ([]*model.Match, error) {
	keys, err := s.client.SMembers(ctx, matchIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var matches []*model.Match
	var stale []interface{}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, keys[i])
			continue
		}
		var m model.Match
		if err := json.Unmarshal([]byte(str), &m); err != nil {
			return nil, err
		}
		if m.State.Active() {
			matches = append(matches, &m)
		}
	}

	if len(stale) > 0 {
		_ = s.client.SRem(ctx, matchIndexKey(), stale...).Err()
	}

	sortMatches(matches)
	return matches, nil
}

// Cancellation request operations

func (s *Storage) SaveCancellation(ctx context.Context, req *model.CancellationRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cancellationKey(req.MatchID), data, s.cfg.CancellationTTL).Err()
}

func (s *Storage) GetCancellationForMatch(ctx context.Context, matchID model.MatchID) (*model.CancellationRequest, error) {
	data, err := s.client.Get(ctx, cancellationKey(matchID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNoPendingRequest
		}
		return nil, err
	}

	var req model.CancellationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Storage) DeleteCancellationForMatch(ctx context.Context, matchID model.MatchID) error {
	return s.client.Del(ctx, cancellationKey(matchID)).Err()
}

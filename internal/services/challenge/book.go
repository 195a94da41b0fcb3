package challenge

import (
	"context"
	"log/slog"
	"time"

	"github.com/pairwise-games/stakeroom/internal/dependencies/clock"
	"github.com/pairwise-games/stakeroom/internal/dependencies/random"
	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/services/balance"
	"github.com/pairwise-games/stakeroom/internal/storage"
)

const (
	// ChallengeIDLength is the length of generated challenge ids
	ChallengeIDLength = 6
	// ChallengeIDAlphabet is the characters used in challenge ids (avoid confusing chars)
	ChallengeIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Book is the set of currently open challenges. It owns the Challenge
// lifecycle from creation until consumption, withdrawal, expiry, or creator
// disconnect.
//
// Book does no locking of its own: every mutating call happens inside the
// match coordinator's pairing critical section, which is the single owner of
// challenge state.
type Book struct {
	storage storage.Storage
	gate    balance.Gate
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewBook creates a new challenge Book
func NewBook(
	storage storage.Storage,
	gate balance.Gate,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Book {
	return &Book{
		storage: storage,
		gate:    gate,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "challenge-book")),
	}
}

// Create opens a new challenge for the given participant at the given stake.
// The creator's balance is checked here and re-checked at acceptance time,
// since balances can change between the two.
func (b *Book) Create(ctx context.Context, p *model.Participant, stake int64) (*model.Challenge, error) {
	if stake <= 0 {
		return nil, model.ErrInvalidStake
	}

	bal, err := b.gate.Balance(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if bal < stake {
		return nil, model.ErrInsufficientBalance
	}

	// Generate unique challenge id
	var id model.ChallengeID
	for {
		id = model.ChallengeID(b.random.String(ChallengeIDLength, ChallengeIDAlphabet))
		exists, err := b.storage.ChallengeExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	ch := &model.Challenge{
		ID:                  id,
		CreatorUserID:       p.UserID,
		CreatorConnectionID: p.ConnectionID,
		CreatorName:         p.DisplayName,
		Stake:               stake,
		CreatedAt:           b.clock.Now(),
	}

	if err := b.storage.SaveChallenge(ctx, ch); err != nil {
		return nil, err
	}

	b.logger.Info("challenge created",
		slog.String("challenge_id", string(id)),
		slog.String("creator", string(p.UserID)),
		slog.Int64("stake", stake),
	)

	return ch, nil
}

// Get retrieves an open challenge by id
func (b *Book) Get(ctx context.Context, id model.ChallengeID) (*model.Challenge, error) {
	return b.storage.GetChallenge(ctx, id)
}

// Remove deletes a challenge. The challenge is deleted, not archived, so a
// consumed id can never be accepted again.
func (b *Book) Remove(ctx context.Context, id model.ChallengeID) error {
	return b.storage.DeleteChallenge(ctx, id)
}

// Withdraw removes a challenge at its creator's request
func (b *Book) Withdraw(ctx context.Context, id model.ChallengeID, userID model.UserID) error {
	ch, err := b.storage.GetChallenge(ctx, id)
	if err != nil {
		return err
	}
	if ch.CreatorUserID != userID {
		return model.ErrNotChallengeOwner
	}
	return b.storage.DeleteChallenge(ctx, id)
}

// RemoveByCreator removes all challenges created by the given connection.
// Used on disconnect; idempotent.
func (b *Book) RemoveByCreator(ctx context.Context, connID model.ConnectionID) (int, error) {
	challenges, err := b.storage.ListChallenges(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, ch := range challenges {
		if ch.CreatorConnectionID != connID {
			continue
		}
		if err := b.storage.DeleteChallenge(ctx, ch.ID); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		b.logger.Info("challenges removed for departed connection",
			slog.String("connection_id", string(connID)),
			slog.Int("removed", removed),
		)
	}
	return removed, nil
}

// RemoveExpired removes challenges older than ttl and returns how many went
func (b *Book) RemoveExpired(ctx context.Context, ttl time.Duration) (int, error) {
	challenges, err := b.storage.ListChallenges(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := b.clock.Now().Add(-ttl)
	removed := 0
	for _, ch := range challenges {
		if ch.CreatedAt.After(cutoff) {
			continue
		}
		if err := b.storage.DeleteChallenge(ctx, ch.ID); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		b.logger.Info("expired challenges removed", slog.Int("removed", removed))
	}
	return removed, nil
}

// List returns all open challenges in creation order
func (b *Book) List(ctx context.Context) ([]*model.Challenge, error) {
	return b.storage.ListChallenges(ctx)
}

// Snapshot returns all open challenges annotated with ownership for the
// requesting user
func (b *Book) Snapshot(ctx context.Context, requestingUserID model.UserID) ([]model.ChallengeView, error) {
	challenges, err := b.storage.ListChallenges(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]model.ChallengeView, 0, len(challenges))
	for _, ch := range challenges {
		views = append(views, model.ChallengeView{
			ID:          ch.ID,
			CreatorName: ch.CreatorName,
			Stake:       ch.Stake,
			Own:         ch.CreatorUserID == requestingUserID,
		})
	}
	return views, nil
}

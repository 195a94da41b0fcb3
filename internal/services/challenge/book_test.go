package challenge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pairwise-games/stakeroom/internal/dependencies/mocks"
	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/services/balance"
	"github.com/pairwise-games/stakeroom/internal/storage/memory"
	"github.com/pairwise-games/stakeroom/internal/testutil"
)

type BookSuite struct {
	suite.Suite
	storage *memory.Storage
	gate    *balance.Ledger
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	book    *Book
	ctx     context.Context
}

func TestBookSuite(t *testing.T) {
	suite.Run(t, new(BookSuite))
}

func (s *BookSuite) SetupTest() {
	s.storage = memory.New()
	s.gate = balance.NewLedger(1000, testutil.NopLogger())
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.book = NewBook(s.storage, s.gate, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *BookSuite) participant(user, conn, name string) *model.Participant {
	return &model.Participant{
		ConnectionID: model.ConnectionID(conn),
		UserID:       model.UserID(user),
		DisplayName:  name,
		ConnectedAt:  s.clock.Now(),
	}
}

// Create tests

func (s *BookSuite) TestCreateSucceeds() {
	s.random.QueueString("ABC234")
	alice := s.participant("u1", "c1", "Alice")

	ch, err := s.book.Create(s.ctx, alice, 100)
	s.Require().NoError(err)

	s.Equal(model.ChallengeID("ABC234"), ch.ID)
	s.Equal(model.UserID("u1"), ch.CreatorUserID)
	s.Equal(model.ConnectionID("c1"), ch.CreatorConnectionID)
	s.Equal("Alice", ch.CreatorName)
	s.Equal(int64(100), ch.Stake)
	s.Equal(s.clock.Now(), ch.CreatedAt)
}

func (s *BookSuite) TestCreateIsPersisted() {
	s.random.QueueString("ABC234")
	alice := s.participant("u1", "c1", "Alice")

	ch, _ := s.book.Create(s.ctx, alice, 100)

	retrieved, err := s.book.Get(s.ctx, ch.ID)
	s.Require().NoError(err)
	s.Equal(ch.ID, retrieved.ID)
}

func (s *BookSuite) TestCreateRejectsZeroStake() {
	alice := s.participant("u1", "c1", "Alice")

	_, err := s.book.Create(s.ctx, alice, 0)
	s.ErrorIs(err, model.ErrInvalidStake)
}

func (s *BookSuite) TestCreateRejectsNegativeStake() {
	alice := s.participant("u1", "c1", "Alice")

	_, err := s.book.Create(s.ctx, alice, -50)
	s.ErrorIs(err, model.ErrInvalidStake)
}

func (s *BookSuite) TestCreateRejectsStakeAboveBalance() {
	alice := s.participant("u1", "c1", "Alice")

	_, err := s.book.Create(s.ctx, alice, 1001)
	s.ErrorIs(err, model.ErrInsufficientBalance)
}

func (s *BookSuite) TestCreateDoesNotMoveFunds() {
	s.random.QueueString("ABC234")
	alice := s.participant("u1", "c1", "Alice")

	_, err := s.book.Create(s.ctx, alice, 100)
	s.Require().NoError(err)

	bal, err := s.gate.Balance(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(int64(1000), bal)
}

func (s *BookSuite) TestCreateRetriesOnIDCollision() {
	s.random.QueueString("ABC234", "ABC234", "DEF567")
	alice := s.participant("u1", "c1", "Alice")
	bob := s.participant("u2", "c2", "Bob")

	first, err := s.book.Create(s.ctx, alice, 100)
	s.Require().NoError(err)
	second, err := s.book.Create(s.ctx, bob, 200)
	s.Require().NoError(err)

	s.Equal(model.ChallengeID("ABC234"), first.ID)
	s.Equal(model.ChallengeID("DEF567"), second.ID)
}

func (s *BookSuite) TestCreatorMayHoldMultipleChallenges() {
	s.random.QueueString("ABC234", "DEF567")
	alice := s.participant("u1", "c1", "Alice")

	_, err := s.book.Create(s.ctx, alice, 100)
	s.Require().NoError(err)
	_, err = s.book.Create(s.ctx, alice, 200)
	s.Require().NoError(err)

	challenges, err := s.book.List(s.ctx)
	s.Require().NoError(err)
	s.Len(challenges, 2)
}

// Withdraw tests

func (s *BookSuite) TestWithdrawByOwner() {
	s.random.QueueString("ABC234")
	alice := s.participant("u1", "c1", "Alice")
	ch, _ := s.book.Create(s.ctx, alice, 100)

	err := s.book.Withdraw(s.ctx, ch.ID, "u1")
	s.Require().NoError(err)

	_, err = s.book.Get(s.ctx, ch.ID)
	s.ErrorIs(err, model.ErrChallengeNotFound)
}

func (s *BookSuite) TestWithdrawByNonOwnerFails() {
	s.random.QueueString("ABC234")
	alice := s.participant("u1", "c1", "Alice")
	ch, _ := s.book.Create(s.ctx, alice, 100)

	err := s.book.Withdraw(s.ctx, ch.ID, "u2")
	s.ErrorIs(err, model.ErrNotChallengeOwner)

	// Still listed
	_, err = s.book.Get(s.ctx, ch.ID)
	s.NoError(err)
}

func (s *BookSuite) TestWithdrawUnknownChallengeFails() {
	err := s.book.Withdraw(s.ctx, "NOPE99", "u1")
	s.ErrorIs(err, model.ErrChallengeNotFound)
}

// RemoveByCreator tests

func (s *BookSuite) TestRemoveByCreatorRemovesOnlyTheirs() {
	s.random.QueueString("ABC234", "DEF567", "GHJ892")
	alice := s.participant("u1", "c1", "Alice")
	bob := s.participant("u2", "c2", "Bob")

	_, _ = s.book.Create(s.ctx, alice, 100)
	_, _ = s.book.Create(s.ctx, alice, 200)
	keep, _ := s.book.Create(s.ctx, bob, 300)

	removed, err := s.book.RemoveByCreator(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(2, removed)

	challenges, _ := s.book.List(s.ctx)
	s.Require().Len(challenges, 1)
	s.Equal(keep.ID, challenges[0].ID)
}

func (s *BookSuite) TestRemoveByCreatorIsIdempotent() {
	s.random.QueueString("ABC234")
	alice := s.participant("u1", "c1", "Alice")
	_, _ = s.book.Create(s.ctx, alice, 100)

	removed, err := s.book.RemoveByCreator(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(1, removed)

	removed, err = s.book.RemoveByCreator(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(0, removed)
}

// RemoveExpired tests

func (s *BookSuite) TestRemoveExpiredKeepsFreshChallenges() {
	s.random.QueueString("ABC234", "DEF567")
	alice := s.participant("u1", "c1", "Alice")

	_, _ = s.book.Create(s.ctx, alice, 100)
	s.clock.Advance(10 * time.Minute)
	fresh, _ := s.book.Create(s.ctx, alice, 200)
	s.clock.Advance(5 * time.Minute)

	removed, err := s.book.RemoveExpired(s.ctx, 10*time.Minute)
	s.Require().NoError(err)
	s.Equal(1, removed)

	challenges, _ := s.book.List(s.ctx)
	s.Require().Len(challenges, 1)
	s.Equal(fresh.ID, challenges[0].ID)
}

// Snapshot tests

func (s *BookSuite) TestSnapshotMarksOwnership() {
	s.random.QueueString("ABC234", "DEF567")
	alice := s.participant("u1", "c1", "Alice")
	bob := s.participant("u2", "c2", "Bob")

	_, _ = s.book.Create(s.ctx, alice, 100)
	_, _ = s.book.Create(s.ctx, bob, 200)

	views, err := s.book.Snapshot(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(views, 2)

	byID := map[model.ChallengeID]model.ChallengeView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	s.True(byID["ABC234"].Own)
	s.False(byID["DEF567"].Own)
}

func (s *BookSuite) TestSnapshotOrderedByCreation() {
	s.random.QueueString("ABC234", "DEF567")
	alice := s.participant("u1", "c1", "Alice")

	_, _ = s.book.Create(s.ctx, alice, 100)
	s.clock.Advance(time.Minute)
	_, _ = s.book.Create(s.ctx, alice, 200)

	views, err := s.book.Snapshot(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.Equal(model.ChallengeID("ABC234"), views[0].ID)
	s.Equal(model.ChallengeID("DEF567"), views[1].ID)
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pairwise-games/stakeroom/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Participant tests

func (s *StorageSuite) TestSaveAndGetParticipant() {
	p := &model.Participant{
		ConnectionID: "c1",
		UserID:       "u1",
		DisplayName:  "Alice",
		ConnectedAt:  time.Now(),
	}

	err := s.storage.SaveParticipant(s.ctx, p)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetParticipant(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(p.UserID, retrieved.UserID)
	s.Equal(p.DisplayName, retrieved.DisplayName)
}

func (s *StorageSuite) TestGetParticipantNotFound() {
	_, err := s.storage.GetParticipant(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

func (s *StorageSuite) TestDeleteParticipant() {
	p := &model.Participant{ConnectionID: "c1", UserID: "u1", DisplayName: "Alice"}
	_ = s.storage.SaveParticipant(s.ctx, p)

	err := s.storage.DeleteParticipant(s.ctx, "c1")
	s.Require().NoError(err)

	_, err = s.storage.GetParticipant(s.ctx, "c1")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

// Challenge tests

func (s *StorageSuite) challenge(id string, created time.Time) *model.Challenge {
	return &model.Challenge{
		ID:                  model.ChallengeID(id),
		CreatorUserID:       "u1",
		CreatorConnectionID: "c1",
		CreatorName:         "Alice",
		Stake:               100,
		CreatedAt:           created,
	}
}

func (s *StorageSuite) TestSaveAndGetChallenge() {
	ch := s.challenge("ABC234", time.Now())

	err := s.storage.SaveChallenge(s.ctx, ch)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetChallenge(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.Equal(ch.CreatorUserID, retrieved.CreatorUserID)
	s.Equal(ch.Stake, retrieved.Stake)
}

func (s *StorageSuite) TestGetChallengeNotFound() {
	_, err := s.storage.GetChallenge(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrChallengeNotFound)
}

func (s *StorageSuite) TestChallengeExists() {
	_ = s.storage.SaveChallenge(s.ctx, s.challenge("ABC234", time.Now()))

	exists, err := s.storage.ChallengeExists(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.ChallengeExists(s.ctx, "XYZ789")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestDeleteChallenge() {
	_ = s.storage.SaveChallenge(s.ctx, s.challenge("ABC234", time.Now()))

	err := s.storage.DeleteChallenge(s.ctx, "ABC234")
	s.Require().NoError(err)

	_, err = s.storage.GetChallenge(s.ctx, "ABC234")
	s.ErrorIs(err, model.ErrChallengeNotFound)
}

func (s *StorageSuite) TestListChallengesOrderedByCreation() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SaveChallenge(s.ctx, s.challenge("NEWER1", base.Add(time.Minute)))
	_ = s.storage.SaveChallenge(s.ctx, s.challenge("OLDER1", base))

	challenges, err := s.storage.ListChallenges(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(challenges, 2)
	s.Equal(model.ChallengeID("OLDER1"), challenges[0].ID)
	s.Equal(model.ChallengeID("NEWER1"), challenges[1].ID)
}

// Match tests

func (s *StorageSuite) match(id string, state model.MatchState) *model.Match {
	return &model.Match{
		ID:      model.MatchID(id),
		PlayerA: model.PlayerSlot{UserID: "u1", ConnectionID: "c1", DisplayName: "Alice"},
		PlayerB: model.PlayerSlot{UserID: "u2", ConnectionID: "c2", DisplayName: "Bob"},
		Stake:   100,
		State:   state,
	}
}

func (s *StorageSuite) TestSaveAndGetMatch() {
	m := s.match("m1", model.MatchStateWaiting)

	err := s.storage.SaveMatch(s.ctx, m)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(m.PlayerA.UserID, retrieved.PlayerA.UserID)
	s.Equal(m.State, retrieved.State)
}

func (s *StorageSuite) TestGetMatchNotFound() {
	_, err := s.storage.GetMatch(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestListActiveMatchesSkipsTerminal() {
	_ = s.storage.SaveMatch(s.ctx, s.match("m1", model.MatchStateWaiting))
	_ = s.storage.SaveMatch(s.ctx, s.match("m2", model.MatchStateInProgress))
	_ = s.storage.SaveMatch(s.ctx, s.match("m3", model.MatchStateCompleted))
	_ = s.storage.SaveMatch(s.ctx, s.match("m4", model.MatchStateCancelled))

	matches, err := s.storage.ListActiveMatches(s.ctx)
	s.Require().NoError(err)
	s.Len(matches, 2)
	for _, m := range matches {
		s.True(m.State.Active())
	}
}

func (s *StorageSuite) TestGetMatchReturnsDetachedCopy() {
	_ = s.storage.SaveMatch(s.ctx, s.match("m1", model.MatchStateWaiting))

	loaded, err := s.storage.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)

	// Mutating a loaded match must not leak into the store until saved
	loaded.State = model.MatchStateInProgress
	loaded.PlayerA.ConnectionID = "c1b"

	stored, err := s.storage.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.MatchStateWaiting, stored.State)
	s.Equal(model.ConnectionID("c1"), stored.PlayerA.ConnectionID)
}

func (s *StorageSuite) TestListActiveMatchesReturnsDetachedCopies() {
	_ = s.storage.SaveMatch(s.ctx, s.match("m1", model.MatchStateWaiting))

	listed, err := s.storage.ListActiveMatches(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	listed[0].State = model.MatchStateCancelled

	stored, err := s.storage.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.MatchStateWaiting, stored.State)
}

func (s *StorageSuite) TestSavedMatchDetachedFromCaller() {
	m := s.match("m1", model.MatchStateWaiting)
	_ = s.storage.SaveMatch(s.ctx, m)

	// Later mutation of the caller's copy must not appear in the store
	m.State = model.MatchStateCompleted

	stored, err := s.storage.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.MatchStateWaiting, stored.State)
}

func (s *StorageSuite) TestGetChallengeReturnsDetachedCopy() {
	_ = s.storage.SaveChallenge(s.ctx, s.challenge("ABC234", time.Now()))

	loaded, err := s.storage.GetChallenge(s.ctx, "ABC234")
	s.Require().NoError(err)
	loaded.Stake = 999

	stored, err := s.storage.GetChallenge(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.Equal(int64(100), stored.Stake)
}

// Cancellation tests

func (s *StorageSuite) TestSaveAndGetCancellation() {
	req := &model.CancellationRequest{
		ID:               "cr1",
		MatchID:          "m1",
		RequestingUserID: "u1",
		Reason:           "opponent afk",
		Status:           model.CancellationPending,
	}

	err := s.storage.SaveCancellation(s.ctx, req)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetCancellationForMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(req.ID, retrieved.ID)
	s.Equal(req.Status, retrieved.Status)
}

func (s *StorageSuite) TestGetCancellationNotFound() {
	_, err := s.storage.GetCancellationForMatch(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrNoPendingRequest)
}

func (s *StorageSuite) TestDeleteCancellation() {
	req := &model.CancellationRequest{ID: "cr1", MatchID: "m1", Status: model.CancellationPending}
	_ = s.storage.SaveCancellation(s.ctx, req)

	err := s.storage.DeleteCancellationForMatch(s.ctx, "m1")
	s.Require().NoError(err)

	_, err = s.storage.GetCancellationForMatch(s.ctx, "m1")
	s.ErrorIs(err, model.ErrNoPendingRequest)
}

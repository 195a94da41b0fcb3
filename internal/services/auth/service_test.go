package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/pairwise-games/stakeroom/internal/dependencies/mocks"
	"github.com/pairwise-games/stakeroom/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.clock, Config{SessionDuration: time.Hour})
}

func (s *ServiceSuite) TestCreateGuest() {
	session, err := s.service.CreateGuest("Alice")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.NotEmpty(session.UserID)
	s.Equal("Alice", session.DisplayName)
	s.Equal(s.clock.Now(), session.CreatedAt)
	s.Equal(s.clock.Now().Add(time.Hour), session.ExpiresAt)
}

func (s *ServiceSuite) TestCreateGuestTrimsDisplayName() {
	session, err := s.service.CreateGuest("  Alice  ")
	s.Require().NoError(err)
	s.Equal("Alice", session.DisplayName)
}

func (s *ServiceSuite) TestCreateGuestEmptyDisplayName() {
	_, err := s.service.CreateGuest("   ")
	s.ErrorIs(err, model.ErrInvalidDisplayName)
}

func (s *ServiceSuite) TestGuestsGetDistinctIdentities() {
	a, err := s.service.CreateGuest("Alice")
	s.Require().NoError(err)
	b, err := s.service.CreateGuest("Alice")
	s.Require().NoError(err)

	s.NotEqual(a.UserID, b.UserID)
	s.NotEqual(a.Token, b.Token)
}

func (s *ServiceSuite) TestValidateSession() {
	session, err := s.service.CreateGuest("Alice")
	s.Require().NoError(err)

	got, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.UserID, got.UserID)
}

func (s *ServiceSuite) TestValidateUnknownToken() {
	_, err := s.service.ValidateSession("nope")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateExpiredSession() {
	session, err := s.service.CreateGuest("Alice")
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Hour)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSession() {
	session, err := s.service.CreateGuest("Alice")
	s.Require().NoError(err)

	s.service.InvalidateSession(session.Token)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	expired, err := s.service.CreateGuest("Old")
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Hour)
	fresh, err := s.service.CreateGuest("New")
	s.Require().NoError(err)

	s.service.CleanExpiredSessions()

	_, err = s.service.ValidateSession(expired.Token)
	s.ErrorIs(err, ErrInvalidSession)
	_, err = s.service.ValidateSession(fresh.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestVerifyArbiterKey() {
	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	s.Require().NoError(err)
	service := New(s.clock, Config{ArbiterKeyHash: string(hash)})

	s.NoError(service.VerifyArbiterKey("open-sesame"))
	s.ErrorIs(service.VerifyArbiterKey("wrong"), ErrInvalidArbiterKey)
	s.ErrorIs(service.VerifyArbiterKey(""), ErrInvalidArbiterKey)
}

func (s *ServiceSuite) TestArbiterDisabledWithoutHash() {
	s.ErrorIs(s.service.VerifyArbiterKey("anything"), ErrArbiterDisabled)
}

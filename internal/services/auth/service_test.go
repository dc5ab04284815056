package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/stratking/matchmaker/internal/dependencies/mocks"
	"github.com/stratking/matchmaker/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, DefaultConfig())
	s.ctx = context.Background()
}

// Register tests

func (s *ServiceSuite) TestRegisterCreatesPlayerAndSession() {
	session, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("alice", session.Player.Username)
	s.Equal("Alice", session.Player.DisplayName)
	s.NotEmpty(session.PlayerID)

	// Player is persisted
	player, err := s.storage.GetPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(session.PlayerID, player.ID)
}

func (s *ServiceSuite) TestRegisterDefaultsDisplayNameToUsername() {
	session, err := s.service.Register(s.ctx, "alice", "password123", "")
	s.Require().NoError(err)
	s.Equal("alice", session.Player.DisplayName)
}

func (s *ServiceSuite) TestRegisterDuplicateUsernameFails() {
	_, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice", "different", "Other Alice")
	s.ErrorIs(err, ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterDoesNotStorePlaintextPassword() {
	_, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	creds, err := s.storage.GetCredentialsByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.NotEqual("password123", creds.PasswordHash)
	s.NotEmpty(creds.PasswordHash)
}

// Login tests

func (s *ServiceSuite) TestLoginWithCorrectPassword() {
	registered, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	session, err := s.service.Login(s.ctx, "alice", "password123")
	s.Require().NoError(err)
	s.Equal(registered.PlayerID, session.PlayerID)
	s.NotEqual(registered.Token, session.Token)
}

func (s *ServiceSuite) TestLoginWithWrongPassword() {
	_, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, "alice", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownUsername() {
	_, err := s.service.Login(s.ctx, "nonexistent", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// Session tests

func (s *ServiceSuite) TestValidateSession() {
	registered, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	session, err := s.service.ValidateSession(s.ctx, registered.Token)
	s.Require().NoError(err)
	s.Equal(registered.PlayerID, session.PlayerID)
}

func (s *ServiceSuite) TestValidateSessionUnknownToken() {
	_, err := s.service.ValidateSession(s.ctx, "bogus-token")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateExpiredSession() {
	registered, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)

	_, err = s.service.ValidateSession(s.ctx, registered.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestSessionValidJustBeforeExpiry() {
	registered, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	s.clock.Advance(24*time.Hour - time.Minute)

	_, err = s.service.ValidateSession(s.ctx, registered.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestLogoutInvalidatesSession() {
	registered, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	s.service.Logout(registered.Token)

	_, err = s.service.ValidateSession(s.ctx, registered.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestLogoutUnknownTokenIsNoop() {
	s.service.Logout("bogus-token")
}

func (s *ServiceSuite) TestCustomSessionDuration() {
	service := New(s.storage, s.clock, Config{SessionDuration: time.Minute})

	session, err := service.Register(s.ctx, "bob", "password123", "Bob")
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Minute)

	_, err = service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestPlayerIDsArePrefixed() {
	session, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)
	s.Contains(string(session.PlayerID), "p_")
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tokenrace/tokenrace/internal/dependencies/mocks"
	"github.com/tokenrace/tokenrace/internal/model"
	"github.com/tokenrace/tokenrace/internal/storage/memory"
	"github.com/tokenrace/tokenrace/internal/testutil"
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
	s.service = New(s.storage, s.clock, Config{Secret: "test-secret", TokenTTL: time.Hour}, testutil.NopLogger())
	s.ctx = context.Background()
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	user, err := s.service.Register(s.ctx, "alice@example.com", "alice", "hunter22")
	s.Require().NoError(err)

	s.Equal("alice@example.com", user.Email)
	s.Equal("alice", user.Username)
	s.NotEmpty(user.ID)
	s.NotEqual("hunter22", user.PasswordHash)
	s.Equal(s.clock.CurrentTime, user.CreatedAt)
}

func (s *ServiceSuite) TestRegisterFailsWhenEmailTaken() {
	_, err := s.service.Register(s.ctx, "alice@example.com", "alice", "hunter22")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice@example.com", "alice2", "other-pass")
	s.ErrorIs(err, model.ErrEmailTaken)
}

func (s *ServiceSuite) TestEmailsAreCaseInsensitive() {
	user, err := s.service.Register(s.ctx, "Alice@Example.COM", "alice", "hunter22")
	s.Require().NoError(err)
	s.Equal("alice@example.com", user.Email)

	_, err = s.service.Register(s.ctx, "alice@example.com", "alice2", "other-pass")
	s.ErrorIs(err, model.ErrEmailTaken)

	_, loggedIn, err := s.service.Login(s.ctx, "ALICE@example.com", "hunter22")
	s.Require().NoError(err)
	s.Equal(user.ID, loggedIn.ID)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	registered, err := s.service.Register(s.ctx, "alice@example.com", "alice", "hunter22")
	s.Require().NoError(err)

	token, user, err := s.service.Login(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)

	s.NotEmpty(token)
	s.Equal(registered.ID, user.ID)
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	_, err := s.service.Register(s.ctx, "alice@example.com", "alice", "hunter22")
	s.Require().NoError(err)

	_, _, err = s.service.Login(s.ctx, "alice@example.com", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsForUnknownEmail() {
	_, _, err := s.service.Login(s.ctx, "nobody@example.com", "hunter22")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// VerifyToken tests

func (s *ServiceSuite) TestVerifyTokenYieldsIdentity() {
	registered, err := s.service.Register(s.ctx, "alice@example.com", "alice", "hunter22")
	s.Require().NoError(err)

	token, _, err := s.service.Login(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)

	identity, err := s.service.VerifyToken(token)
	s.Require().NoError(err)

	s.Equal(registered.ID, identity.UserID)
	s.Equal("alice@example.com", identity.Email)
}

func (s *ServiceSuite) TestVerifyTokenFailsForGarbage() {
	_, err := s.service.VerifyToken("not-a-token")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyTokenFailsAfterExpiry() {
	_, err := s.service.Register(s.ctx, "alice@example.com", "alice", "hunter22")
	s.Require().NoError(err)

	token, _, err := s.service.Login(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Hour)

	_, err = s.service.VerifyToken(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyTokenFailsWithWrongSecret() {
	_, err := s.service.Register(s.ctx, "alice@example.com", "alice", "hunter22")
	s.Require().NoError(err)

	token, _, err := s.service.Login(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)

	other := New(s.storage, s.clock, Config{Secret: "different"}, testutil.NopLogger())
	_, err = other.VerifyToken(token)
	s.ErrorIs(err, ErrInvalidToken)
}

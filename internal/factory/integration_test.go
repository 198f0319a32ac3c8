package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tokenrace/tokenrace/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) registerUser(username string) *model.User {
	user, err := s.app.AuthService.Register(s.ctx, username+"@example.com", username, "hunter22")
	s.Require().NoError(err)
	return user
}

// Test: Complete flow from registration through a full round of turns
func (s *IntegrationSuite) TestCompleteGameFlow() {
	// Step 1: Two users register and one logs in
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")

	token, loggedIn, err := s.app.AuthService.Login(s.ctx, "alice@example.com", "hunter22")
	s.Require().NoError(err)
	s.Equal(alice.ID, loggedIn.ID)

	identity, err := s.app.AuthService.VerifyToken(token)
	s.Require().NoError(err)
	s.Equal(alice.ID, identity.UserID)

	// Step 2: Alice creates a room, bob joins
	rm, err := s.app.RoomService.Create(s.ctx, alice.ID, "friday night race", 4)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusWaiting, rm.Status)

	rm, err = s.app.RoomService.Join(s.ctx, rm.ID, bob.ID)
	s.Require().NoError(err)
	s.Len(rm.Players, 2)

	// Step 3: Both ready up
	_, err = s.app.RoomService.SetReady(s.ctx, rm.ID, alice.ID, true)
	s.Require().NoError(err)
	rm, err = s.app.RoomService.SetReady(s.ctx, rm.ID, bob.ID, true)
	s.Require().NoError(err)
	s.True(rm.AllReady())

	// Step 4: The game starts; join order makes alice the first player
	snap, err := s.app.GameService.Start(rm, alice.ID)
	s.Require().NoError(err)
	s.True(snap.Started)
	s.Equal(alice.ID, snap.ActivePlayerID)
	s.Equal(model.PhaseWaitingRoll, snap.Phase)

	s.Require().NoError(s.app.RoomService.SetStatus(s.ctx, rm.ID, model.RoomStatusInGame))

	// Step 5: Alice rolls a 4 and moves
	s.app.MockRandom.QueueIntn(3)
	value, _, err := s.app.GameService.Roll(rm.ID, alice.ID)
	s.Require().NoError(err)
	s.Equal(4, value)

	result, snap, err := s.app.GameService.Move(rm.ID, alice.ID, 4)
	s.Require().NoError(err)
	s.Equal(4, result.Position)
	s.Equal(bob.ID, result.NextPlayerID)
	s.Equal(4, snap.Positions[alice.ID])

	// Step 6: Bob takes his turn and play wraps back to alice
	s.app.MockRandom.QueueIntn(0)
	value, _, err = s.app.GameService.Roll(rm.ID, bob.ID)
	s.Require().NoError(err)
	s.Equal(1, value)

	result, snap, err = s.app.GameService.Move(rm.ID, bob.ID, 1)
	s.Require().NoError(err)
	s.Equal(1, result.Position)
	s.Equal(alice.ID, result.NextPlayerID)
	s.Equal(alice.ID, snap.ActivePlayerID)
}

// Test: Turn checks hold across the wired services
func (s *IntegrationSuite) TestOutOfTurnActionsRejected() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")

	rm, err := s.app.RoomService.Create(s.ctx, alice.ID, "race", 4)
	s.Require().NoError(err)
	_, err = s.app.RoomService.Join(s.ctx, rm.ID, bob.ID)
	s.Require().NoError(err)
	_, err = s.app.RoomService.SetReady(s.ctx, rm.ID, alice.ID, true)
	s.Require().NoError(err)
	rm, err = s.app.RoomService.SetReady(s.ctx, rm.ID, bob.ID, true)
	s.Require().NoError(err)

	_, err = s.app.GameService.Start(rm, alice.ID)
	s.Require().NoError(err)

	_, _, err = s.app.GameService.Roll(rm.ID, bob.ID)
	s.ErrorIs(err, model.ErrNotYourTurn)

	_, _, err = s.app.GameService.Move(rm.ID, alice.ID, 3)
	s.ErrorIs(err, model.ErrRollRequired)
}

// Test: Idle games are evicted while a room in active use survives
func (s *IntegrationSuite) TestIdleGameEviction() {
	alice := s.registerUser("alice")
	bob := s.registerUser("bob")

	rm, err := s.app.RoomService.Create(s.ctx, alice.ID, "race", 4)
	s.Require().NoError(err)
	_, err = s.app.RoomService.Join(s.ctx, rm.ID, bob.ID)
	s.Require().NoError(err)
	_, err = s.app.RoomService.SetReady(s.ctx, rm.ID, alice.ID, true)
	s.Require().NoError(err)
	rm, err = s.app.RoomService.SetReady(s.ctx, rm.ID, bob.ID, true)
	s.Require().NoError(err)

	_, err = s.app.GameService.Start(rm, alice.ID)
	s.Require().NoError(err)

	s.app.MockClock.Advance(2 * time.Hour)

	evicted := s.app.GameService.EvictIdle(time.Hour)
	s.Equal(1, evicted)
	s.Nil(s.app.GameService.State(rm.ID))
}

package room

import (
	"context"
	"fmt"
	"sync"
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
	s.service = New(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) addUser(id model.UserID, username string) {
	err := s.storage.SaveUser(s.ctx, &model.User{
		ID:       id,
		Email:    username + "@example.com",
		Username: username,
	})
	s.Require().NoError(err)
}

// Create tests

func (s *ServiceSuite) TestCreateSucceeds() {
	s.addUser("u1", "alice")

	rm, err := s.service.Create(s.ctx, "u1", "Friday night", 3)
	s.Require().NoError(err)

	s.NotEmpty(rm.ID)
	s.Equal("Friday night", rm.Title)
	s.Equal(model.RoomStatusWaiting, rm.Status)
	s.Equal(3, rm.MaxPlayers)
	s.Equal(model.UserID("u1"), rm.CreatorID)
	s.Equal("alice", rm.CreatorName)

	s.Require().Len(rm.Players, 1)
	s.Equal(model.UserID("u1"), rm.Players[0].UserID)
	s.Equal("alice", rm.Players[0].Username)
	s.False(rm.Players[0].IsReady)
}

func (s *ServiceSuite) TestCreateDefaultsMaxPlayers() {
	s.addUser("u1", "alice")

	rm, err := s.service.Create(s.ctx, "u1", "race", 0)
	s.Require().NoError(err)

	s.Equal(model.DefaultMaxPlayers, rm.MaxPlayers)
}

func (s *ServiceSuite) TestCreateFailsForUnknownUser() {
	_, err := s.service.Create(s.ctx, "ghost", "race", 0)
	s.ErrorIs(err, model.ErrUserNotFound)
}

// List tests

func (s *ServiceSuite) TestListReturnsOnlyWaitingRoomsNewestFirst() {
	s.addUser("u1", "alice")

	first, err := s.service.Create(s.ctx, "u1", "first", 0)
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	second, err := s.service.Create(s.ctx, "u1", "second", 0)
	s.Require().NoError(err)

	s.Require().NoError(s.service.SetStatus(s.ctx, first.ID, model.RoomStatusInGame))

	rooms, err := s.service.List(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(rooms, 1)
	s.Equal(second.ID, rooms[0].ID)
}

// Join tests

func (s *ServiceSuite) TestJoinSucceeds() {
	s.addUser("u1", "alice")
	s.addUser("u2", "bob")

	rm, err := s.service.Create(s.ctx, "u1", "race", 0)
	s.Require().NoError(err)

	rm, err = s.service.Join(s.ctx, rm.ID, "u2")
	s.Require().NoError(err)

	s.Require().Len(rm.Players, 2)
	s.Equal(model.UserID("u2"), rm.Players[1].UserID)
	s.Equal("bob", rm.Players[1].Username)
}

func (s *ServiceSuite) TestJoinIsIdempotentForMembers() {
	s.addUser("u1", "alice")
	s.addUser("u2", "bob")

	rm, err := s.service.Create(s.ctx, "u1", "race", 0)
	s.Require().NoError(err)

	_, err = s.service.Join(s.ctx, rm.ID, "u2")
	s.Require().NoError(err)

	rm, err = s.service.Join(s.ctx, rm.ID, "u2")
	s.Require().NoError(err)
	s.Len(rm.Players, 2)
}

func (s *ServiceSuite) TestJoinFailsWhenRoomFull() {
	s.addUser("u1", "alice")
	s.addUser("u2", "bob")
	s.addUser("u3", "carol")

	rm, err := s.service.Create(s.ctx, "u1", "race", 2)
	s.Require().NoError(err)

	_, err = s.service.Join(s.ctx, rm.ID, "u2")
	s.Require().NoError(err)

	_, err = s.service.Join(s.ctx, rm.ID, "u3")
	s.ErrorIs(err, model.ErrRoomFull)
}

func (s *ServiceSuite) TestJoinFailsWhenGameInProgress() {
	s.addUser("u1", "alice")
	s.addUser("u2", "bob")

	rm, err := s.service.Create(s.ctx, "u1", "race", 0)
	s.Require().NoError(err)

	s.Require().NoError(s.service.SetStatus(s.ctx, rm.ID, model.RoomStatusInGame))

	_, err = s.service.Join(s.ctx, rm.ID, "u2")
	s.ErrorIs(err, model.ErrRoomNotJoinable)
}

func (s *ServiceSuite) TestJoinFailsForUnknownRoom() {
	s.addUser("u1", "alice")

	_, err := s.service.Join(s.ctx, "r_missing", "u1")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ServiceSuite) TestConcurrentJoinersNeverExceedCapacity() {
	s.addUser("u1", "alice")

	const contenders = 10
	for i := 0; i < contenders; i++ {
		s.addUser(model.UserID(fmt.Sprintf("c%d", i)), fmt.Sprintf("user%d", i))
	}

	rm, err := s.service.Create(s.ctx, "u1", "race", 4)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.Join(s.ctx, rm.ID, model.UserID(fmt.Sprintf("c%d", i)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, model.ErrRoomFull)
		}
	}
	// Creator holds one seat; exactly three contenders can win the rest
	s.Equal(3, succeeded)

	final, err := s.service.Get(s.ctx, rm.ID)
	s.Require().NoError(err)
	s.Len(final.Players, 4)
}

// Leave and ready tests

func (s *ServiceSuite) TestLeaveRemovesPlayer() {
	s.addUser("u1", "alice")
	s.addUser("u2", "bob")

	rm, err := s.service.Create(s.ctx, "u1", "race", 0)
	s.Require().NoError(err)

	_, err = s.service.Join(s.ctx, rm.ID, "u2")
	s.Require().NoError(err)

	rm, err = s.service.Leave(s.ctx, rm.ID, "u2")
	s.Require().NoError(err)

	s.Len(rm.Players, 1)
	s.Nil(rm.GetPlayer("u2"))
}

func (s *ServiceSuite) TestLeaveFailsWhenNotInRoom() {
	s.addUser("u1", "alice")
	s.addUser("u2", "bob")

	rm, err := s.service.Create(s.ctx, "u1", "race", 0)
	s.Require().NoError(err)

	_, err = s.service.Leave(s.ctx, rm.ID, "u2")
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *ServiceSuite) TestSetReadyTogglesFlag() {
	s.addUser("u1", "alice")

	rm, err := s.service.Create(s.ctx, "u1", "race", 0)
	s.Require().NoError(err)

	rm, err = s.service.SetReady(s.ctx, rm.ID, "u1", true)
	s.Require().NoError(err)
	s.True(rm.Players[0].IsReady)

	rm, err = s.service.SetReady(s.ctx, rm.ID, "u1", false)
	s.Require().NoError(err)
	s.False(rm.Players[0].IsReady)
}

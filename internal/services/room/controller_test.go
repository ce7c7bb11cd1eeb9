package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bankroom/internal/dependencies/mocks"
	"bankroom/internal/model"
	"bankroom/internal/storage"
	"bankroom/internal/storage/memory"
	"bankroom/internal/testutil"
)

// stubDirectory resolves display names from a fixed map
type stubDirectory map[model.PrincipalID]string

func (d stubDirectory) ResolveDisplayName(_ context.Context, id model.PrincipalID) (string, error) {
	name, ok := d[id]
	if !ok {
		return "", model.ErrUserNotFound
	}
	if name == "" {
		return "", model.ErrNoDisplayName
	}
	return name, nil
}

type ControllerSuite struct {
	suite.Suite
	controller *Controller
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	directory  stubDirectory
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.directory = stubDirectory{
		"u_ana":    "Ana",
		"u_luis":   "Luis",
		"u_noname": "",
	}
	s.controller = NewController(s.storage, s.directory, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ControllerSuite) createRoom() *model.RoomSnapshot {
	s.random.QueueString("AB12C3")
	snapshot, err := s.controller.CreateRoom(s.ctx, "u_ana", "u_ana")
	s.Require().NoError(err)
	return snapshot
}

// CreateRoom

func (s *ControllerSuite) TestCreateRoom() {
	snapshot := s.createRoom()

	s.Equal(model.RoomCode("AB12C3"), snapshot.Room.Code)
	s.Equal(model.RoomStatusWaiting, snapshot.Room.Status)
	s.Equal(model.PrincipalID("u_ana"), snapshot.Room.HostID)
	s.Equal(1, snapshot.Room.PlayerCount)
	s.Equal(model.DefaultMaxPlayers, snapshot.Room.MaxPlayers)

	s.Require().Len(snapshot.Players, 1)
	host := snapshot.Players[0]
	s.Equal("Ana", host.DisplayName)
	s.True(host.IsHost)
	s.Equal(model.DefaultStartingBalance, host.Balance)
}

func (s *ControllerSuite) TestCreateRoomUnauthenticated() {
	_, err := s.controller.CreateRoom(s.ctx, "", "u_ana")
	s.ErrorIs(err, model.ErrUnauthenticated)
}

func (s *ControllerSuite) TestCreateRoomMissingHost() {
	_, err := s.controller.CreateRoom(s.ctx, "u_ana", "")
	s.ErrorIs(err, model.ErrInvalidArgument)
}

func (s *ControllerSuite) TestCreateRoomUnknownHost() {
	_, err := s.controller.CreateRoom(s.ctx, "u_ana", "u_ghost")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ControllerSuite) TestCreateRoomHostWithoutDisplayName() {
	_, err := s.controller.CreateRoom(s.ctx, "u_noname", "u_noname")
	s.ErrorIs(err, model.ErrNoDisplayName)
}

func (s *ControllerSuite) TestCreateRoomRegeneratesOnCollision() {
	s.createRoom()

	// First draw collides with the existing room
	s.random.QueueString("AB12C3", "XY98Z7")
	snapshot, err := s.controller.CreateRoom(s.ctx, "u_luis", "u_luis")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("XY98Z7"), snapshot.Room.Code)

	// Original room untouched
	original, err := s.controller.GetRoom(s.ctx, "AB12C3")
	s.Require().NoError(err)
	s.Equal(model.PrincipalID("u_ana"), original.Room.HostID)
}

// GetRoom

func (s *ControllerSuite) TestGetRoomNotFound() {
	_, err := s.controller.GetRoom(s.ctx, "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestGetRoomMissingCode() {
	_, err := s.controller.GetRoom(s.ctx, "")
	s.ErrorIs(err, model.ErrInvalidArgument)
}

// JoinRoom

func (s *ControllerSuite) TestJoinRoom() {
	s.createRoom()

	s.clock.Advance(time.Minute)
	err := s.controller.JoinRoom(s.ctx, "u_luis", "AB12C3", "u_luis")
	s.Require().NoError(err)

	snapshot, err := s.controller.GetRoom(s.ctx, "AB12C3")
	s.Require().NoError(err)
	s.Equal(2, snapshot.Room.PlayerCount)
	s.Require().Len(snapshot.Players, 2)

	// Join order: host first
	s.Equal("Ana", snapshot.Players[0].DisplayName)
	s.Equal("Luis", snapshot.Players[1].DisplayName)
	s.False(snapshot.Players[1].IsHost)
	s.Equal(model.DefaultStartingBalance, snapshot.Players[1].Balance)
}

func (s *ControllerSuite) TestJoinRoomNotFound() {
	err := s.controller.JoinRoom(s.ctx, "u_luis", "NOPE00", "u_luis")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestJoinRoomAlreadyMember() {
	s.createRoom()

	err := s.controller.JoinRoom(s.ctx, "u_ana", "AB12C3", "u_ana")
	s.ErrorIs(err, model.ErrAlreadyInRoom)

	// Roster and count unchanged
	snapshot, _ := s.controller.GetRoom(s.ctx, "AB12C3")
	s.Equal(1, snapshot.Room.PlayerCount)
	s.Len(snapshot.Players, 1)
}

func (s *ControllerSuite) TestJoinRoomStarted() {
	s.createRoom()
	s.Require().NoError(s.controller.StartRoom(s.ctx, "u_ana", "AB12C3"))

	err := s.controller.JoinRoom(s.ctx, "u_luis", "AB12C3", "u_luis")
	s.ErrorIs(err, model.ErrRoomNotWaiting)
}

func (s *ControllerSuite) TestJoinRoomFull() {
	s.createRoom()

	// Fill the remaining seats directly
	err := s.storage.MutateRoom(s.ctx, "AB12C3", func(txn *storage.RoomTxn) error {
		room := txn.Room()
		for i := room.PlayerCount; i < room.MaxPlayers; i++ {
			txn.PutPlayer(model.Player{
				Handle:      model.NewPlayerHandle(),
				PrincipalID: model.PrincipalID("u_filler"),
				DisplayName: "Filler",
				Balance:     model.DefaultStartingBalance,
				JoinedAt:    s.clock.Now(),
			})
		}
		room.PlayerCount = room.MaxPlayers
		txn.SetRoom(*room)
		return nil
	})
	s.Require().NoError(err)

	err = s.controller.JoinRoom(s.ctx, "u_luis", "AB12C3", "u_luis")
	s.ErrorIs(err, model.ErrRoomFull)

	// Count stays at the cap
	snapshot, _ := s.controller.GetRoom(s.ctx, "AB12C3")
	s.Equal(model.DefaultMaxPlayers, snapshot.Room.PlayerCount)
}

// StartRoom

func (s *ControllerSuite) TestStartRoom() {
	s.createRoom()

	s.clock.Advance(5 * time.Minute)
	err := s.controller.StartRoom(s.ctx, "u_ana", "AB12C3")
	s.Require().NoError(err)

	snapshot, _ := s.controller.GetRoom(s.ctx, "AB12C3")
	s.Equal(model.RoomStatusInProgress, snapshot.Room.Status)
	s.Require().NotNil(snapshot.Room.StartedAt)
	s.Equal(s.clock.Now(), *snapshot.Room.StartedAt)
}

func (s *ControllerSuite) TestStartRoomNotHost() {
	s.createRoom()
	s.Require().NoError(s.controller.JoinRoom(s.ctx, "u_luis", "AB12C3", "u_luis"))

	err := s.controller.StartRoom(s.ctx, "u_luis", "AB12C3")
	s.ErrorIs(err, model.ErrNotHost)
}

func (s *ControllerSuite) TestStartRoomTwice() {
	s.createRoom()
	s.Require().NoError(s.controller.StartRoom(s.ctx, "u_ana", "AB12C3"))

	err := s.controller.StartRoom(s.ctx, "u_ana", "AB12C3")
	s.ErrorIs(err, model.ErrRoomStarted)
}

func (s *ControllerSuite) TestStartRoomNotFound() {
	err := s.controller.StartRoom(s.ctx, "u_ana", "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// LeaveRoom

func (s *ControllerSuite) TestLeaveRoom() {
	s.createRoom()
	s.Require().NoError(s.controller.JoinRoom(s.ctx, "u_luis", "AB12C3", "u_luis"))

	err := s.controller.LeaveRoom(s.ctx, "u_luis", "AB12C3", "u_luis")
	s.Require().NoError(err)

	snapshot, _ := s.controller.GetRoom(s.ctx, "AB12C3")
	s.Equal(1, snapshot.Room.PlayerCount)
	s.Len(snapshot.Players, 1)
	s.Equal("Ana", snapshot.Players[0].DisplayName)
}

func (s *ControllerSuite) TestLeaveRoomNotMember() {
	s.createRoom()

	err := s.controller.LeaveRoom(s.ctx, "u_luis", "AB12C3", "u_luis")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestLeaveRoomAbsentRoom() {
	err := s.controller.LeaveRoom(s.ctx, "u_luis", "NOPE00", "u_luis")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestLeaveRoomCountNeverNegative() {
	s.createRoom()

	// Force a zero count then leave
	err := s.storage.MutateRoom(s.ctx, "AB12C3", func(txn *storage.RoomTxn) error {
		room := txn.Room()
		room.PlayerCount = 0
		txn.SetRoom(*room)
		return nil
	})
	s.Require().NoError(err)

	s.Require().NoError(s.controller.LeaveRoom(s.ctx, "u_ana", "AB12C3", "u_ana"))

	room, err := s.storage.GetRoom(s.ctx, "AB12C3")
	s.Require().NoError(err)
	s.Equal(0, room.PlayerCount)
}

// DeleteRoom

func (s *ControllerSuite) TestDeleteRoom() {
	s.createRoom()

	err := s.controller.DeleteRoom(s.ctx, "u_ana", "AB12C3")
	s.Require().NoError(err)

	_, err = s.controller.GetRoom(s.ctx, "AB12C3")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestDeleteRoomNotHost() {
	s.createRoom()

	err := s.controller.DeleteRoom(s.ctx, "u_luis", "AB12C3")
	s.ErrorIs(err, model.ErrNotHost)
}

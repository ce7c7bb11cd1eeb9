package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bankroom/internal/model"
	"bankroom/internal/storage"
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

func (s *StorageSuite) createRoom(code model.RoomCode, players ...model.Player) {
	err := s.storage.MutateRoom(s.ctx, code, func(txn *storage.RoomTxn) error {
		now := time.Now()
		txn.SetRoom(model.Room{
			Code:        code,
			Status:      model.RoomStatusWaiting,
			PlayerCount: len(players),
			MaxPlayers:  model.DefaultMaxPlayers,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		for _, p := range players {
			txn.PutPlayer(p)
		}
		return nil
	})
	s.Require().NoError(err)
}

// User tests

func (s *StorageSuite) TestSaveAndGetUser() {
	user := &model.User{
		PrincipalID: "u_1",
		Username:    "ana",
		DisplayName: "Ana",
		CreatedAt:   time.Now(),
	}

	err := s.storage.SaveUser(s.ctx, user)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetUser(s.ctx, "u_1")
	s.Require().NoError(err)
	s.Equal(user.Username, retrieved.Username)
	s.Equal(user.DisplayName, retrieved.DisplayName)
}

func (s *StorageSuite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestGetUserByUsername() {
	user := &model.User{PrincipalID: "u_1", Username: "ana", DisplayName: "Ana"}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	retrieved, err := s.storage.GetUserByUsername(s.ctx, "ana")
	s.Require().NoError(err)
	s.Equal(model.PrincipalID("u_1"), retrieved.PrincipalID)

	_, err = s.storage.GetUserByUsername(s.ctx, "luis")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Room tests

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestMutateCreatesRoom() {
	s.createRoom("AB12C3", model.Player{
		Handle:      "P1",
		PrincipalID: "u_1",
		DisplayName: "Ana",
		IsHost:      true,
		Balance:     model.DefaultStartingBalance,
		JoinedAt:    time.Now(),
	})

	room, err := s.storage.GetRoom(s.ctx, "AB12C3")
	s.Require().NoError(err)
	s.Equal(model.RoomStatusWaiting, room.Status)

	players, err := s.storage.GetPlayers(s.ctx, "AB12C3")
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal("Ana", players[0].DisplayName)
}

func (s *StorageSuite) TestGetPlayersAbsentRoomIsEmpty() {
	players, err := s.storage.GetPlayers(s.ctx, "NOPE00")
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *StorageSuite) TestGetPlayersJoinOrder() {
	base := time.Now()
	s.createRoom("AB12C3",
		model.Player{Handle: "P2", DisplayName: "Luis", JoinedAt: base.Add(time.Minute)},
		model.Player{Handle: "P1", DisplayName: "Ana", JoinedAt: base},
		model.Player{Handle: "P3", DisplayName: "Marta", JoinedAt: base.Add(2 * time.Minute)},
	)

	players, err := s.storage.GetPlayers(s.ctx, "AB12C3")
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal("Ana", players[0].DisplayName)
	s.Equal("Luis", players[1].DisplayName)
	s.Equal("Marta", players[2].DisplayName)
}

func (s *StorageSuite) TestMutateErrorAborts() {
	s.createRoom("AB12C3", model.Player{Handle: "P1", DisplayName: "Ana", Balance: 1500})

	err := s.storage.MutateRoom(s.ctx, "AB12C3", func(txn *storage.RoomTxn) error {
		p, ok := txn.PlayerByName("Ana")
		s.Require().True(ok)
		p.Balance = 0
		txn.PutPlayer(p)
		return model.ErrInsufficientFunds
	})
	s.ErrorIs(err, model.ErrInsufficientFunds)

	players, _ := s.storage.GetPlayers(s.ctx, "AB12C3")
	s.Equal(int64(1500), players[0].Balance)
}

func (s *StorageSuite) TestTransactionLogAppend() {
	s.createRoom("AB12C3", model.Player{Handle: "P1", DisplayName: "Ana", Balance: 1500})

	err := s.storage.MutateRoom(s.ctx, "AB12C3", func(txn *storage.RoomTxn) error {
		txn.AppendTransaction(model.Transaction{From: "Ana", To: "Bank", Amount: 100})
		txn.AppendTransaction(model.Transaction{From: "Ana", To: "Bank", Amount: 50})
		return nil
	})
	s.Require().NoError(err)

	txs, err := s.storage.GetTransactions(s.ctx, "AB12C3")
	s.Require().NoError(err)
	s.Require().Len(txs, 2)
	s.Equal(int64(100), txs[0].Amount)
	s.Equal(int64(50), txs[1].Amount)
}

func (s *StorageSuite) TestRoomExists() {
	exists, err := s.storage.RoomExists(s.ctx, "AB12C3")
	s.Require().NoError(err)
	s.False(exists)

	s.createRoom("AB12C3")

	exists, err = s.storage.RoomExists(s.ctx, "AB12C3")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestDeleteRoom() {
	s.createRoom("AB12C3")

	err := s.storage.DeleteRoom(s.ctx, "AB12C3")
	s.Require().NoError(err)

	_, err = s.storage.GetRoom(s.ctx, "AB12C3")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// Watch tests

func (s *StorageSuite) TestWatchRoomInitialSnapshot() {
	s.createRoom("AB12C3")

	ch, cancel, err := s.storage.WatchRoom(s.ctx, "AB12C3")
	s.Require().NoError(err)
	defer cancel()

	room := s.receiveRoom(ch)
	s.Require().NotNil(room)
	s.Equal(model.RoomCode("AB12C3"), room.Code)
}

func (s *StorageSuite) TestWatchRoomAbsentDeliversNil() {
	ch, cancel, err := s.storage.WatchRoom(s.ctx, "NOPE00")
	s.Require().NoError(err)
	defer cancel()

	s.Nil(s.receiveRoom(ch))
}

func (s *StorageSuite) TestWatchRoomSeesUpdates() {
	s.createRoom("AB12C3")

	ch, cancel, err := s.storage.WatchRoom(s.ctx, "AB12C3")
	s.Require().NoError(err)
	defer cancel()

	// Drain the initial snapshot
	s.receiveRoom(ch)

	err = s.storage.MutateRoom(s.ctx, "AB12C3", func(txn *storage.RoomTxn) error {
		room := txn.Room()
		room.Status = model.RoomStatusInProgress
		txn.SetRoom(*room)
		return nil
	})
	s.Require().NoError(err)

	room := s.receiveRoom(ch)
	s.Require().NotNil(room)
	s.Equal(model.RoomStatusInProgress, room.Status)
}

func (s *StorageSuite) TestWatchRoomSeesDeletion() {
	s.createRoom("AB12C3")

	ch, cancel, err := s.storage.WatchRoom(s.ctx, "AB12C3")
	s.Require().NoError(err)
	defer cancel()

	s.receiveRoom(ch)

	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "AB12C3"))
	s.Nil(s.receiveRoom(ch))
}

func (s *StorageSuite) TestWatchPlayersSeesRosterChanges() {
	s.createRoom("AB12C3", model.Player{Handle: "P1", DisplayName: "Ana", JoinedAt: time.Now()})

	ch, cancel, err := s.storage.WatchPlayers(s.ctx, "AB12C3")
	s.Require().NoError(err)
	defer cancel()

	players := s.receivePlayers(ch)
	s.Require().Len(players, 1)

	err = s.storage.MutateRoom(s.ctx, "AB12C3", func(txn *storage.RoomTxn) error {
		txn.PutPlayer(model.Player{Handle: "P2", DisplayName: "Luis", JoinedAt: time.Now()})
		return nil
	})
	s.Require().NoError(err)

	players = s.receivePlayers(ch)
	s.Require().Len(players, 2)
}

func (s *StorageSuite) TestWatchCancelClosesChannel() {
	ch, cancel, err := s.storage.WatchRoom(s.ctx, "AB12C3")
	s.Require().NoError(err)

	// Drain the initial nil snapshot
	s.receiveRoom(ch)

	cancel()
	cancel() // idempotent

	_, open := <-ch
	s.False(open)
}

func (s *StorageSuite) receiveRoom(ch <-chan *model.Room) *model.Room {
	select {
	case room := <-ch:
		return room
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for room snapshot")
		return nil
	}
}

func (s *StorageSuite) receivePlayers(ch <-chan []model.Player) []model.Player {
	select {
	case players := <-ch:
		return players
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for roster snapshot")
		return nil
	}
}

// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/storage"
)

// Backend is a storage that can also seed user accounts
type Backend interface {
	storage.Storage
	AddUser(ctx context.Context, user *model.User) error
}

// Suite runs the storage contract against a backend. Embed it and set
// NewBackend in SetupTest before calling Suite.SetupTest.
type Suite struct {
	suite.Suite
	NewBackend func() Backend

	Store Backend
	Ctx   context.Context
	Now   time.Time
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewBackend, "NewBackend must be set")
	s.Store = s.NewBackend()
	s.Ctx = context.Background()
	s.Now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) record(code model.RoomCode, createdAt time.Time) *model.RoomRecord {
	return &model.RoomRecord{
		Code:           code,
		Name:           "room " + string(code),
		PasswordDigest: "digest",
		CreatorUserID:  7,
		CreatorConn:    "conn-1",
		Slots: map[model.Color]model.SlotRecord{
			model.ColorOrange: {UserID: 7, Conn: "conn-1"},
		},
		CreatedAt: createdAt,
	}
}

// Room tests

func (s *Suite) TestUpsertAndLoadRoom() {
	rec := s.record("ABC123", s.Now)
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, rec))

	got, err := s.Store.LoadRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(rec.Name, got.Name)
	s.Equal(rec.PasswordDigest, got.PasswordDigest)
	s.Equal(model.UserID(7), got.CreatorUserID)
	s.Equal(model.ConnID("conn-1"), got.CreatorConn)
	s.Equal(model.SlotRecord{UserID: 7, Conn: "conn-1"}, got.Slots[model.ColorOrange])
	s.Empty(got.Slots[model.ColorBlue])
	s.True(rec.CreatedAt.Equal(got.CreatedAt))
	s.False(got.Started)
	s.Nil(got.Game)
}

func (s *Suite) TestUpsertOverwrites() {
	rec := s.record("ABC123", s.Now)
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, rec))

	rec.Name = "renamed"
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, rec))

	got, err := s.Store.LoadRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("renamed", got.Name)
}

func (s *Suite) TestLoadRoomNotFound() {
	_, err := s.Store.LoadRoom(s.Ctx, "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestRoomExists() {
	exists, err := s.Store.RoomExists(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, s.record("ABC123", s.Now)))

	exists, err = s.Store.RoomExists(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *Suite) TestUpdateSlotSetsAndClears() {
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, s.record("ABC123", s.Now)))

	s.Require().NoError(s.Store.UpdateSlot(s.Ctx, "ABC123", model.ColorBlue, 9, "conn-2"))
	got, err := s.Store.LoadRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.SlotRecord{UserID: 9, Conn: "conn-2"}, got.Slots[model.ColorBlue])

	s.Require().NoError(s.Store.UpdateSlot(s.Ctx, "ABC123", model.ColorBlue, 0, ""))
	got, err = s.Store.LoadRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Empty(got.Slots[model.ColorBlue])
	s.Equal(model.SlotRecord{UserID: 7, Conn: "conn-1"}, got.Slots[model.ColorOrange])
}

func (s *Suite) TestUpdateMissingRoomIsNoop() {
	s.NoError(s.Store.UpdateSlot(s.Ctx, "NOPE00", model.ColorBlue, 9, "conn-2"))
	s.NoError(s.Store.MarkStarted(s.Ctx, "NOPE00", s.Now))
	s.NoError(s.Store.SaveGameState(s.Ctx, "NOPE00", model.NewGameState()))
	s.NoError(s.Store.ResetGame(s.Ctx, "NOPE00"))

	exists, err := s.Store.RoomExists(s.Ctx, "NOPE00")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestGameStateLifecycle() {
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, s.record("ABC123", s.Now)))

	state := model.NewGameState()
	state.OrangeStones[0].NodeID = "10"
	state.CurrentTurn = model.ColorBlue
	s.Require().NoError(s.Store.SaveGameState(s.Ctx, "ABC123", state))
	s.Require().NoError(s.Store.MarkStarted(s.Ctx, "ABC123", s.Now.Add(time.Minute)))

	got, err := s.Store.LoadRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.True(got.Started)
	s.True(s.Now.Add(time.Minute).Equal(got.StartedAt))
	s.Require().NotNil(got.Game)
	s.Equal(model.NodeID("10"), got.Game.OrangeStones[0].NodeID)
	s.Equal(model.ColorBlue, got.Game.CurrentTurn)
	s.False(got.GameOver)

	s.Require().NoError(s.Store.ResetGame(s.Ctx, "ABC123"))
	got, err = s.Store.LoadRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.False(got.Started)
	s.True(got.StartedAt.IsZero())
	s.Nil(got.Game)
}

func (s *Suite) TestSaveGameStateMarksGameOver() {
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, s.record("ABC123", s.Now)))

	state := model.NewGameState()
	state.GameOver = true
	state.Winner = model.ColorOrange
	s.Require().NoError(s.Store.SaveGameState(s.Ctx, "ABC123", state))

	got, err := s.Store.LoadRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.True(got.GameOver)
	s.Equal(model.ColorOrange, got.Game.Winner)
}

func (s *Suite) TestDeleteRoom() {
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, s.record("ABC123", s.Now)))
	s.Require().NoError(s.Store.DeleteRoom(s.Ctx, "ABC123"))

	_, err := s.Store.LoadRoom(s.Ctx, "ABC123")
	s.ErrorIs(err, model.ErrRoomNotFound)

	s.NoError(s.Store.DeleteRoom(s.Ctx, "ABC123"))
}

func (s *Suite) TestLoadActiveRooms() {
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, s.record("OLD001", s.Now.Add(-48*time.Hour))))
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, s.record("NEW001", s.Now.Add(-time.Hour))))
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, s.record("NEW002", s.Now)))
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, s.record("DONE01", s.Now)))

	over := model.NewGameState()
	over.GameOver = true
	s.Require().NoError(s.Store.SaveGameState(s.Ctx, "DONE01", over))

	rooms, err := s.Store.LoadActiveRooms(s.Ctx, s.Now.Add(-24*time.Hour))
	s.Require().NoError(err)

	var codes []model.RoomCode
	for _, r := range rooms {
		codes = append(codes, r.Code)
	}
	s.Equal([]model.RoomCode{"NEW002", "NEW001"}, codes)
}

// User tests

func (s *Suite) TestLookupUser() {
	s.Require().NoError(s.Store.AddUser(s.Ctx, &model.User{ID: 42, Username: "alice", CreatedAt: s.Now}))

	id, err := s.Store.LookupUserID(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID(42), id)

	name, err := s.Store.LookupUsername(s.Ctx, 42)
	s.Require().NoError(err)
	s.Equal("alice", name)
}

func (s *Suite) TestLookupUserNotFound() {
	_, err := s.Store.LookupUserID(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.Store.LookupUsername(s.Ctx, 999)
	s.ErrorIs(err, model.ErrUserNotFound)
}

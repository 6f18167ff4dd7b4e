package room

import (
	"time"

	"github.com/mcoot/threestones/internal/model"
)

func (s *ControllerSuite) storeRoom(code model.RoomCode, createdAt time.Time, mutate func(rec *model.RoomRecord)) {
	rec := &model.RoomRecord{
		Code:      code,
		Name:      "stored " + string(code),
		Slots:     map[model.Color]model.SlotRecord{},
		CreatedAt: createdAt,
	}
	if mutate != nil {
		mutate(rec)
	}
	s.Require().NoError(s.store.UpsertRoom(s.ctx, rec))
}

func (s *ControllerSuite) TestGetHydratesWithoutConnections() {
	s.addUser(7, "carol")
	s.storeRoom("OLD234", s.clock.Now(), func(rec *model.RoomRecord) {
		rec.CreatorUserID = 7
		rec.Slots[model.ColorOrange] = model.SlotRecord{UserID: 7, Conn: "conn-gone"}
		rec.Slots[model.ColorBlue] = model.SlotRecord{Conn: "conn-guest"}
		rec.Game = model.NewGameState()
	})

	h, err := s.registry.Get(s.ctx, "OLD234")
	s.Require().NoError(err)

	room := s.snapshot("OLD234")
	s.Equal(model.UserID(7), room.Slots[model.ColorOrange].UserID)
	s.False(room.Slots[model.ColorOrange].Occupied())
	_, guest := room.Slots[model.ColorBlue]
	s.False(guest)
	s.Equal("carol", room.CreatorName)
	// Unstarted games are not restored
	s.Nil(room.Game)

	again, err := s.registry.Get(s.ctx, "OLD234")
	s.Require().NoError(err)
	s.Same(h, again)
}

func (s *ControllerSuite) TestGetMissingRoom() {
	_, err := s.registry.Get(s.ctx, "NOPE22")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestTombstoneBlocksHydration() {
	s.storeRoom("OLD234", s.clock.Now(), nil)
	_, err := s.registry.Get(s.ctx, "OLD234")
	s.Require().NoError(err)

	s.registry.Remove("OLD234")
	_, err = s.registry.Get(s.ctx, "OLD234")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Empty(s.registry.ListJoinable(s.ctx))

	s.registry.ClearTombstone("OLD234")
	_, err = s.registry.Get(s.ctx, "OLD234")
	s.NoError(err)
}

func (s *ControllerSuite) TestRestoreLoadsRecentOpenRooms() {
	now := s.clock.Now()
	s.storeRoom("NEW234", now.Add(-time.Hour), nil)
	s.storeRoom("OLD234", now.Add(-25*time.Hour), nil)
	s.storeRoom("END234", now.Add(-time.Hour), func(rec *model.RoomRecord) {
		rec.GameOver = true
	})

	restored, err := s.registry.Restore(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, restored)
	_, ok := s.registry.Lookup("NEW234")
	s.True(ok)

	restored, err = s.registry.Restore(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, restored)
}

func (s *ControllerSuite) TestListJoinableMergesMemoryAndStore() {
	now := s.clock.Now()
	s.addUser(7, "carol")
	s.storeRoom("DBONE2", now.Add(-2*time.Hour), func(rec *model.RoomRecord) {
		rec.CreatorUserID = 7
		rec.PasswordDigest = "digest"
		rec.Slots[model.ColorOrange] = model.SlotRecord{UserID: 7, Conn: "conn-gone"}
	})
	s.storeRoom("DBEND2", now.Add(-time.Hour), func(rec *model.RoomRecord) {
		rec.GameOver = true
	})
	s.pair("LIVE22")
	s.clock.Advance(time.Minute)
	s.createRoom("conn-c", "Cat", "", "LIVE33")

	rooms := s.registry.ListJoinable(s.ctx)

	s.Require().Len(rooms, 3)
	s.Equal(model.RoomCode("LIVE33"), rooms[0].Code)
	s.Equal(model.RoomCode("LIVE22"), rooms[1].Code)
	s.Equal(model.RoomCode("DBONE2"), rooms[2].Code)

	s.Equal(2, rooms[1].Players)
	s.Equal(model.MaxPlayers, rooms[1].MaxPlayers)
	s.Equal(0, rooms[2].Players)
	s.True(rooms[2].HasPassword)
	s.Equal("carol", rooms[2].CreatorUsername)
}

func (s *ControllerSuite) TestListJoinableIsIdempotent() {
	s.pair("LIVE22")

	first := s.registry.ListJoinable(s.ctx)
	second := s.registry.ListJoinable(s.ctx)
	s.Equal(first, second)
}

func (s *ControllerSuite) TestSummary() {
	s.createRoom("conn-a", "Alice", "", "ABC234")

	summary, err := s.registry.Summary(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.Equal("Room of Alice", summary.Name)
	s.Equal(1, summary.Players)

	_, err = s.registry.Summary(s.ctx, "NOPE22")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/testutil"
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

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) addUser(id model.UserID, name string) {
	s.Require().NoError(s.app.Memory.AddUser(s.ctx, &model.User{
		ID:        id,
		Username:  name,
		CreatedAt: s.app.MockClock.Now(),
	}))
}

// restart builds a second app over the same store, as a fresh process would
func (s *IntegrationSuite) restart() *App {
	s.Require().NoError(s.app.Writer.Flush(s.ctx))

	cfg := DefaultConfig()
	cfg.LobbyDebounce = 0
	restarted := newWithDependencies(s.app.Memory, s.app.MockClock, s.app.MockRandom, cfg, testutil.NopLogger())
	s.T().Cleanup(func() {
		restarted.Lobby.Close()
		restarted.Hub.Close()
		restarted.Writer.Close()
	})
	return restarted
}

// Test: a room and its game survive a restart and registered players reclaim their seats
func (s *IntegrationSuite) TestGameSurvivesRestart() {
	s.addUser(1, "alice")
	s.addUser(2, "bob")
	s.app.MockRandom.QueueString("ROOM01")

	// Step 1: Alice creates and Bob joins
	code, err := s.app.Controller.CreateRoom(s.ctx, "conn-a", "alice", "Alice's room", "")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("ROOM01"), code)
	s.Require().NoError(s.app.Controller.JoinRoom(s.ctx, "conn-b", "bob", code, ""))

	// Step 2: Dice decide that blue starts
	s.Require().NoError(s.app.Controller.RollDice(s.ctx, "conn-a", 3))
	s.Require().NoError(s.app.Controller.RollDice(s.ctx, "conn-b", 5))

	// Step 3: Blue moves
	s.Require().NoError(s.app.Controller.MakeMove(s.ctx, "conn-b", "blue-2", "1"))

	// Step 4: Restart and restore
	restarted := s.restart()
	restored, err := restarted.Restore(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, restored)

	summary, err := restarted.Registry.Summary(s.ctx, code)
	s.Require().NoError(err)
	s.Equal("Alice's room", summary.Name)
	s.True(summary.Started)
	s.Equal(0, summary.Players)

	// Step 5: Both players come back on new connections
	s.Require().NoError(restarted.Controller.RejoinRoom(s.ctx, "conn-a2", "alice", code, ""))
	s.Require().NoError(restarted.Controller.RejoinRoom(s.ctx, "conn-b2", "bob", code, ""))

	// Step 6: Play resumes with orange to move
	err = restarted.Controller.MakeMove(s.ctx, "conn-b2", "blue-1", "6")
	s.ErrorIs(err, model.ErrNotYourTurn)
	s.Require().NoError(restarted.Controller.MakeMove(s.ctx, "conn-a2", "orange-2", "4"))

	s.Require().NoError(restarted.Writer.Flush(s.ctx))
	rec, err := s.app.Memory.LoadRoom(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(model.ColorBlue, rec.Game.CurrentTurn)
}

// Test: a deleted room stays gone after a restart
func (s *IntegrationSuite) TestDeletedRoomNotRestored() {
	s.app.MockRandom.QueueString("GONE23")
	code, err := s.app.Controller.CreateRoom(s.ctx, "conn-a", "Alice", "temp", "")
	s.Require().NoError(err)
	s.Require().NoError(s.app.Controller.Delete(s.ctx, "conn-a", code, ""))

	restarted := s.restart()
	restored, err := restarted.Restore(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, restored)

	_, err = restarted.Registry.Summary(s.ctx, code)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// Test: lobby refreshes reflect rooms as they open and fill
func (s *IntegrationSuite) TestLobbySnapshotTracksRooms() {
	s.app.MockRandom.QueueString("LOBBY2")
	code, err := s.app.Controller.CreateRoom(s.ctx, "conn-a", "Alice", "open", "")
	s.Require().NoError(err)

	rooms := s.app.Lobby.Snapshot()
	s.Require().Len(rooms, 1)
	s.Equal(code, rooms[0].Code)
	s.Equal(1, rooms[0].Players)

	s.Require().NoError(s.app.Controller.JoinRoom(s.ctx, "conn-b", "Bob", code, ""))
	rooms = s.app.Lobby.Snapshot()
	s.Require().Len(rooms, 1)
	s.Equal(2, rooms[0].Players)
}

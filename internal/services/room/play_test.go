package room

import (
	"github.com/mcoot/threestones/internal/model"
)

// StartGame tests

func (s *ControllerSuite) TestStartGameNeedsTwoPlayers() {
	s.createRoom("conn-a", "Alice", "", "ABC234")

	err := s.controller.StartGame(s.ctx, "conn-a")
	s.ErrorIs(err, model.ErrNotEnoughPlayers)
}

func (s *ControllerSuite) TestStartGameNotInRoom() {
	err := s.controller.StartGame(s.ctx, "conn-x")
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *ControllerSuite) TestStartGameSkipsDiceWithOrangeFirst() {
	s.pair("ABC234")

	s.Require().NoError(s.controller.StartGame(s.ctx, "conn-b"))

	start := lastPayload[model.GameStartPayload](s, "conn-a", model.EventGameStart)
	s.False(start.WaitForDice)
	s.True(start.GameState.Placed())
	s.Equal(model.ColorOrange, start.GameState.CurrentTurn)

	rec := s.stored("ABC234")
	s.True(rec.Started)
	s.Equal(s.clock.Now(), rec.StartedAt)
	s.Require().NotNil(rec.Game)
	s.True(rec.Game.Placed())

	err := s.controller.StartGame(s.ctx, "conn-a")
	s.ErrorIs(err, model.ErrGameInProgress)
}

// Dice tests

func (s *ControllerSuite) TestDiceDecideStarter() {
	s.pair("ABC234")

	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-a", 3))
	roll := lastPayload[model.DiceRollPayload](s, "conn-b", model.EventDiceRoll)
	s.Equal("Alice", roll.Username)
	s.Equal(3, roll.Roll)
	s.Equal(model.ColorOrange, roll.Color)
	s.Empty(s.notifier.EventsOfType("conn-a", model.EventDiceResult))

	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-b", 5))
	result := lastPayload[model.DiceResultPayload](s, "conn-a", model.EventDiceResult)
	s.False(result.Tie)
	s.Require().NotNil(result.Starter)
	s.Equal(model.ColorBlue, *result.Starter)
	s.Equal(map[model.Color]int{model.ColorOrange: 3, model.ColorBlue: 5}, result.Rolls)

	state := lastPayload[model.GameStatePayload](s, "conn-b", model.EventGameState)
	s.Equal(model.ColorBlue, state.GameState.CurrentTurn)
	s.True(state.GameState.Placed())

	room := s.snapshot("ABC234")
	s.Equal(model.PhaseInProgress, room.Phase())
	s.Empty(room.Dice)
	rec := s.stored("ABC234")
	s.True(rec.Started)
	s.Equal(model.ColorBlue, rec.Game.CurrentTurn)
}

func (s *ControllerSuite) TestDiceTieRollsAgain() {
	s.pair("ABC234")

	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-a", 4))
	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-b", 4))

	result := lastPayload[model.DiceResultPayload](s, "conn-a", model.EventDiceResult)
	s.True(result.Tie)
	s.Nil(result.Starter)
	room := s.snapshot("ABC234")
	s.Equal(model.PhaseAwaitingDice, room.Phase())
	s.Empty(room.Dice)

	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-a", 6))
	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-b", 2))
	result = lastPayload[model.DiceResultPayload](s, "conn-a", model.EventDiceResult)
	s.Require().NotNil(result.Starter)
	s.Equal(model.ColorOrange, *result.Starter)
}

func (s *ControllerSuite) TestRepeatRollOverwrites() {
	s.pair("ABC234")

	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-a", 1))
	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-a", 6))
	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-b", 5))

	result := lastPayload[model.DiceResultPayload](s, "conn-b", model.EventDiceResult)
	s.Equal(6, result.Rolls[model.ColorOrange])
	s.Equal(model.ColorOrange, *result.Starter)
}

func (s *ControllerSuite) TestRollOutOfRangeUsesServerRoll() {
	s.pair("ABC234")
	s.random.QueueRoll(2)

	s.Require().NoError(s.controller.RollDice(s.ctx, "conn-a", 9))

	roll := lastPayload[model.DiceRollPayload](s, "conn-a", model.EventDiceRoll)
	s.Equal(2, roll.Roll)
}

func (s *ControllerSuite) TestRollRejectedOutsideDicePhase() {
	s.createRoom("conn-a", "Alice", "", "ABC234")
	err := s.controller.RollDice(s.ctx, "conn-a", 3)
	s.ErrorIs(err, model.ErrDiceNotExpected)

	s.Require().NoError(s.controller.JoinRoom(s.ctx, "conn-b", "Bob", "ABC234", ""))
	s.Require().NoError(s.controller.StartGame(s.ctx, "conn-a"))
	err = s.controller.RollDice(s.ctx, "conn-a", 3)
	s.ErrorIs(err, model.ErrDiceNotExpected)
}

func (s *ControllerSuite) TestRequestRollUsesServerDie() {
	s.pair("ABC234")
	s.random.QueueRoll(6)

	s.Require().NoError(s.controller.RequestRoll(s.ctx, "conn-b", "abc234"))

	roll := lastPayload[model.DiceRollPayload](s, "conn-a", model.EventDiceRoll)
	s.Equal(6, roll.Roll)
	s.Equal(model.ColorBlue, roll.Color)
}

func (s *ControllerSuite) TestRequestRollForOtherRoom() {
	s.pair("ABC234")

	err := s.controller.RequestRoll(s.ctx, "conn-a", "ZZZ999")
	s.ErrorIs(err, model.ErrRoomMismatch)
}

// MakeMove tests

func (s *ControllerSuite) TestMakeMoveBeforeStart() {
	s.pair("ABC234")

	err := s.controller.MakeMove(s.ctx, "conn-a", "orange-2", "4")
	s.ErrorIs(err, model.ErrGameNotStarted)
}

func (s *ControllerSuite) TestMakeMoveValidation() {
	s.pair("ABC234")
	s.Require().NoError(s.controller.StartGame(s.ctx, "conn-a"))

	s.ErrorIs(s.controller.MakeMove(s.ctx, "conn-b", "blue-2", "1"), model.ErrNotYourTurn)
	s.ErrorIs(s.controller.MakeMove(s.ctx, "conn-a", "blue-2", "1"), model.ErrStoneNotFound)
	s.ErrorIs(s.controller.MakeMove(s.ctx, "conn-a", "orange-1", "4"), model.ErrIllegalDestination)
	s.ErrorIs(s.controller.MakeMove(s.ctx, "conn-a", "orange-2", "10"), model.ErrDestinationOccupied)
	s.ErrorIs(s.controller.MakeMove(s.ctx, "conn-x", "orange-2", "4"), model.ErrNotInRoom)
	s.Empty(s.notifier.EventsOfType("conn-a", model.EventMoveMade))
}

func (s *ControllerSuite) TestMakeMoveBroadcastsAndPersists() {
	s.pair("ABC234")
	s.Require().NoError(s.controller.StartGame(s.ctx, "conn-a"))

	s.Require().NoError(s.controller.MakeMove(s.ctx, "conn-a", "orange-2", "4"))

	moved := lastPayload[model.GameStatePayload](s, "conn-b", model.EventMoveMade)
	stone, _, ok := moved.GameState.Stone(model.ColorOrange, "orange-2")
	s.Require().True(ok)
	s.Equal(model.NodeID("4"), stone.NodeID)
	s.False(stone.ReachedGoal)
	s.Equal(model.ColorBlue, moved.GameState.CurrentTurn)

	rec := s.stored("ABC234")
	stone, _, _ = rec.Game.Stone(model.ColorOrange, "orange-2")
	s.Equal(model.NodeID("4"), stone.NodeID)
}

func (s *ControllerSuite) TestFullGameBlueWins() {
	const (
		a model.ConnID = "conn-a"
		b model.ConnID = "conn-b"
	)
	s.pair("ROOM01")
	s.Require().NoError(s.controller.RollDice(s.ctx, a, 3))
	s.Require().NoError(s.controller.RollDice(s.ctx, b, 5))

	moves := []struct {
		conn  model.ConnID
		stone string
		to    model.NodeID
	}{
		{b, "blue-2", "1"},
		{a, "orange-2", "4"},
		{b, "blue-1", "6"},
		{a, "orange-2", "3"},
		{b, "blue-2", "4"},
		{a, "orange-1", "9"},
		{b, "blue-1", "1"},
		{a, "orange-1", "10"},
		{b, "blue-2", "9"},
		{a, "orange-2", "4"},
		{b, "blue-1", "2"},
		{a, "orange-2", "1"},
		{b, "blue-2", "4"},
		{a, "orange-1", "9"},
		{b, "blue-2", "3"},
		{a, "orange-1", "4"},
		{b, "blue-3", "6"},
		{a, "orange-3", "9"},
		{b, "blue-3", "5"},
		{a, "orange-2", "6"},
		{b, "blue-1", "1"},
		{a, "orange-2", "7"},
		{b, "blue-1", "6"},
		{a, "orange-1", "1"},
		{b, "blue-2", "4"},
		{a, "orange-3", "10"},
		{b, "blue-2", "9"},
		{a, "orange-1", "2"},
		{b, "blue-2", "8"},
		{a, "orange-3", "9"},
		{b, "blue-1", "1"},
		{a, "orange-3", "4"},
		{b, "blue-3", "6"},
		{a, "orange-3", "3"},
		{b, "blue-1", "4"},
		{a, "orange-1", "1"},
		{b, "blue-1", "9"},
		{a, "orange-1", "2"},
		{b, "blue-1", "10"},
		{a, "orange-3", "4"},
		{b, "blue-3", "1"},
		{a, "orange-3", "3"},
		{b, "blue-3", "4"},
		{a, "orange-1", "1"},
		{b, "blue-3", "9"},
	}

	for i, m := range moves {
		s.Require().NoError(s.controller.MakeMove(s.ctx, m.conn, m.stone, m.to), "move %d", i+1)

		moved := lastPayload[model.GameStatePayload](s, a, model.EventMoveMade)
		color := model.ColorOrange
		if m.conn == b {
			color = model.ColorBlue
		}
		stone, _, ok := moved.GameState.Stone(color, m.stone)
		s.Require().True(ok)
		s.Equal(m.to, stone.NodeID)
		s.Equal(model.IsGoal(color, m.to), stone.ReachedGoal, "move %d", i+1)
		if i < len(moves)-1 {
			s.False(moved.GameState.GameOver)
			s.Equal(color.Opponent(), moved.GameState.CurrentTurn)
		}
	}

	for _, conn := range []model.ConnID{a, b} {
		over := lastPayload[model.GameOverPayload](s, conn, model.EventGameOver)
		s.Equal(model.ColorBlue, over.Winner)
		s.True(over.GameState.GameOver)
		s.True(over.GameState.AllInGoal(model.ColorBlue))
	}

	err := s.controller.MakeMove(s.ctx, a, "orange-1", "1")
	s.ErrorIs(err, model.ErrGameOver)

	rec := s.stored("ROOM01")
	s.True(rec.GameOver)
	s.Equal(model.ColorBlue, rec.Game.Winner)
	s.Empty(s.registry.ListJoinable(s.ctx))

	// A finished room can be restarted
	s.Require().NoError(s.controller.StartGame(s.ctx, a))
	s.Equal(model.PhaseInProgress, s.snapshot("ROOM01").Phase())
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBoardIsUndirected(t *testing.T) {
	for n, neighbors := range adjacency {
		for _, m := range neighbors {
			assert.True(t, Adjacent(m, n), "%s-%s", m, n)
		}
	}
}

func TestGoalsAreOpponentStarts(t *testing.T) {
	assert.Equal(t, [StonesPerSide]NodeID{"5", "6", "7"}, GoalNodes(ColorOrange))
	assert.Equal(t, [StonesPerSide]NodeID{"10", "9", "8"}, GoalNodes(ColorBlue))
	assert.True(t, IsGoal(ColorBlue, "9"))
	assert.False(t, IsGoal(ColorOrange, "9"))
}

func TestRoomPhase(t *testing.T) {
	r := NewRoom("ABC123", "test", testTime)
	assert.Equal(t, PhaseWaitingForPlayer, r.Phase())

	r.Game = NewGameState()
	assert.Equal(t, PhaseAwaitingDice, r.Phase())

	r.Started = true
	assert.Equal(t, PhaseInProgress, r.Phase())

	r.Game.GameOver = true
	assert.Equal(t, PhaseGameOver, r.Phase())

	r.ResetGame()
	assert.Equal(t, PhaseWaitingForPlayer, r.Phase())
	assert.False(t, r.Started)
}

func TestRoomRecordKeepsSlotOwners(t *testing.T) {
	r := NewRoom("ABC123", "test", testTime)
	r.Slots[ColorOrange] = Slot{Conn: "c1", UserID: 7, DisplayName: "alice"}
	r.Slots[ColorBlue] = Slot{UserID: 9, DisplayName: "bob"}
	r.Game = NewGameState()

	rec := r.Record()

	assert.Equal(t, SlotRecord{UserID: 7, Conn: "c1"}, rec.Slots[ColorOrange])
	assert.Equal(t, SlotRecord{UserID: 9}, rec.Slots[ColorBlue])

	rec.Game.CurrentTurn = ColorBlue
	assert.Equal(t, ColorOrange, r.Game.CurrentTurn, "record holds a copy of the game")
}

var testTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

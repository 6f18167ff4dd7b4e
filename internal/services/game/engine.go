package game

import (
	"github.com/mcoot/threestones/internal/dependencies/random"
	"github.com/mcoot/threestones/internal/model"
)

const (
	// DieFaces is the number of faces on the start die
	DieFaces = 6
)

// Engine holds the Three Stones rules. All methods are pure except Roll.
type Engine struct {
	random random.Random
}

// NewEngine creates a new Engine
func NewEngine(random random.Random) *Engine {
	return &Engine{random: random}
}

// NewState returns a seeded game with no stones placed yet
func (e *Engine) NewState() *model.GameState {
	return model.NewGameState()
}

// Start places every stone on its start node and gives the first move to
// starter. The given state is not modified.
func (e *Engine) Start(state *model.GameState, starter model.Color) *model.GameState {
	next := state.Clone()
	if next == nil {
		next = model.NewGameState()
	}
	for _, c := range model.Colors {
		nodes := model.StartNodes(c)
		stones := make([]model.Stone, model.StonesPerSide)
		for i := range stones {
			stones[i] = model.Stone{
				ID:     model.StoneID(c, i+1),
				NodeID: nodes[i],
				Number: i + 1,
			}
		}
		next.SetStones(c, stones)
	}
	next.CurrentTurn = starter
	next.GameOver = false
	next.Winner = ""
	return next
}

// Roll returns a server-generated die value
func (e *Engine) Roll() int {
	return e.random.Intn(DieFaces) + 1
}

// NormalizeRoll keeps a client roll in range, replacing anything outside
// 1..6 with a server roll
func (e *Engine) NormalizeRoll(roll int) int {
	if roll < 1 || roll > DieFaces {
		return e.Roll()
	}
	return roll
}

// ResolveDice decides who moves first. ok is false when the rolls tie.
func (e *Engine) ResolveDice(orange, blue int) (starter model.Color, ok bool) {
	switch {
	case orange > blue:
		return model.ColorOrange, true
	case blue > orange:
		return model.ColorBlue, true
	default:
		return "", false
	}
}

// ValidateMove checks a move without applying it
func (e *Engine) ValidateMove(state *model.GameState, mover model.Color, stoneID string, to model.NodeID) error {
	if state == nil || !state.Placed() {
		return model.ErrGameNotStarted
	}
	if state.GameOver {
		return model.ErrGameOver
	}
	if state.CurrentTurn != mover {
		return model.ErrNotYourTurn
	}
	stone, _, ok := state.Stone(mover, stoneID)
	if !ok {
		return model.ErrStoneNotFound
	}
	if !stone.Placed() || !model.ValidNode(to) || !model.Adjacent(stone.NodeID, to) {
		return model.ErrIllegalDestination
	}
	if state.Occupied(to) {
		return model.ErrDestinationOccupied
	}
	return nil
}

// ApplyMove validates and applies a move, returning the resulting state.
// The given state is not modified.
func (e *Engine) ApplyMove(state *model.GameState, mover model.Color, stoneID string, to model.NodeID) (*model.GameState, error) {
	if err := e.ValidateMove(state, mover, stoneID, to); err != nil {
		return nil, err
	}

	next := state.Clone()
	stone, i, _ := next.Stone(mover, stoneID)
	stone.NodeID = to
	stone.ReachedGoal = model.IsGoal(mover, to)
	next.SetStone(mover, i, stone)

	if next.AllInGoal(mover) {
		next.GameOver = true
		next.Winner = mover
		return next, nil
	}
	next.CurrentTurn = mover.Opponent()
	return next, nil
}

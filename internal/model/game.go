package model

import "fmt"

// Stone is one game piece. NodeID is empty until the game starts.
type Stone struct {
	ID          string `json:"id"`
	NodeID      NodeID `json:"nodeId"`
	ReachedGoal bool   `json:"reachedGoal"`
	Number      int    `json:"number"`
}

// Placed reports whether the stone is on the board
func (s Stone) Placed() bool {
	return s.NodeID != ""
}

// GameState is the full board position, serialized verbatim to clients and
// to the store
type GameState struct {
	OrangeStones []Stone `json:"orangeStones"`
	BlueStones   []Stone `json:"blueStones"`
	CurrentTurn  Color   `json:"currentTurn"`
	GameOver     bool    `json:"gameOver"`
	Winner       Color   `json:"winner,omitempty"`
}

// StoneID returns the id of a side's n-th stone (1-based)
func StoneID(c Color, n int) string {
	return fmt.Sprintf("%s-%d", c, n)
}

// NewGameState creates a game with every stone unplaced and orange to move
func NewGameState() *GameState {
	gs := &GameState{CurrentTurn: ColorOrange}
	for _, c := range Colors {
		stones := make([]Stone, StonesPerSide)
		for i := range stones {
			stones[i] = Stone{ID: StoneID(c, i+1), Number: i + 1}
		}
		gs.SetStones(c, stones)
	}
	return gs
}

// Stones returns the stones belonging to a side
func (g *GameState) Stones(c Color) []Stone {
	if c == ColorOrange {
		return g.OrangeStones
	}
	return g.BlueStones
}

// SetStones replaces all stones of a side
func (g *GameState) SetStones(c Color, stones []Stone) {
	if c == ColorOrange {
		g.OrangeStones = stones
	} else {
		g.BlueStones = stones
	}
}

// Stone finds one of a side's stones by id
func (g *GameState) Stone(c Color, id string) (Stone, int, bool) {
	for i, s := range g.Stones(c) {
		if s.ID == id {
			return s, i, true
		}
	}
	return Stone{}, -1, false
}

// Occupied reports whether any stone sits on n
func (g *GameState) Occupied(n NodeID) bool {
	for _, c := range Colors {
		for _, s := range g.Stones(c) {
			if s.NodeID == n {
				return true
			}
		}
	}
	return false
}

// AllInGoal reports whether every stone of a side has reached its goal
func (g *GameState) AllInGoal(c Color) bool {
	stones := g.Stones(c)
	if len(stones) == 0 {
		return false
	}
	for _, s := range stones {
		if !s.ReachedGoal {
			return false
		}
	}
	return true
}

// Placed reports whether the stones have been put on their start nodes
func (g *GameState) Placed() bool {
	for _, c := range Colors {
		for _, s := range g.Stones(c) {
			if !s.Placed() {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy; nil stays nil
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	cp := *g
	cp.OrangeStones = append([]Stone(nil), g.OrangeStones...)
	cp.BlueStones = append([]Stone(nil), g.BlueStones...)
	return &cp
}

// SetStone replaces the stone at index i of a side
func (g *GameState) SetStone(c Color, i int, s Stone) {
	g.Stones(c)[i] = s
}

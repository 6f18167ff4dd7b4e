package model

// NodeID names a board node, "1" through "10"
type NodeID string

// StonesPerSide is the number of stones each color moves
const StonesPerSide = 3

// adjacency is the fixed, undirected board graph
var adjacency = map[NodeID][]NodeID{
	"10": {"9"},
	"9":  {"10", "8", "4"},
	"8":  {"9"},
	"4":  {"9", "1", "3"},
	"3":  {"4"},
	"1":  {"4", "6", "2"},
	"2":  {"1"},
	"6":  {"5", "7", "1"},
	"5":  {"6"},
	"7":  {"6"},
}

// Start nodes, in stone-number order. Each side's goal is the other's start.
var startNodes = map[Color][StonesPerSide]NodeID{
	ColorOrange: {"10", "9", "8"},
	ColorBlue:   {"5", "6", "7"},
}

// ValidNode reports whether n is a node on the board
func ValidNode(n NodeID) bool {
	_, ok := adjacency[n]
	return ok
}

// Neighbors returns the nodes adjacent to n
func Neighbors(n NodeID) []NodeID {
	out := make([]NodeID, len(adjacency[n]))
	copy(out, adjacency[n])
	return out
}

// Adjacent reports whether a and b share an edge
func Adjacent(a, b NodeID) bool {
	for _, n := range adjacency[a] {
		if n == b {
			return true
		}
	}
	return false
}

// StartNodes returns where a side's stones are placed when the game starts
func StartNodes(c Color) [StonesPerSide]NodeID {
	return startNodes[c]
}

// GoalNodes returns the nodes a side must occupy to win
func GoalNodes(c Color) [StonesPerSide]NodeID {
	return startNodes[c.Opponent()]
}

// IsGoal reports whether n is one of c's goal nodes
func IsGoal(c Color, n NodeID) bool {
	for _, g := range GoalNodes(c) {
		if g == n {
			return true
		}
	}
	return false
}

package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Room membership events
	EventRoomCreated  EventType = "room_created"
	EventRoomJoined   EventType = "room_joined"
	EventRoomRejoined EventType = "room_rejoined"
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventRoomLeft     EventType = "room_left"
	EventRoomDeleted  EventType = "room_deleted"

	// Game events
	EventGameStart  EventType = "game_start"
	EventDiceRoll   EventType = "dice_roll"
	EventDiceResult EventType = "dice_result"
	EventGameState  EventType = "game_state"
	EventMoveMade   EventType = "move_made"
	EventGameOver   EventType = "game_over"

	// Lobby events
	EventLobbyList EventType = "lobby_list"

	EventError EventType = "error"
)

// Event is the envelope for everything pushed to clients
type Event struct {
	Type      EventType `json:"type"`
	RoomCode  RoomCode  `json:"roomCode,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"data"`
}

// NewEvent stamps a payload with its type and room
func NewEvent(t EventType, code RoomCode, at time.Time, payload any) Event {
	return Event{Type: t, RoomCode: code, Timestamp: at, Payload: payload}
}

// RoomCreatedPayload is sent to the creator
type RoomCreatedPayload struct {
	RoomCode    RoomCode `json:"roomCode"`
	RoomName    string   `json:"roomName"`
	PlayerID    ConnID   `json:"playerId"`
	PlayerColor Color    `json:"playerColor"`
}

// RoomJoinedPayload is sent to a joining player
type RoomJoinedPayload struct {
	RoomCode    RoomCode `json:"roomCode"`
	RoomName    string   `json:"roomName"`
	PlayerID    ConnID   `json:"playerId"`
	PlayerColor Color    `json:"playerColor"`
}

// RoomRejoinedPayload is sent to a player reclaiming a seat
type RoomRejoinedPayload struct {
	RoomCode    RoomCode   `json:"roomCode"`
	RoomName    string     `json:"roomName"`
	PlayerID    ConnID     `json:"playerId"`
	PlayerColor Color      `json:"playerColor"`
	IsCreator   bool       `json:"isCreator"`
	GameState   *GameState `json:"gameState"`
}

// PlayersPayload carries the current seat map
type PlayersPayload struct {
	Players map[Color]string `json:"players"`
}

// PlayerLeftPayload is broadcast when a seat is vacated
type PlayerLeftPayload struct {
	Color   Color            `json:"color"`
	Players map[Color]string `json:"players"`
}

// RoomCodePayload acknowledges a leave or delete
type RoomCodePayload struct {
	RoomCode RoomCode `json:"roomCode"`
}

// GameStartPayload announces a seeded or restarted game
type GameStartPayload struct {
	GameState   *GameState `json:"gameState"`
	WaitForDice bool       `json:"waitForDice"`
}

// DiceRollPayload reports one side's start roll
type DiceRollPayload struct {
	Username string `json:"username"`
	Roll     int    `json:"roll"`
	Color    Color  `json:"color"`
}

// DiceResultPayload resolves the start rolls. Starter is nil on a tie.
type DiceResultPayload struct {
	Rolls   map[Color]int `json:"rolls"`
	Starter *Color        `json:"starter"`
	Tie     bool          `json:"tie"`
}

// GameStatePayload carries the board after a transition
type GameStatePayload struct {
	GameState *GameState `json:"gameState"`
}

// GameOverPayload announces the winner
type GameOverPayload struct {
	Winner    Color      `json:"winner"`
	GameState *GameState `json:"gameState"`
}

// LobbyListPayload is the public room listing
type LobbyListPayload struct {
	Rooms []RoomSummary `json:"rooms"`
}

// ErrorPayload is sent only to the requester of a failed action
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

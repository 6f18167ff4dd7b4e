// Package request defines the inbound websocket protocol. Every frame is an
// envelope {"type": ..., "data": {...}} decoded once into one of the message
// structs below.
package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcoot/threestones/internal/model"
)

// Type is the tag of an inbound message
type Type string

const (
	TypeCreateRoom   Type = "create_room"
	TypeJoinRoom     Type = "join_room"
	TypeRejoinRoom   Type = "rejoin_room"
	TypeLeaveRoom    Type = "leave_room"
	TypeDeleteRoom   Type = "delete_room"
	TypeGetLobbyList Type = "get_lobby_list"
	TypeStartGame    Type = "start_game"
	TypeMakeMove     Type = "make_move"
	TypeRollDice     Type = "roll_dice"
	TypeRequestRoll  Type = "request_roll"
)

// Envelope is the wire frame of every inbound message
type Envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is one decoded inbound message
type Message interface {
	MessageType() Type
	Validate() error
}

// CreateRoomRequest opens a new room
type CreateRoomRequest struct {
	DisplayName string `json:"displayName"`
	RoomName    string `json:"roomName"`
	Password    string `json:"password,omitempty"`
}

// JoinRoomRequest takes the free seat in a room
type JoinRoomRequest struct {
	DisplayName string         `json:"displayName"`
	RoomCode    model.RoomCode `json:"roomCode"`
	Password    string         `json:"password,omitempty"`
}

// RejoinRoomRequest reclaims a seat after a reconnect
type RejoinRoomRequest struct {
	DisplayName string         `json:"displayName"`
	RoomCode    model.RoomCode `json:"roomCode"`
	Password    string         `json:"password,omitempty"`
}

// LeaveRoomRequest gives up a seat
type LeaveRoomRequest struct {
	RoomCode model.RoomCode `json:"roomCode"`
}

// DeleteRoomRequest removes a room. DisplayName identifies a registered
// creator connecting from a new socket.
type DeleteRoomRequest struct {
	RoomCode    model.RoomCode `json:"roomCode"`
	DisplayName string         `json:"displayName,omitempty"`
}

// GetLobbyListRequest asks for the public room listing
type GetLobbyListRequest struct{}

// StartGameRequest starts without the dice roll
type StartGameRequest struct{}

// MakeMoveRequest moves one stone to an adjacent node
type MakeMoveRequest struct {
	StoneID  string       `json:"stoneId"`
	ToNodeID model.NodeID `json:"toNodeId"`
}

// RollDiceRequest reports a client roll. Zero or out of range rolls are
// replaced by the server.
type RollDiceRequest struct {
	Roll int `json:"roll,omitempty"`
}

// RequestRollRequest asks the server to roll for the caller
type RequestRollRequest struct {
	RoomCode model.RoomCode `json:"roomCode"`
}

func (CreateRoomRequest) MessageType() Type   { return TypeCreateRoom }
func (JoinRoomRequest) MessageType() Type     { return TypeJoinRoom }
func (RejoinRoomRequest) MessageType() Type   { return TypeRejoinRoom }
func (LeaveRoomRequest) MessageType() Type    { return TypeLeaveRoom }
func (DeleteRoomRequest) MessageType() Type   { return TypeDeleteRoom }
func (GetLobbyListRequest) MessageType() Type { return TypeGetLobbyList }
func (StartGameRequest) MessageType() Type    { return TypeStartGame }
func (MakeMoveRequest) MessageType() Type     { return TypeMakeMove }
func (RollDiceRequest) MessageType() Type     { return TypeRollDice }
func (RequestRollRequest) MessageType() Type  { return TypeRequestRoll }

func (CreateRoomRequest) Validate() error   { return nil }
func (GetLobbyListRequest) Validate() error { return nil }
func (StartGameRequest) Validate() error    { return nil }
func (RollDiceRequest) Validate() error     { return nil }

func (r JoinRoomRequest) Validate() error    { return requireCode(r.RoomCode) }
func (r RejoinRoomRequest) Validate() error  { return requireCode(r.RoomCode) }
func (r LeaveRoomRequest) Validate() error   { return requireCode(r.RoomCode) }
func (r DeleteRoomRequest) Validate() error  { return requireCode(r.RoomCode) }
func (r RequestRollRequest) Validate() error { return requireCode(r.RoomCode) }

func (r MakeMoveRequest) Validate() error {
	if strings.TrimSpace(r.StoneID) == "" {
		return fmt.Errorf("%w: stoneId is required", model.ErrInvalidMessage)
	}
	if strings.TrimSpace(string(r.ToNodeID)) == "" {
		return fmt.Errorf("%w: toNodeId is required", model.ErrInvalidMessage)
	}
	return nil
}

func requireCode(code model.RoomCode) error {
	if strings.TrimSpace(string(code)) == "" {
		return fmt.Errorf("%w: roomCode is required", model.ErrInvalidMessage)
	}
	return nil
}

var constructors = map[Type]func() Message{
	TypeCreateRoom:   func() Message { return &CreateRoomRequest{} },
	TypeJoinRoom:     func() Message { return &JoinRoomRequest{} },
	TypeRejoinRoom:   func() Message { return &RejoinRoomRequest{} },
	TypeLeaveRoom:    func() Message { return &LeaveRoomRequest{} },
	TypeDeleteRoom:   func() Message { return &DeleteRoomRequest{} },
	TypeGetLobbyList: func() Message { return &GetLobbyListRequest{} },
	TypeStartGame:    func() Message { return &StartGameRequest{} },
	TypeMakeMove:     func() Message { return &MakeMoveRequest{} },
	TypeRollDice:     func() Message { return &RollDiceRequest{} },
	TypeRequestRoll:  func() Message { return &RequestRollRequest{} },
}

// Decode parses and validates one inbound frame. The result is always a
// pointer to one of the request structs. Every failure wraps
// model.ErrInvalidMessage.
func Decode(raw []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidMessage, err)
	}
	newMessage, ok := constructors[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", model.ErrInvalidMessage, env.Type)
	}

	msg := newMessage()
	data := bytes.TrimSpace(env.Data)
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrInvalidMessage, env.Type, err)
		}
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode builds the wire frame for a message
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msg.MessageType(), Data: data})
}

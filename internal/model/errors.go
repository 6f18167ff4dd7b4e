package model

import "errors"

// Common errors used across the application
var (
	// Message errors
	ErrInvalidMessage = errors.New("invalid message")

	// Room errors
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrRoomNameRequired = errors.New("room name is required")
	ErrPasswordRequired = errors.New("password required")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrAlreadyInRoom    = errors.New("already in this room")
	ErrNotInRoom        = errors.New("not in this room")
	ErrNotCreator       = errors.New("only the room creator can delete the room")
	ErrCodeExhausted    = errors.New("could not allocate a room code")
	ErrRoomMismatch     = errors.New("room mismatch")
	ErrNotEnoughPlayers = errors.New("two players are required to start")
	ErrGameInProgress   = errors.New("game already in progress")

	// Game errors
	ErrGameNotStarted      = errors.New("game has not started")
	ErrGameOver            = errors.New("game is over")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrStoneNotFound       = errors.New("stone not found")
	ErrIllegalDestination  = errors.New("stone cannot move there")
	ErrDestinationOccupied = errors.New("destination is occupied")
	ErrDiceNotExpected     = errors.New("no dice roll expected")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)

package apierr

import (
	"errors"
	"net/http"

	"github.com/mcoot/threestones/internal/model"
)

// APIError represents an API error response. The same shape is the payload
// of websocket error events.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodeRoomFull            = "ROOM_FULL"
	CodeRoomNameRequired    = "ROOM_NAME_REQUIRED"
	CodePasswordRequired    = "PASSWORD_REQUIRED"
	CodeWrongPassword       = "WRONG_PASSWORD"
	CodeAlreadyInRoom       = "ALREADY_IN_ROOM"
	CodeNotInRoom           = "NOT_IN_ROOM"
	CodeNotCreator          = "NOT_CREATOR"
	CodeCodeExhausted       = "ROOM_CODES_EXHAUSTED"
	CodeRoomMismatch        = "ROOM_MISMATCH"
	CodeNotEnoughPlayers    = "NOT_ENOUGH_PLAYERS"
	CodeGameInProgress      = "GAME_IN_PROGRESS"
	CodeGameNotStarted      = "GAME_NOT_STARTED"
	CodeGameOver            = "GAME_OVER"
	CodeNotYourTurn         = "NOT_YOUR_TURN"
	CodeStoneNotFound       = "STONE_NOT_FOUND"
	CodeIllegalMove         = "ILLEGAL_MOVE"
	CodeDestinationOccupied = "DESTINATION_OCCUPIED"
	CodeDiceNotExpected     = "DICE_NOT_EXPECTED"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// FromError maps an error to the code and message shown to the client
func FromError(err error) APIError {
	return toHTTPError(err).apiError
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Message errors carry the validation detail
	case errors.Is(err, model.ErrInvalidMessage):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}

	// Map room errors
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrRoomNameRequired):
		return &httpError{http.StatusBadRequest, APIError{CodeRoomNameRequired, "Room name is required"}}
	case errors.Is(err, model.ErrPasswordRequired):
		return &httpError{http.StatusUnauthorized, APIError{CodePasswordRequired, "This room requires a password"}}
	case errors.Is(err, model.ErrWrongPassword):
		return &httpError{http.StatusForbidden, APIError{CodeWrongPassword, "Incorrect password"}}
	case errors.Is(err, model.ErrAlreadyInRoom):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInRoom, "Already in this room"}}
	case errors.Is(err, model.ErrNotInRoom):
		return &httpError{http.StatusConflict, APIError{CodeNotInRoom, "Not in this room"}}
	case errors.Is(err, model.ErrNotCreator):
		return &httpError{http.StatusForbidden, APIError{CodeNotCreator, "Only the room creator can delete the room"}}
	case errors.Is(err, model.ErrCodeExhausted):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeCodeExhausted, "Could not create a room, try again"}}
	case errors.Is(err, model.ErrRoomMismatch):
		return &httpError{http.StatusConflict, APIError{CodeRoomMismatch, "Room mismatch"}}
	case errors.Is(err, model.ErrNotEnoughPlayers):
		return &httpError{http.StatusConflict, APIError{CodeNotEnoughPlayers, "Two players are required to start"}}
	case errors.Is(err, model.ErrGameInProgress):
		return &httpError{http.StatusConflict, APIError{CodeGameInProgress, "Game is in progress"}}

	// Map game errors
	case errors.Is(err, model.ErrGameNotStarted):
		return &httpError{http.StatusConflict, APIError{CodeGameNotStarted, "Game has not started"}}
	case errors.Is(err, model.ErrGameOver):
		return &httpError{http.StatusConflict, APIError{CodeGameOver, "Game is over"}}
	case errors.Is(err, model.ErrNotYourTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, "Not your turn"}}
	case errors.Is(err, model.ErrStoneNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeStoneNotFound, "Stone not found"}}
	case errors.Is(err, model.ErrIllegalDestination):
		return &httpError{http.StatusBadRequest, APIError{CodeIllegalMove, "Stone cannot move there"}}
	case errors.Is(err, model.ErrDestinationOccupied):
		return &httpError{http.StatusConflict, APIError{CodeDestinationOccupied, "Destination is occupied"}}
	case errors.Is(err, model.ErrDiceNotExpected):
		return &httpError{http.StatusConflict, APIError{CodeDiceNotExpected, "No dice roll expected"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewNotFoundError is returned for paths no route serves
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
}

// NewMethodNotAllowedError is returned when a route exists but not for the method
func NewMethodNotAllowedError() error {
	return &httpError{http.StatusMethodNotAllowed, APIError{CodeMethodNotAllowed, "Method not allowed"}}
}

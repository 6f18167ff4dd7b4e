package room

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/threestones/internal/model"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 6
	// CodeAlphabet is the characters used in room codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// DefaultDisplayName is used when a client sends a blank name
	DefaultDisplayName = "Player"
)

// Config holds room lifecycle settings
type Config struct {
	// GracePeriod is how long a disconnected player keeps their seat
	GracePeriod time.Duration

	// Code generation
	CodeLength   int
	CodeAlphabet string
	CodeAttempts int

	// ActiveRoomMaxAge bounds which stored rooms are listed and restored
	ActiveRoomMaxAge time.Duration

	// PasswordCost is the bcrypt cost for room passwords
	PasswordCost int
}

// DefaultConfig returns the default room settings
func DefaultConfig() Config {
	return Config{
		GracePeriod:      10 * time.Second,
		CodeLength:       CodeLength,
		CodeAlphabet:     CodeAlphabet,
		CodeAttempts:     100,
		ActiveRoomMaxAge: 24 * time.Hour,
		PasswordCost:     bcrypt.DefaultCost,
	}
}

// Notifier delivers events to live connections
type Notifier interface {
	// Send delivers to a single connection
	Send(conn model.ConnID, event model.Event)

	// Broadcast delivers to every connection subscribed to a room
	Broadcast(code model.RoomCode, event model.Event)

	// BroadcastAll delivers to every live connection
	BroadcastAll(event model.Event)

	Subscribe(conn model.ConnID, code model.RoomCode)
	Unsubscribe(conn model.ConnID, code model.RoomCode)
}

// LobbyScheduler requests a refresh of the public room listing
type LobbyScheduler interface {
	Schedule()
}

// Writer mirrors room changes to the store without blocking
type Writer interface {
	UpsertRoom(rec *model.RoomRecord)
	UpdateSlot(code model.RoomCode, color model.Color, userID model.UserID, conn model.ConnID)
	MarkStarted(code model.RoomCode, at time.Time)
	SaveGameState(code model.RoomCode, state *model.GameState)
	ResetGame(code model.RoomCode)
	DeleteRoom(code model.RoomCode, onDone func(err error))
}

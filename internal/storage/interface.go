package storage

import (
	"context"
	"time"

	"github.com/mcoot/threestones/internal/model"
)

// Storage is the durable recovery store for rooms. Memory is authoritative
// while the server runs; the store lets rooms survive a restart.
//
// Update operations on a room that does not exist are no-ops.
type Storage interface {
	// Room writes
	UpsertRoom(ctx context.Context, rec *model.RoomRecord) error
	UpdateSlot(ctx context.Context, code model.RoomCode, color model.Color, userID model.UserID, conn model.ConnID) error
	MarkStarted(ctx context.Context, code model.RoomCode, startedAt time.Time) error
	SaveGameState(ctx context.Context, code model.RoomCode, state *model.GameState) error
	ResetGame(ctx context.Context, code model.RoomCode) error
	DeleteRoom(ctx context.Context, code model.RoomCode) error

	// Room reads
	LoadRoom(ctx context.Context, code model.RoomCode) (*model.RoomRecord, error)
	LoadActiveRooms(ctx context.Context, createdAfter time.Time) ([]*model.RoomRecord, error)
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)

	// User lookups
	LookupUserID(ctx context.Context, username string) (model.UserID, error)
	LookupUsername(ctx context.Context, id model.UserID) (string, error)

	Close() error
}

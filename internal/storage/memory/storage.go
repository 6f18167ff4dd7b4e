package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms         map[model.RoomCode]*model.RoomRecord
	users         map[model.UserID]*model.User
	usernameIndex map[string]model.UserID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:         make(map[model.RoomCode]*model.RoomRecord),
		users:         make(map[model.UserID]*model.User),
		usernameIndex: make(map[string]model.UserID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// Room writes

func (s *Storage) UpsertRoom(ctx context.Context, rec *model.RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[rec.Code] = rec.Clone()
	return nil
}

func (s *Storage) UpdateSlot(ctx context.Context, code model.RoomCode, color model.Color, userID model.UserID, conn model.ConnID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rooms[code]
	if !ok {
		return nil
	}
	if userID == 0 && conn == "" {
		delete(rec.Slots, color)
		return nil
	}
	rec.Slots[color] = model.SlotRecord{UserID: userID, Conn: conn}
	return nil
}

func (s *Storage) MarkStarted(ctx context.Context, code model.RoomCode, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.rooms[code]; ok {
		rec.Started = true
		rec.StartedAt = startedAt
	}
	return nil
}

func (s *Storage) SaveGameState(ctx context.Context, code model.RoomCode, state *model.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.rooms[code]; ok {
		rec.Game = state.Clone()
		rec.GameOver = state != nil && state.GameOver
	}
	return nil
}

func (s *Storage) ResetGame(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.rooms[code]; ok {
		rec.Game = nil
		rec.Started = false
		rec.StartedAt = time.Time{}
		rec.GameOver = false
	}
	return nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

// Room reads

func (s *Storage) LoadRoom(ctx context.Context, code model.RoomCode) (*model.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return rec.Clone(), nil
}

func (s *Storage) LoadActiveRooms(ctx context.Context, createdAfter time.Time) ([]*model.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.RoomRecord
	for _, rec := range s.rooms {
		if rec.GameOver || !rec.CreatedAt.After(createdAfter) {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

// User operations

// AddUser registers a user. Used to seed accounts in tests and local runs.
func (s *Storage) AddUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[u.ID] = &u
	s.usernameIndex[u.Username] = u.ID
	return nil
}

func (s *Storage) LookupUserID(ctx context.Context, username string) (model.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return 0, model.ErrUserNotFound
	}
	return id, nil
}

func (s *Storage) LookupUsername(ctx context.Context, id model.UserID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return "", model.ErrUserNotFound
	}
	return u.Username, nil
}

package room

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/mcoot/threestones/internal/dependencies/clock"
	"github.com/mcoot/threestones/internal/dependencies/random"
	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/services/session"
	"github.com/mcoot/threestones/internal/storage"
)

// Handle guards one resident room. Every read or write of the room, and
// every grace timer callback, runs under mu.
type Handle struct {
	mu      sync.Mutex
	room    *model.Room
	grace   map[model.ConnID]*graceTimer
	removed bool
}

type graceTimer struct {
	timer clock.Timer
}

func newHandle(room *model.Room) *Handle {
	return &Handle{
		room:  room,
		grace: make(map[model.ConnID]*graceTimer),
	}
}

// lock acquires the handle, failing if the room was deleted meanwhile
func (h *Handle) lock() bool {
	h.mu.Lock()
	if h.removed {
		h.mu.Unlock()
		return false
	}
	return true
}

// locked runs fn holding the handle and releases it on every exit path,
// panics included. A deleted room gives ErrRoomNotFound without calling fn.
func (h *Handle) locked(fn func() error) error {
	if !h.lock() {
		return model.ErrRoomNotFound
	}
	defer h.mu.Unlock()
	return fn()
}

// Registry owns every resident room and hydrates misses from the store.
// Lock order: a room lock may be held while taking the registry or session
// lock, never the reverse.
type Registry struct {
	store    storage.Storage
	sessions *session.Table
	clock    clock.Clock
	random   random.Random
	cfg      Config
	logger   *slog.Logger

	mu         sync.RWMutex
	rooms      map[model.RoomCode]*Handle
	tombstones map[model.RoomCode]struct{}
}

// NewRegistry creates a new Registry
func NewRegistry(
	store storage.Storage,
	sessions *session.Table,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		store:      store,
		sessions:   sessions,
		clock:      clock,
		random:     random,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "registry")),
		rooms:      make(map[model.RoomCode]*Handle),
		tombstones: make(map[model.RoomCode]struct{}),
	}
}

// Lookup returns a resident room without touching the store
func (r *Registry) Lookup(code model.RoomCode) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.rooms[code]
	return h, ok
}

func (r *Registry) tombstoned(code model.RoomCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tombstones[code]
	return ok
}

// Get returns a room from memory, hydrating it from the store on a miss
func (r *Registry) Get(ctx context.Context, code model.RoomCode) (*Handle, error) {
	if h, ok := r.Lookup(code); ok {
		return h, nil
	}
	if r.tombstoned(code) {
		return nil, model.ErrRoomNotFound
	}

	rec, err := r.store.LoadRoom(ctx, code)
	if err != nil {
		if !errors.Is(err, model.ErrRoomNotFound) {
			r.logger.Error("failed to load room",
				slog.String("room", string(code)),
				slog.String("error", err.Error()))
		}
		return nil, model.ErrRoomNotFound
	}

	h, _ := r.insertIfAbsent(r.hydrate(ctx, rec))
	if h == nil {
		return nil, model.ErrRoomNotFound
	}
	return h, nil
}

// hydrate rebuilds a room from its stored record. Connection ids in the
// record belong to a previous process, so seats keep only their owner.
func (r *Registry) hydrate(ctx context.Context, rec *model.RoomRecord) *model.Room {
	room := model.NewRoom(rec.Code, rec.Name, rec.CreatedAt)
	room.PasswordDigest = rec.PasswordDigest
	room.CreatorConn = rec.CreatorConn
	room.CreatorUserID = rec.CreatorUserID
	if rec.CreatorUserID != 0 {
		room.CreatorName = r.username(ctx, rec.CreatorUserID)
	}

	for color, slot := range rec.Slots {
		if slot.UserID != 0 && color.Valid() {
			room.Slots[color] = model.Slot{UserID: slot.UserID}
		}
	}
	if rec.Started && rec.Game != nil {
		room.Game = rec.Game.Clone()
		room.Started = true
		room.StartedAt = rec.StartedAt
	}
	return room
}

// insertIfAbsent caches a hydrated room unless another caller won the race
// or the code was deleted meanwhile. inserted reports whether h is new.
func (r *Registry) insertIfAbsent(room *model.Room) (h *Handle, inserted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dead := r.tombstones[room.Code]; dead {
		return nil, false
	}
	if existing, ok := r.rooms[room.Code]; ok {
		return existing, false
	}
	h = newHandle(room)
	r.rooms[room.Code] = h
	return h, true
}

// Create assigns a fresh code to room and makes it resident. The returned
// handle is already locked; the caller must unlock it.
func (r *Registry) Create(ctx context.Context, room *model.Room) (*Handle, error) {
	for attempt := 0; attempt < r.cfg.CodeAttempts; attempt++ {
		code := model.NormalizeRoomCode(r.random.String(r.cfg.CodeLength, r.cfg.CodeAlphabet))
		if len(code) != r.cfg.CodeLength {
			continue
		}
		if _, ok := r.Lookup(code); ok || r.tombstoned(code) {
			continue
		}
		exists, err := r.store.RoomExists(ctx, code)
		if err != nil {
			r.logger.Warn("room code check failed",
				slog.String("room", string(code)),
				slog.String("error", err.Error()))
			continue
		}
		if exists {
			continue
		}

		room.Code = code
		h := newHandle(room)
		h.mu.Lock()

		r.mu.Lock()
		_, taken := r.rooms[code]
		_, dead := r.tombstones[code]
		if !taken && !dead {
			r.rooms[code] = h
		}
		r.mu.Unlock()

		if taken || dead {
			h.mu.Unlock()
			continue
		}
		return h, nil
	}

	r.logger.Error("room code space exhausted", slog.Int("attempts", r.cfg.CodeAttempts))
	return nil, model.ErrCodeExhausted
}

// Remove drops a room and blocks the code from hydration until
// ClearTombstone is called
func (r *Registry) Remove(code model.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
	r.tombstones[code] = struct{}{}
}

// ClearTombstone forgets a deleted code once the store no longer has it
func (r *Registry) ClearTombstone(code model.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tombstones, code)
}

// Restore preloads recently active rooms from the store
func (r *Registry) Restore(ctx context.Context) (int, error) {
	recs, err := r.store.LoadActiveRooms(ctx, r.clock.Now().Add(-r.cfg.ActiveRoomMaxAge))
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, rec := range recs {
		if _, inserted := r.insertIfAbsent(r.hydrate(ctx, rec)); inserted {
			restored++
		}
	}
	r.logger.Info("rooms restored", slog.Int("count", restored))
	return restored, nil
}

// Count returns the number of resident rooms
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// ListJoinable merges resident rooms with stored ones into the public
// listing. Player counts are live: a seat counts only while its connection
// has a session in the room.
func (r *Registry) ListJoinable(ctx context.Context) []model.RoomSummary {
	recs, err := r.store.LoadActiveRooms(ctx, r.clock.Now().Add(-r.cfg.ActiveRoomMaxAge))
	if err != nil {
		r.logger.Error("failed to load rooms for lobby", slog.String("error", err.Error()))
	}

	r.mu.RLock()
	handles := make([]*Handle, 0, len(r.rooms))
	for _, h := range r.rooms {
		handles = append(handles, h)
	}
	tombstones := make(map[model.RoomCode]struct{}, len(r.tombstones))
	for code := range r.tombstones {
		tombstones[code] = struct{}{}
	}
	r.mu.RUnlock()

	seen := make(map[model.RoomCode]bool, len(handles)+len(recs))
	out := make([]model.RoomSummary, 0, len(handles)+len(recs))
	for _, h := range handles {
		summary, phase, ok := r.summarize(h)
		if !ok {
			continue
		}
		seen[summary.Code] = true
		if phase == model.PhaseGameOver {
			continue
		}
		out = append(out, summary)
	}

	names := make(map[model.UserID]string)
	for _, rec := range recs {
		if seen[rec.Code] {
			continue
		}
		if _, dead := tombstones[rec.Code]; dead {
			continue
		}
		seen[rec.Code] = true
		summary := model.RoomSummary{
			Code:          rec.Code,
			Name:          rec.Name,
			MaxPlayers:    model.MaxPlayers,
			HasPassword:   rec.PasswordDigest != "",
			Started:       rec.Started,
			CreatorUserID: rec.CreatorUserID,
			CreatedAt:     rec.CreatedAt,
		}
		if rec.CreatorUserID != 0 {
			if _, ok := names[rec.CreatorUserID]; !ok {
				names[rec.CreatorUserID] = r.username(ctx, rec.CreatorUserID)
			}
			summary.CreatorUsername = names[rec.CreatorUserID]
		}
		out = append(out, summary)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Summary returns the public view of one room, hydrating it if needed
func (r *Registry) Summary(ctx context.Context, code model.RoomCode) (model.RoomSummary, error) {
	h, err := r.Get(ctx, code)
	if err != nil {
		return model.RoomSummary{}, err
	}
	summary, _, ok := r.summarize(h)
	if !ok {
		return model.RoomSummary{}, model.ErrRoomNotFound
	}
	return summary, nil
}

func (r *Registry) summarize(h *Handle) (model.RoomSummary, model.Phase, bool) {
	if !h.lock() {
		return model.RoomSummary{}, "", false
	}
	defer h.mu.Unlock()

	room := h.room
	live := 0
	for _, c := range model.Colors {
		if s := room.Slots[c]; s.Occupied() && r.sessions.InRoom(s.Conn, room.Code) {
			live++
		}
	}
	return model.RoomSummary{
		Code:            room.Code,
		Name:            room.Name,
		Players:         live,
		MaxPlayers:      model.MaxPlayers,
		HasPassword:     room.HasPassword(),
		Started:         room.Started,
		CreatorUserID:   room.CreatorUserID,
		CreatorUsername: room.CreatorName,
		CreatedAt:       room.CreatedAt,
	}, room.Phase(), true
}

func (r *Registry) username(ctx context.Context, id model.UserID) string {
	name, err := r.store.LookupUsername(ctx, id)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			r.logger.Warn("username lookup failed",
				slog.Int64("user_id", int64(id)),
				slog.String("error", err.Error()))
		}
		return ""
	}
	return name
}

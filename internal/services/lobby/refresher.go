// Package lobby keeps every connection's view of the public room list
// current.
package lobby

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/threestones/internal/dependencies/clock"
	"github.com/mcoot/threestones/internal/model"
)

// Config holds lobby refresh settings
type Config struct {
	// Debounce coalesces refresh requests; zero or less publishes at once
	Debounce time.Duration

	// PublishTimeout bounds the store reads behind one listing
	PublishTimeout time.Duration
}

// DefaultConfig returns the default refresh settings
func DefaultConfig() Config {
	return Config{
		Debounce:       100 * time.Millisecond,
		PublishTimeout: 5 * time.Second,
	}
}

// Lister builds the public room listing
type Lister interface {
	ListJoinable(ctx context.Context) []model.RoomSummary
}

// Broadcaster delivers an event to every live connection
type Broadcaster interface {
	BroadcastAll(event model.Event)
}

// Refresher recomputes the lobby listing and pushes it to all connections
type Refresher struct {
	lister      Lister
	broadcaster Broadcaster
	clock       clock.Clock
	cfg         Config
	logger      *slog.Logger

	mu      sync.Mutex
	pending clock.Timer
	closed  bool
	last    []model.RoomSummary
}

// NewRefresher creates a new Refresher
func NewRefresher(lister Lister, broadcaster Broadcaster, clock clock.Clock, cfg Config, logger *slog.Logger) *Refresher {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}
	return &Refresher{
		lister:      lister,
		broadcaster: broadcaster,
		clock:       clock,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "lobby")),
	}
}

// Schedule requests a refresh. Requests made while one is pending are
// folded into it. Callers must not hold a room lock.
func (r *Refresher) Schedule() {
	r.mu.Lock()
	if r.closed || r.pending != nil {
		r.mu.Unlock()
		return
	}
	if r.cfg.Debounce <= 0 {
		r.mu.Unlock()
		r.publishDetached()
		return
	}
	r.pending = r.clock.AfterFunc(r.cfg.Debounce, r.fire)
	r.mu.Unlock()
}

func (r *Refresher) fire() {
	r.mu.Lock()
	r.pending = nil
	closed := r.closed
	r.mu.Unlock()

	if !closed {
		r.publishDetached()
	}
}

func (r *Refresher) publishDetached() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.PublishTimeout)
	defer cancel()
	r.Publish(ctx)
}

// Publish computes the listing now and broadcasts it
func (r *Refresher) Publish(ctx context.Context) []model.RoomSummary {
	rooms := r.lister.ListJoinable(ctx)

	r.mu.Lock()
	r.last = rooms
	r.mu.Unlock()

	r.broadcaster.BroadcastAll(model.NewEvent(model.EventLobbyList, "", r.clock.Now(), model.LobbyListPayload{
		Rooms: rooms,
	}))
	r.logger.Debug("lobby published", slog.Int("rooms", len(rooms)))
	return rooms
}

// Snapshot returns the most recently published listing
func (r *Refresher) Snapshot() []model.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.RoomSummary(nil), r.last...)
}

// Close cancels any pending refresh. Later requests are ignored.
func (r *Refresher) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

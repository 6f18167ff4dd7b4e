// Package writebehind mirrors room mutations to the durable store without
// blocking gameplay. Writes run in enqueue order on a single worker; failures
// are logged and dropped.
package writebehind

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/storage"
)

// ErrClosed is returned by Flush after Close
var ErrClosed = errors.New("write-behind queue closed")

// Config holds queue settings
type Config struct {
	// QueueSize bounds pending writes; further writes are dropped
	QueueSize int

	// JobTimeout bounds each store call
	JobTimeout time.Duration
}

// DefaultConfig returns the default queue settings
func DefaultConfig() Config {
	return Config{
		QueueSize:  1024,
		JobTimeout: 5 * time.Second,
	}
}

type job struct {
	op      string
	code    model.RoomCode
	run     func(ctx context.Context) error
	onDone  func(err error)
	barrier chan struct{}
}

// Writer is the fire-and-forget write queue in front of a Storage
type Writer struct {
	store  storage.Storage
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	done   chan struct{}
}

// New creates a Writer and starts its worker
func New(store storage.Storage, cfg Config, logger *slog.Logger) *Writer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultConfig().JobTimeout
	}
	w := &Writer{
		store:  store,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "writebehind")),
		jobs:   make(chan job, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Writer) run() {
	defer close(w.done)
	for j := range w.jobs {
		if j.barrier != nil {
			close(j.barrier)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
		err := j.run(ctx)
		cancel()

		if err != nil {
			w.logger.Error("persistence write failed",
				slog.String("op", j.op),
				slog.String("room", string(j.code)),
				slog.String("error", err.Error()))
		}
		if j.onDone != nil {
			j.onDone(err)
		}
	}
}

func (w *Writer) enqueue(j job) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.logger.Warn("persistence write dropped - queue closed",
			slog.String("op", j.op),
			slog.String("room", string(j.code)))
		return
	}
	select {
	case w.jobs <- j:
	default:
		w.logger.Warn("persistence write dropped - queue full",
			slog.String("op", j.op),
			slog.String("room", string(j.code)))
	}
}

// UpsertRoom queues a full room write
func (w *Writer) UpsertRoom(rec *model.RoomRecord) {
	rec = rec.Clone()
	w.enqueue(job{op: "upsert_room", code: rec.Code, run: func(ctx context.Context) error {
		return w.store.UpsertRoom(ctx, rec)
	}})
}

// UpdateSlot queues a seat write; zero values clear the seat
func (w *Writer) UpdateSlot(code model.RoomCode, color model.Color, userID model.UserID, conn model.ConnID) {
	w.enqueue(job{op: "update_slot", code: code, run: func(ctx context.Context) error {
		return w.store.UpdateSlot(ctx, code, color, userID, conn)
	}})
}

// MarkStarted queues the started flag
func (w *Writer) MarkStarted(code model.RoomCode, at time.Time) {
	w.enqueue(job{op: "mark_started", code: code, run: func(ctx context.Context) error {
		return w.store.MarkStarted(ctx, code, at)
	}})
}

// SaveGameState queues a snapshot of the board
func (w *Writer) SaveGameState(code model.RoomCode, state *model.GameState) {
	state = state.Clone()
	w.enqueue(job{op: "save_game_state", code: code, run: func(ctx context.Context) error {
		return w.store.SaveGameState(ctx, code, state)
	}})
}

// ResetGame queues clearing the game columns
func (w *Writer) ResetGame(code model.RoomCode) {
	w.enqueue(job{op: "reset_game", code: code, run: func(ctx context.Context) error {
		return w.store.ResetGame(ctx, code)
	}})
}

// DeleteRoom queues a delete. onDone, if set, runs on the worker with the
// store's result.
func (w *Writer) DeleteRoom(code model.RoomCode, onDone func(err error)) {
	w.enqueue(job{op: "delete_room", code: code, onDone: onDone, run: func(ctx context.Context) error {
		return w.store.DeleteRoom(ctx, code)
	}})
}

// Flush waits until every write queued before the call has run
func (w *Writer) Flush(ctx context.Context) error {
	barrier := make(chan struct{})

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrClosed
	}
	select {
	case w.jobs <- job{barrier: barrier}:
		w.mu.RUnlock()
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()

	<-w.done
	w.logger.Info("write-behind queue stopped")
}

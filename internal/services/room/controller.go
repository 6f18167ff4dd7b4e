package room

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/threestones/internal/dependencies/clock"
	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/services/game"
	"github.com/mcoot/threestones/internal/services/session"
	"github.com/mcoot/threestones/internal/storage"
)

// Controller runs every room transition: matchmaking, reconnection,
// disconnect grace, and gameplay. Each method is safe to call from any
// connection goroutine.
type Controller struct {
	registry *Registry
	sessions *session.Table
	store    storage.Storage
	writer   Writer
	engine   *game.Engine
	notifier Notifier
	lobby    LobbyScheduler
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger
}

// NewController creates a new Controller
func NewController(
	registry *Registry,
	sessions *session.Table,
	store storage.Storage,
	writer Writer,
	engine *game.Engine,
	notifier Notifier,
	lobby LobbyScheduler,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		registry: registry,
		sessions: sessions,
		store:    store,
		writer:   writer,
		engine:   engine,
		notifier: notifier,
		lobby:    lobby,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "room")),
	}
}

func (c *Controller) event(t model.EventType, code model.RoomCode, payload any) model.Event {
	return model.NewEvent(t, code, c.clock.Now(), payload)
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDisplayName
	}
	return name
}

// lookupUser resolves a display name to a registered user; guests get zero
func (c *Controller) lookupUser(ctx context.Context, name string) model.UserID {
	id, err := c.store.LookupUserID(ctx, name)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			c.logger.Warn("user lookup failed",
				slog.String("username", name),
				slog.String("error", err.Error()))
		}
		return 0
	}
	return id
}

func checkPassword(digest, password string) error {
	if password == "" {
		return model.ErrPasswordRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)); err != nil {
		return model.ErrWrongPassword
	}
	return nil
}

// sessionRoom resolves the room and seat a connection is playing in
func (c *Controller) sessionRoom(conn model.ConnID) (*Handle, error) {
	sess, ok := c.sessions.Get(conn)
	if !ok {
		return nil, model.ErrNotInRoom
	}
	h, ok := c.registry.Lookup(sess.RoomCode)
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return h, nil
}

// leaveCurrent takes conn out of whatever room it is in, unless that room
// is keep
func (c *Controller) leaveCurrent(ctx context.Context, conn model.ConnID, keep model.RoomCode) {
	sess, ok := c.sessions.Get(conn)
	if !ok || sess.RoomCode == keep {
		return
	}
	if err := c.Leave(ctx, conn, sess.RoomCode); err != nil {
		c.logger.Debug("leave before switching rooms failed",
			slog.String("conn", string(conn)),
			slog.String("room", string(sess.RoomCode)),
			slog.String("error", err.Error()))
	}
}

// The helpers below require h.mu to be held.

// seat puts conn into a slot and wires up its session and subscription
func (c *Controller) seat(h *Handle, color model.Color, slot model.Slot) {
	room := h.room
	room.Slots[color] = slot
	c.sessions.Bind(model.Session{
		ConnID:      slot.Conn,
		DisplayName: slot.DisplayName,
		RoomCode:    room.Code,
		Color:       color,
	})
	c.notifier.Subscribe(slot.Conn, room.Code)
	c.writer.UpdateSlot(room.Code, color, slot.UserID, slot.Conn)
}

// vacate clears a seat, resets any game and tells the room
func (c *Controller) vacate(h *Handle, color model.Color) {
	room := h.room
	slot := room.Slots[color]
	c.cancelGrace(h, slot.Conn)
	delete(room.Slots, color)
	c.writer.UpdateSlot(room.Code, color, 0, "")

	if room.Game != nil {
		room.ResetGame()
		c.writer.ResetGame(room.Code)
	}

	c.notifier.Broadcast(room.Code, c.event(model.EventPlayerLeft, room.Code, model.PlayerLeftPayload{
		Color:   color,
		Players: room.PlayerNames(),
	}))
	c.logger.Info("seat vacated",
		slog.String("room", string(room.Code)),
		slog.String("color", string(color)),
		slog.String("conn", string(slot.Conn)))
}

// prune clears seats whose connection has neither a session in the room
// nor a pending grace timer
func (c *Controller) prune(h *Handle) {
	for _, color := range model.Colors {
		slot := h.room.Slots[color]
		if !slot.Occupied() {
			continue
		}
		if c.sessions.InRoom(slot.Conn, h.room.Code) {
			continue
		}
		if _, pending := h.grace[slot.Conn]; pending {
			continue
		}
		c.vacate(h, color)
	}
}

func (c *Controller) cancelGrace(h *Handle, conn model.ConnID) {
	if gt, ok := h.grace[conn]; ok {
		gt.timer.Stop()
		delete(h.grace, conn)
	}
}

// joinable reports why a fresh player cannot take a seat
func joinable(room *model.Room) error {
	if room.Full() {
		return model.ErrRoomFull
	}
	if room.Started {
		return model.ErrGameInProgress
	}
	return nil
}

// seedIfFull creates the pre-dice game once both seats are taken.
// It returns true if a game_start was broadcast.
func (c *Controller) seedIfFull(h *Handle) bool {
	room := h.room
	if !room.Full() || room.Game != nil {
		return false
	}
	room.Game = c.engine.NewState()
	room.Dice = make(map[model.Color]int, model.MaxPlayers)
	c.notifier.Broadcast(room.Code, c.event(model.EventGameStart, room.Code, model.GameStartPayload{
		GameState:   room.Game.Clone(),
		WaitForDice: true,
	}))
	c.logger.Info("room full, waiting for dice", slog.String("room", string(room.Code)))
	return true
}

func (c *Controller) broadcastPlayers(h *Handle) {
	code := h.room.Code
	c.notifier.Broadcast(code, c.event(model.EventPlayerJoined, code, model.PlayersPayload{
		Players: h.room.PlayerNames(),
	}))
}

// Interface for dependency injection
type ControllerInterface interface {
	Connect(ctx context.Context, conn model.ConnID)
	Disconnect(ctx context.Context, conn model.ConnID)
	CreateRoom(ctx context.Context, conn model.ConnID, displayName, roomName, password string) (model.RoomCode, error)
	JoinRoom(ctx context.Context, conn model.ConnID, displayName string, code model.RoomCode, password string) error
	RejoinRoom(ctx context.Context, conn model.ConnID, displayName string, code model.RoomCode, password string) error
	Leave(ctx context.Context, conn model.ConnID, code model.RoomCode) error
	Delete(ctx context.Context, conn model.ConnID, code model.RoomCode, displayName string) error
	StartGame(ctx context.Context, conn model.ConnID) error
	RollDice(ctx context.Context, conn model.ConnID, roll int) error
	RequestRoll(ctx context.Context, conn model.ConnID, code model.RoomCode) error
	MakeMove(ctx context.Context, conn model.ConnID, stoneID string, to model.NodeID) error
	GetLobbyList(ctx context.Context, conn model.ConnID) error
}

var _ ControllerInterface = (*Controller)(nil)

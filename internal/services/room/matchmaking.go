package room

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/threestones/internal/model"
)

// CreateRoom opens a new room with the caller seated as orange
func (c *Controller) CreateRoom(ctx context.Context, conn model.ConnID, displayName, roomName, password string) (model.RoomCode, error) {
	name := strings.TrimSpace(roomName)
	if name == "" {
		return "", model.ErrRoomNameRequired
	}
	displayName = cleanName(displayName)

	c.leaveCurrent(ctx, conn, "")

	var digest string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cfg.PasswordCost)
		if err != nil {
			return "", err
		}
		digest = string(hash)
	}
	userID := c.lookupUser(ctx, displayName)

	room := model.NewRoom("", name, c.clock.Now())
	room.PasswordDigest = digest
	room.CreatorConn = conn
	room.CreatorUserID = userID
	room.CreatorName = displayName

	h, err := c.registry.Create(ctx, room)
	if err != nil {
		return "", err
	}
	code := room.Code

	// Create hands back the handle already locked
	func() {
		defer h.mu.Unlock()
		c.seat(h, model.ColorOrange, model.Slot{Conn: conn, UserID: userID, DisplayName: displayName})
		c.writer.UpsertRoom(room.Record())

		c.notifier.Send(conn, c.event(model.EventRoomCreated, code, model.RoomCreatedPayload{
			RoomCode:    code,
			RoomName:    name,
			PlayerID:    conn,
			PlayerColor: model.ColorOrange,
		}))
		c.broadcastPlayers(h)
	}()

	c.logger.Info("room created",
		slog.String("room", string(code)),
		slog.String("creator", displayName),
		slog.Bool("password", digest != ""))
	c.lobby.Schedule()
	return code, nil
}

// JoinRoom takes the free seat in an existing room
func (c *Controller) JoinRoom(ctx context.Context, conn model.ConnID, displayName string, code model.RoomCode, password string) error {
	displayName = cleanName(displayName)
	code = model.NormalizeRoomCode(string(code))
	if c.sessions.InRoom(conn, code) {
		return model.ErrAlreadyInRoom
	}

	h, err := c.registry.Get(ctx, code)
	if err != nil {
		return err
	}
	userID := c.lookupUser(ctx, displayName)

	// Capacity is checked before the password so a full room says so.
	// bcrypt runs unlocked, so everything is re-checked afterwards.
	var digest string
	if err := h.locked(func() error {
		c.prune(h)
		digest = h.room.PasswordDigest
		return joinable(h.room)
	}); err != nil {
		return err
	}

	if digest != "" {
		if err := checkPassword(digest, password); err != nil {
			return err
		}
	}

	c.leaveCurrent(ctx, conn, code)

	var color model.Color
	err = h.locked(func() error {
		c.prune(h)
		if err := joinable(h.room); err != nil {
			return err
		}
		color, _ = h.room.FreeColor()
		c.seat(h, color, model.Slot{Conn: conn, UserID: userID, DisplayName: displayName})

		c.notifier.Send(conn, c.event(model.EventRoomJoined, code, model.RoomJoinedPayload{
			RoomCode:    code,
			RoomName:    h.room.Name,
			PlayerID:    conn,
			PlayerColor: color,
		}))
		c.broadcastPlayers(h)
		c.seedIfFull(h)
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("player joined",
		slog.String("room", string(code)),
		slog.String("player", displayName),
		slog.String("color", string(color)))
	c.lobby.Schedule()
	return nil
}

// rejoinTarget finds the seat the caller owned before reconnecting
func rejoinTarget(room *model.Room, conn model.ConnID, userID model.UserID, displayName string) (model.Color, bool) {
	if color, ok := room.ColorOf(conn); ok {
		return color, true
	}
	for _, color := range model.Colors {
		slot, ok := room.Slots[color]
		if !ok {
			continue
		}
		if userID != 0 && slot.UserID == userID {
			return color, true
		}
		if userID == 0 && slot.UserID == 0 && slot.Occupied() && slot.DisplayName == displayName {
			return color, true
		}
	}
	return "", false
}

// RejoinRoom reclaims the caller's previous seat after a reconnect. With no
// seat to reclaim it behaves as a fresh join.
func (c *Controller) RejoinRoom(ctx context.Context, conn model.ConnID, displayName string, code model.RoomCode, password string) error {
	displayName = cleanName(displayName)
	code = model.NormalizeRoomCode(string(code))

	h, err := c.registry.Get(ctx, code)
	if err != nil {
		return err
	}
	userID := c.lookupUser(ctx, displayName)
	c.leaveCurrent(ctx, conn, code)

	verified := false
	for {
		var (
			color        model.Color
			owned        bool
			needPassword bool
			digest       string
		)
		err := h.locked(func() error {
			color, owned = rejoinTarget(h.room, conn, userID, displayName)
			if owned {
				holder := h.room.Slots[color].Conn
				if holder != "" && holder != conn && c.sessions.InRoom(holder, code) {
					return model.ErrRoomFull
				}
			} else {
				c.prune(h)
				if err := joinable(h.room); err != nil {
					return err
				}
				if h.room.HasPassword() && !verified {
					digest = h.room.PasswordDigest
					needPassword = true
					return nil
				}
				color, _ = h.room.FreeColor()
			}
			c.reclaim(h, color, conn, userID, displayName, owned)
			return nil
		})
		if err != nil {
			return err
		}

		// bcrypt runs unlocked; the seat is looked up again afterwards
		if needPassword {
			if err := checkPassword(digest, password); err != nil {
				return err
			}
			verified = true
			continue
		}

		c.logger.Info("player rejoined",
			slog.String("room", string(code)),
			slog.String("player", displayName),
			slog.String("color", string(color)),
			slog.Bool("reclaimed", owned))
		c.lobby.Schedule()
		return nil
	}
}

// reclaim seats conn, cancelling the grace timer of whoever held the seat.
// owned is set when the seat was matched to the caller's identity; only then
// does the caller inherit the seat's user id.
func (c *Controller) reclaim(h *Handle, color model.Color, conn model.ConnID, userID model.UserID, displayName string, owned bool) {
	room := h.room
	previous := room.Slots[color]
	if previous.Conn != "" && previous.Conn != conn {
		c.cancelGrace(h, previous.Conn)
	}
	if owned && userID == 0 {
		userID = previous.UserID
	}
	c.seat(h, color, model.Slot{Conn: conn, UserID: userID, DisplayName: displayName})

	var state *model.GameState
	if room.Started {
		state = room.Game.Clone()
	}
	c.notifier.Send(conn, c.event(model.EventRoomRejoined, room.Code, model.RoomRejoinedPayload{
		RoomCode:    room.Code,
		RoomName:    room.Name,
		PlayerID:    conn,
		PlayerColor: color,
		IsCreator:   false,
		GameState:   state,
	}))
	c.broadcastPlayers(h)

	if !c.seedIfFull(h) && room.Phase() == model.PhaseAwaitingDice {
		c.notifier.Send(conn, c.event(model.EventGameStart, room.Code, model.GameStartPayload{
			GameState:   room.Game.Clone(),
			WaitForDice: true,
		}))
	}
}

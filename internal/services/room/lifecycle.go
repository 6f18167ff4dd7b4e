package room

import (
	"context"
	"log/slog"

	"github.com/mcoot/threestones/internal/model"
)

// Connect records a new connection. Sessions are created lazily on the
// first room action.
func (c *Controller) Connect(ctx context.Context, conn model.ConnID) {
	c.logger.Debug("connection opened", slog.String("conn", string(conn)))
}

// Disconnect drops the connection's session at once but keeps its seat
// for the grace period so a reload can reclaim it
func (c *Controller) Disconnect(ctx context.Context, conn model.ConnID) {
	sess, ok := c.sessions.Remove(conn)
	if !ok || sess.RoomCode == "" {
		return
	}
	h, ok := c.registry.Lookup(sess.RoomCode)
	if !ok {
		return
	}

	held := false
	_ = h.locked(func() error {
		if _, held = h.room.ColorOf(conn); !held {
			return nil
		}
		c.cancelGrace(h, conn)
		gt := &graceTimer{}
		gt.timer = c.clock.AfterFunc(c.cfg.GracePeriod, func() {
			c.expireGrace(h, conn, gt)
		})
		h.grace[conn] = gt
		return nil
	})
	if !held {
		return
	}

	c.logger.Info("player disconnected, holding seat",
		slog.String("room", string(sess.RoomCode)),
		slog.String("conn", string(conn)),
		slog.Duration("grace", c.cfg.GracePeriod))
	c.lobby.Schedule()
}

// expireGrace vacates a seat whose owner did not come back in time. It does
// nothing if the timer was cancelled or replaced after it fired.
func (c *Controller) expireGrace(h *Handle, conn model.ConnID, gt *graceTimer) {
	vacated := false
	_ = h.locked(func() error {
		if h.grace[conn] != gt {
			return nil
		}
		delete(h.grace, conn)

		color, held := h.room.ColorOf(conn)
		if !held || c.sessions.InRoom(conn, h.room.Code) {
			return nil
		}
		c.vacate(h, color)
		vacated = true
		return nil
	})
	if vacated {
		c.lobby.Schedule()
	}
}

// Leave gives up the caller's seat immediately
func (c *Controller) Leave(ctx context.Context, conn model.ConnID, code model.RoomCode) error {
	code = model.NormalizeRoomCode(string(code))
	if !c.sessions.InRoom(conn, code) {
		return model.ErrNotInRoom
	}

	h, ok := c.registry.Lookup(code)
	if !ok {
		c.sessions.RemoveIfInRoom(conn, code)
		c.notifier.Unsubscribe(conn, code)
		return model.ErrRoomNotFound
	}

	err := h.locked(func() error {
		// The leaver is unsubscribed first so player_left goes only to the others
		c.sessions.RemoveIfInRoom(conn, code)
		c.notifier.Unsubscribe(conn, code)
		if color, held := h.room.ColorOf(conn); held {
			c.vacate(h, color)
		}
		c.notifier.Send(conn, c.event(model.EventRoomLeft, code, model.RoomCodePayload{RoomCode: code}))
		return nil
	})
	if err != nil {
		c.sessions.RemoveIfInRoom(conn, code)
		c.notifier.Unsubscribe(conn, code)
		return err
	}

	c.logger.Info("player left", slog.String("room", string(code)), slog.String("conn", string(conn)))
	c.lobby.Schedule()
	return nil
}

// Delete removes a room. Only the creator may delete: either the creating
// connection itself, or a requester whose username resolves to the stored
// creator user id.
func (c *Controller) Delete(ctx context.Context, conn model.ConnID, code model.RoomCode, displayName string) error {
	code = model.NormalizeRoomCode(string(code))
	h, err := c.registry.Get(ctx, code)
	if err != nil {
		return err
	}

	var creatorConn model.ConnID
	var creatorUserID model.UserID
	if err := h.locked(func() error {
		creatorConn = h.room.CreatorConn
		creatorUserID = h.room.CreatorUserID
		return nil
	}); err != nil {
		return err
	}

	if creatorConn != conn {
		name := displayName
		if sess, ok := c.sessions.Get(conn); ok && sess.DisplayName != "" {
			name = sess.DisplayName
		}
		if name == "" || creatorUserID == 0 || c.lookupUser(ctx, name) != creatorUserID {
			return model.ErrNotCreator
		}
	}

	occupant := false
	err = h.locked(func() error {
		room := h.room
		c.notifier.Broadcast(code, c.event(model.EventRoomDeleted, code, model.RoomCodePayload{RoomCode: code}))

		_, occupant = room.ColorOf(conn)
		for _, color := range model.Colors {
			if slot := room.Slots[color]; slot.Occupied() {
				c.sessions.RemoveIfInRoom(slot.Conn, code)
				c.notifier.Unsubscribe(slot.Conn, code)
			}
		}
		for held, gt := range h.grace {
			gt.timer.Stop()
			delete(h.grace, held)
		}
		h.removed = true
		c.registry.Remove(code)
		c.writer.DeleteRoom(code, func(err error) {
			if err == nil {
				c.registry.ClearTombstone(code)
			}
		})
		return nil
	})
	if err != nil {
		return err
	}

	if !occupant {
		c.notifier.Send(conn, c.event(model.EventRoomDeleted, code, model.RoomCodePayload{RoomCode: code}))
	}
	c.logger.Info("room deleted", slog.String("room", string(code)), slog.String("by", string(conn)))
	c.lobby.Schedule()
	return nil
}

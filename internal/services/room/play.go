package room

import (
	"context"
	"log/slog"

	"github.com/mcoot/threestones/internal/model"
)

// inSeat runs fn holding the caller's room, with the color the caller plays
func (c *Controller) inSeat(conn model.ConnID, fn func(h *Handle, color model.Color) error) error {
	h, err := c.sessionRoom(conn)
	if err != nil {
		return err
	}
	return h.locked(func() error {
		color, held := h.room.ColorOf(conn)
		if !held {
			return model.ErrNotInRoom
		}
		return fn(h, color)
	})
}

// begin places the stones and hands the first move to starter
func (c *Controller) begin(h *Handle, starter model.Color) *model.GameState {
	room := h.room
	room.Game = c.engine.Start(room.Game, starter)
	room.Started = true
	room.StartedAt = c.clock.Now()
	room.Dice = make(map[model.Color]int, model.MaxPlayers)

	c.writer.SaveGameState(room.Code, room.Game)
	c.writer.MarkStarted(room.Code, room.StartedAt)
	c.logger.Info("game started",
		slog.String("room", string(room.Code)),
		slog.String("starter", string(starter)))
	return room.Game.Clone()
}

// StartGame starts immediately with orange to move, skipping the dice.
// It also serves as a rematch once a game is over.
func (c *Controller) StartGame(ctx context.Context, conn model.ConnID) error {
	err := c.inSeat(conn, func(h *Handle, _ model.Color) error {
		room := h.room
		if !room.Full() {
			return model.ErrNotEnoughPlayers
		}
		if room.Phase() == model.PhaseInProgress {
			return model.ErrGameInProgress
		}

		room.Game = c.engine.NewState()
		state := c.begin(h, model.ColorOrange)
		c.notifier.Broadcast(room.Code, c.event(model.EventGameStart, room.Code, model.GameStartPayload{
			GameState:   state,
			WaitForDice: false,
		}))
		return nil
	})
	if err != nil {
		return err
	}

	c.lobby.Schedule()
	return nil
}

// RollDice records a client-supplied start roll. Rolls outside 1..6 are
// replaced by a server roll.
func (c *Controller) RollDice(ctx context.Context, conn model.ConnID, roll int) error {
	return c.roll(conn, c.engine.NormalizeRoll(roll))
}

// RequestRoll records a server-generated start roll for the caller
func (c *Controller) RequestRoll(ctx context.Context, conn model.ConnID, code model.RoomCode) error {
	code = model.NormalizeRoomCode(string(code))
	sess, ok := c.sessions.Get(conn)
	if !ok {
		return model.ErrNotInRoom
	}
	if sess.RoomCode != code {
		return model.ErrRoomMismatch
	}
	return c.roll(conn, c.engine.Roll())
}

func (c *Controller) roll(conn model.ConnID, value int) error {
	started := false
	err := c.inSeat(conn, func(h *Handle, color model.Color) error {
		room := h.room
		if room.Phase() != model.PhaseAwaitingDice {
			return model.ErrDiceNotExpected
		}

		room.Dice[color] = value
		c.notifier.Broadcast(room.Code, c.event(model.EventDiceRoll, room.Code, model.DiceRollPayload{
			Username: room.Slots[color].DisplayName,
			Roll:     value,
			Color:    color,
		}))

		orange, orangeRolled := room.Dice[model.ColorOrange]
		blue, blueRolled := room.Dice[model.ColorBlue]
		if !orangeRolled || !blueRolled {
			return nil
		}

		rolls := map[model.Color]int{model.ColorOrange: orange, model.ColorBlue: blue}
		starter, ok := c.engine.ResolveDice(orange, blue)
		if !ok {
			room.Dice = make(map[model.Color]int, model.MaxPlayers)
			c.notifier.Broadcast(room.Code, c.event(model.EventDiceResult, room.Code, model.DiceResultPayload{
				Rolls: rolls,
				Tie:   true,
			}))
			return nil
		}

		state := c.begin(h, starter)
		c.notifier.Broadcast(room.Code, c.event(model.EventDiceResult, room.Code, model.DiceResultPayload{
			Rolls:   rolls,
			Starter: &starter,
		}))
		c.notifier.Broadcast(room.Code, c.event(model.EventGameState, room.Code, model.GameStatePayload{
			GameState: state,
		}))
		started = true
		return nil
	})
	if err != nil {
		return err
	}

	if started {
		c.lobby.Schedule()
	}
	return nil
}

// MakeMove moves one of the caller's stones
func (c *Controller) MakeMove(ctx context.Context, conn model.ConnID, stoneID string, to model.NodeID) error {
	var (
		code  model.RoomCode
		final *model.GameState
	)
	err := c.inSeat(conn, func(h *Handle, color model.Color) error {
		room := h.room
		code = room.Code
		if room.Game == nil || !room.Started {
			return model.ErrGameNotStarted
		}

		next, err := c.engine.ApplyMove(room.Game, color, stoneID, to)
		if err != nil {
			return err
		}
		room.Game = next
		c.writer.SaveGameState(room.Code, next)

		c.notifier.Broadcast(room.Code, c.event(model.EventMoveMade, room.Code, model.GameStatePayload{
			GameState: next.Clone(),
		}))
		if !next.GameOver {
			return nil
		}

		c.notifier.Broadcast(room.Code, c.event(model.EventGameOver, room.Code, model.GameOverPayload{
			Winner:    next.Winner,
			GameState: next.Clone(),
		}))
		final = next
		return nil
	})
	if err != nil || final == nil {
		return err
	}

	c.logger.Info("game over",
		slog.String("room", string(code)),
		slog.String("winner", string(final.Winner)))
	c.lobby.Schedule()
	return nil
}

// GetLobbyList sends the current room listing to the caller only
func (c *Controller) GetLobbyList(ctx context.Context, conn model.ConnID) error {
	rooms := c.registry.ListJoinable(ctx)
	c.notifier.Send(conn, c.event(model.EventLobbyList, "", model.LobbyListPayload{Rooms: rooms}))
	return nil
}

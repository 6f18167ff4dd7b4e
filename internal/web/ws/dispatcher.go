package ws

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/mcoot/threestones/internal/api/apierr"
	"github.com/mcoot/threestones/internal/api/request"
	"github.com/mcoot/threestones/internal/dependencies/clock"
	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/services/room"
)

// Sender delivers an event to a single connection
type Sender interface {
	Send(conn model.ConnID, event model.Event)
}

// Dispatcher routes decoded inbound messages to the room controller. A
// failed action is reported only to the connection that sent it.
type Dispatcher struct {
	controller room.ControllerInterface
	sender     Sender
	clock      clock.Clock
	logger     *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(controller room.ControllerInterface, sender Sender, clock clock.Clock, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		controller: controller,
		sender:     sender,
		clock:      clock,
		logger:     logger.With(slog.String("component", "dispatch")),
	}
}

// Dispatch handles one raw frame from a connection
func (d *Dispatcher) Dispatch(ctx context.Context, conn model.ConnID, raw []byte) {
	msg, err := request.Decode(raw)
	if err != nil {
		d.logger.Debug("rejected message",
			slog.String("conn", string(conn)),
			slog.String("error", err.Error()))
		d.reply(conn, err)
		return
	}

	if err := d.handle(ctx, conn, msg); err != nil {
		d.logger.Debug("action failed",
			slog.String("conn", string(conn)),
			slog.String("type", string(msg.MessageType())),
			slog.String("error", err.Error()))
		d.reply(conn, err)
	}
}

func (d *Dispatcher) handle(ctx context.Context, conn model.ConnID, msg request.Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("panic handling message",
				slog.String("conn", string(conn)),
				slog.String("type", string(msg.MessageType())),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			err = apierr.NewInternalError()
		}
	}()

	switch m := msg.(type) {
	case *request.CreateRoomRequest:
		_, err = d.controller.CreateRoom(ctx, conn, m.DisplayName, m.RoomName, m.Password)
	case *request.JoinRoomRequest:
		err = d.controller.JoinRoom(ctx, conn, m.DisplayName, m.RoomCode, m.Password)
	case *request.RejoinRoomRequest:
		err = d.controller.RejoinRoom(ctx, conn, m.DisplayName, m.RoomCode, m.Password)
	case *request.LeaveRoomRequest:
		err = d.controller.Leave(ctx, conn, m.RoomCode)
	case *request.DeleteRoomRequest:
		err = d.controller.Delete(ctx, conn, m.RoomCode, m.DisplayName)
	case *request.GetLobbyListRequest:
		err = d.controller.GetLobbyList(ctx, conn)
	case *request.StartGameRequest:
		err = d.controller.StartGame(ctx, conn)
	case *request.MakeMoveRequest:
		err = d.controller.MakeMove(ctx, conn, m.StoneID, m.ToNodeID)
	case *request.RollDiceRequest:
		err = d.controller.RollDice(ctx, conn, m.Roll)
	case *request.RequestRollRequest:
		err = d.controller.RequestRoll(ctx, conn, m.RoomCode)
	default:
		err = fmt.Errorf("%w: unhandled type %q", model.ErrInvalidMessage, msg.MessageType())
	}
	return err
}

func (d *Dispatcher) reply(conn model.ConnID, err error) {
	apiErr := apierr.FromError(err)
	d.sender.Send(conn, model.NewEvent(model.EventError, "", d.clock.Now(), model.ErrorPayload{
		Code:    apiErr.Code,
		Message: apiErr.Message,
	}))
}

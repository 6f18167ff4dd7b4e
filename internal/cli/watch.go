package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/threestones/internal/api/request"
	"github.com/mcoot/threestones/internal/model"
)

func newWatchCmd() *cobra.Command {
	var (
		lobby    bool
		join     string
		name     string
		password string
		rejoin   bool
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream realtime events",
		Long: `Open a websocket connection and print every event the server sends.

Lobby listings are pushed to every connection. Use --join to take a seat in
a room and follow its game. Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			conn, err := client.Dial(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			if cfg.Verbose {
				out.PrintMessage("connected")
			}

			var first request.Message
			switch {
			case join != "" && rejoin:
				first = &request.RejoinRoomRequest{DisplayName: name, RoomCode: roomCode(join), Password: password}
			case join != "":
				first = &request.JoinRoomRequest{DisplayName: name, RoomCode: roomCode(join), Password: password}
			case lobby:
				first = &request.GetLobbyListRequest{}
			}
			if first != nil {
				frame, err := request.Encode(first)
				if err != nil {
					return err
				}
				if err := sendFrame(conn, frame); err != nil {
					return err
				}
			}

			_, err = streamEvents(ctx, conn, out, "")
			if cfg.Verbose {
				out.PrintMessage("disconnected")
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&lobby, "lobby", false, "Request the lobby listing on connect")
	cmd.Flags().StringVar(&join, "join", "", "Room code to join")
	cmd.Flags().StringVar(&name, "name", "", "Display name used with --join")
	cmd.Flags().StringVar(&password, "password", "", "Room password used with --join")
	cmd.Flags().BoolVar(&rejoin, "rejoin", false, "Reclaim a previous seat instead of joining")
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long (default: until interrupted)")

	return cmd
}

func newSendCmd() *cobra.Command {
	var (
		wait  time.Duration
		until string
	)

	cmd := &cobra.Command{
		Use:   "send <type> [data]",
		Short: "Send one message and print the replies",
		Long: `Send a single protocol message on a fresh connection, then print events
until --until arrives or --wait elapses. Data is the JSON object for the
message, for example:

  tsctl send create_room '{"displayName":"Ann","roomName":"Lobby"}' --until room_created`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := ""
			if len(args) == 2 {
				data = args[1]
			}
			frame, err := buildFrame(args[0], data)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			conn, err := client.Dial(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			if err := sendFrame(conn, frame); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			seen, err := streamEvents(ctx, conn, out, until)
			if err != nil {
				return err
			}
			if until != "" && !seen {
				return &waitError{eventType: until, wait: wait}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 2*time.Second, "How long to wait for replies")
	cmd.Flags().StringVar(&until, "until", "", "Stop as soon as an event of this type arrives")

	return cmd
}

type waitError struct {
	eventType string
	wait      time.Duration
}

func (e *waitError) Error() string {
	return "no " + e.eventType + " event within " + e.wait.String()
}

func roomCode(s string) model.RoomCode {
	return model.NormalizeRoomCode(s)
}

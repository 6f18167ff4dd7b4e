package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Lobby inspection commands",
	}

	cmd.AddCommand(newRoomsListCmd())
	cmd.AddCommand(newRoomsShowCmd())

	return cmd
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List joinable rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomList

			if err := client.Get(cmd.Context(), "/api/v1/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Show one room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Get(cmd.Context(), "/api/v1/rooms/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

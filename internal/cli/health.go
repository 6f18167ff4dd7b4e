package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long:  "Show the server status with its live room and connection counts. Exits non-zero unless the status is ok.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult
			if err := client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			if result.Status != "ok" {
				return fmt.Errorf("server reports status %q", result.Status)
			}
			return nil
		},
	}
}

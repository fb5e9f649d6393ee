package cmd

import (
	"fmt"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newStopCmd(app *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "stop [worker-id]",
		Short: "Terminate a remote browser, or every recorded one with --all",
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("stop takes either a worker id or --all, not both")
			}
			if !all && len(args) != 1 {
				return fmt.Errorf("stop requires a worker id or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.cfg.RequireCredentials(); err != nil {
				return err
			}

			if all {
				stopped, err := app.connector.StopAll(cmd.Context())
				if _, writeErr := fmt.Fprintf(cmd.OutOrStdout(), "stopped %d session(s)\n", stopped); writeErr != nil {
					return writeErr
				}
				return err
			}

			id := domain.WorkerID(args[0])
			elapsed, err := app.connector.StopBrowser(cmd.Context(), id)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stopped %s after %s\n", id, elapsed)
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Stop every session in the local ledger")

	return cmd
}

package cmd

import (
	"fmt"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newURLCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "url <worker-id>",
		Short: "Print the live-view URL of a remote browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.cfg.RequireCredentials(); err != nil {
				return err
			}

			sessionURL, err := app.connector.GetSessionURL(cmd.Context(), domain.WorkerID(args[0]))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), sessionURL)
			return err
		},
	}
}

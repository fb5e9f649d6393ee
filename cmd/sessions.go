package cmd

import (
	"strings"
	"time"

	sessionsrender "github.com/bnema/browserfarm-cli/internal/adapters/render/sessions"
	"github.com/spf13/cobra"
)

func newSessionsCmd(app *app) *cobra.Command {
	var (
		output     string
		staleAfter time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions started from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			records, err := app.connector.Sessions(cmd.Context())
			if err != nil {
				return err
			}

			return writeOutput(cmd, strings.ToLower(output), toSessionViews(records), func() (string, error) {
				return app.sessionRenderer(records, sessionsrender.RenderOptions{
					Now:        app.now(),
					StaleAfter: staleAfter,
				})
			})
		},
	}

	addOutputFlag(cmd, &output)
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "Flag sessions older than this (e.g. 30m); the farm ends idle sessions after session.working_timeout")

	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	sessionsrender "github.com/bnema/browserfarm-cli/internal/adapters/render/sessions"
	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newCapacityCmd(app *app) *cobra.Command {
	var (
		wait        int
		interval    time.Duration
		maxAttempts int
		output      string
	)

	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Show free machines, optionally waiting until enough are free",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			output = strings.ToLower(output)
			if err := app.cfg.RequireCredentials(); err != nil {
				return err
			}

			if interval <= 0 {
				interval = app.cfg.Admission.Interval
			}
			if maxAttempts <= 0 {
				maxAttempts = app.cfg.Admission.MaxAttempts
			}

			var capacity domain.PoolCapacity
			readCapacity := func(ctx context.Context) (string, error) {
				if err := app.connector.WaitForFreeMachines(ctx, wait, interval, maxAttempts); err != nil {
					return "", err
				}

				var err error
				capacity, err = app.connector.Capacity(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d of %d machine(s) free", max(capacity.Free(), 0), capacity.MaxAllowed), nil
			}

			if wait > 0 {
				label := fmt.Sprintf("Waiting for %d free machine(s)...", wait)
				if err := runWithProgress(cmd.Context(), cmd.ErrOrStderr(), output, label, readCapacity); err != nil {
					return err
				}
			} else if _, err := readCapacity(cmd.Context()); err != nil {
				return err
			}

			return writeOutput(cmd, output, toCapacityView(capacity), func() (string, error) {
				return sessionsrender.RenderCapacity(capacity)
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&wait, "wait", 0, "Block until this many machines are free")
	flags.DurationVar(&interval, "interval", 0, "Delay between checks while waiting (default admission.interval)")
	flags.IntVar(&maxAttempts, "max-attempts", 0, "Checks before giving up (default admission.max_attempts)")
	addOutputFlag(cmd, &output)

	return cmd
}

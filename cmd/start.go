package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sessionsrender "github.com/bnema/browserfarm-cli/internal/adapters/render/sessions"
	"github.com/bnema/browserfarm-cli/internal/application"
	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/spf13/cobra"
)

const startLong = `Start a remote browser on url and wait until it has loaded the page.

With tunnel.enabled the tunnel and hub stay up after the session is confirmed,
so the worker keeps reaching local servers. Interrupt the command to close them.`

func newStartCmd(app *app) *cobra.Command {
	var (
		settings       domain.BrowserSettings
		job            domain.JobMeta
		maxAttempts    int
		openingTimeout time.Duration
		waitFree       int
		output         string
	)

	cmd := &cobra.Command{
		Use:   "start <url>",
		Short: "Start a remote browser on url and wait until it has loaded the page",
		Long:  startLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			output = strings.ToLower(output)
			if err := app.cfg.RequireCredentials(); err != nil {
				return err
			}

			req := application.StartRequest{
				Settings: settings,
				URL:      args[0],
				Job:      job,
				Options:  app.startOptions(),
			}
			if maxAttempts > 0 {
				req.Options.MaxAttempts = maxAttempts
			}
			if openingTimeout > 0 {
				req.Options.OpeningTimeout = openingTimeout
			}
			if err := req.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := app.connector.Connect(ctx); err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			var worker domain.Worker
			label := fmt.Sprintf("Starting %s...", settings.Label())
			runErr := runWithProgress(ctx, cmd.ErrOrStderr(), output, label, func(ctx context.Context) (string, error) {
				if waitFree > 0 {
					if err := app.connector.WaitForFreeMachines(ctx, waitFree, app.cfg.Admission.Interval, app.cfg.Admission.MaxAttempts); err != nil {
						return "", err
					}
				}

				var err error
				worker, err = app.connector.StartBrowser(ctx, req)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("worker %s opened %s", worker.ID, req.URL), nil
			})
			if runErr != nil {
				disconnect(app)
				return runErr
			}

			record := domain.SessionRecord{
				WorkerID:   worker.ID,
				Browser:    settings.Label(),
				URL:        req.URL,
				SessionURL: worker.SessionURL,
				Job:        job,
			}
			if err := writeOutput(cmd, output, toSessionView(record), func() (string, error) {
				return sessionsrender.RenderStarted(record)
			}); err != nil {
				disconnect(app)
				return err
			}

			// Without a tunnel the hub is only needed until the open is confirmed.
			// With one, the worker keeps routing through it until the user lets go.
			if app.cfg.Tunnel.Enabled {
				holdTunnel(ctx, cmd, worker.ID)
			}
			disconnect(app)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&settings.Browser, "browser", "", "Browser name (chrome, firefox, safari, edge)")
	flags.StringVar(&settings.BrowserVersion, "browser-version", "", "Browser version")
	flags.StringVar(&settings.OS, "os", "", "Operating system")
	flags.StringVar(&settings.OSVersion, "os-version", "", "Operating system version")
	flags.StringVar(&settings.Device, "device", "", "Mobile device name")
	flags.BoolVar(&settings.RealMobile, "real-mobile", false, "Use a real mobile device")
	flags.StringVar(&settings.Resolution, "resolution", "", "Screen resolution, e.g. 1920x1080")
	flags.StringVar(&job.Name, "name", "", "Session name")
	flags.StringVar(&job.Build, "build", "", "Build name")
	flags.StringVar(&job.Project, "project", "", "Project name")
	flags.IntVar(&maxAttempts, "max-attempts", 0, "Start attempts before giving up (default session.max_attempts)")
	flags.DurationVar(&openingTimeout, "opening-timeout", 0, "Per-attempt budget to load the page (default session.opening_timeout)")
	flags.IntVar(&waitFree, "wait-free", 0, "Wait until this many machines are free before starting")
	addOutputFlag(cmd, &output)

	return cmd
}

// holdTunnel blocks until ctx ends or the process is interrupted.
func holdTunnel(ctx context.Context, cmd *cobra.Command, id domain.WorkerID) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "tunnel open for worker %s; press Ctrl+C to close it\n", id)
	<-ctx.Done()
}

func disconnect(app *app) {
	if err := app.connector.Disconnect(context.Background()); err != nil {
		app.logger.Warn("disconnect", "error", err)
	}
}

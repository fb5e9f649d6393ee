package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const metricsShutdownTimeout = 5 * time.Second

func newHubCmd(app *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "hub",
		Short: "Run the correlation hub (and tunnel, when enabled) in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.connector.Connect(ctx); err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			var metricsServer *http.Server
			if metricsAddr != "" {
				listener, err := net.Listen("tcp", metricsAddr)
				if err != nil {
					return errors.Join(fmt.Errorf("listen metrics: %w", err), app.connector.Disconnect(context.WithoutCancel(ctx)))
				}

				mux := http.NewServeMux()
				mux.Handle("/metrics", app.metrics.Handler())
				metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
						app.logger.Error("metrics server stopped", "error", err)
					}
				}()
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "metrics on http://%s/metrics\n", listener.Addr()); err != nil {
					return err
				}
			}

			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "hub listening on port %d\n", app.hub.Port()); err != nil {
				return err
			}

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
			defer cancel()

			var errs []error
			if metricsServer != nil {
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					errs = append(errs, fmt.Errorf("shutdown metrics: %w", err))
				}
			}
			if err := app.connector.Disconnect(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address, e.g. 127.0.0.1:9464")

	return cmd
}

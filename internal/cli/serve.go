package cli

import (
	"context"
	"os/signal"
	"syscall"

	"go-portal-sync/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/fx"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API and the sync scheduler",
		Long: `Run the admin HTTP API and schedule the tasks listed in SYNC_SCHEDULES
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rootOpts)
		},
	}
}

func serve(ctx context.Context, opts *RootOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	options := append([]fx.Option{app.Core, app.Server, app.WithLogger(true)}, opts.options...)
	fxApp := fx.New(options...)
	if err := fxApp.Err(); err != nil {
		return dig.RootCause(err)
	}
	if err := fxApp.Start(ctx); err != nil {
		return err
	}

	var exitCode int
	select {
	case <-ctx.Done():
	case sig := <-fxApp.Wait():
		exitCode = sig.ExitCode
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		return err
	}
	if exitCode != 0 {
		return NewExitError(exitCode, "server stopped")
	}
	return nil
}

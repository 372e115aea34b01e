package cli

import (
	"context"
	"fmt"

	"go-portal-sync/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/fx"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// options are appended to every fx graph the commands build.
	options []fx.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the portal-sync CLI.
func NewRootCommand(options ...fx.Option) *cobra.Command {
	opts := &RootOptions{options: options}

	cmd := &cobra.Command{
		Use:   "portal-sync",
		Short: "Incremental Source to Destination portal synchronization",
		Long: `portal-sync mirrors records from the source record system into the
destination portal one entity type at a time, keeping a checkpoint per
entity and an outcome ledger row per pushed record.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTasksCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewSyncRecordsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withApp builds the core graph, fills targets, runs fn between start and stop.
func withApp(ctx context.Context, opts *RootOptions, fn func(ctx context.Context) error, targets ...any) error {
	options := append([]fx.Option{
		app.Core,
		app.WithLogger(opts.Verbose),
		fx.Populate(targets...),
	}, opts.options...)

	fxApp := fx.New(options...)
	if err := fxApp.Err(); err != nil {
		// surface the constructor error so the exit code follows its kind
		return dig.RootCause(err)
	}
	if err := fxApp.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

package cli

import (
	"context"
	"fmt"
	"io"

	sync_feature "go-portal-sync/internal/features/sync"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <task>",
		Short: "Run one sync task",
		Long: `Run one registered sync task: read its checkpoint, fetch records changed
since the last successful sync, transform and push them, then record the outcome.

Example:
  portal-sync run members`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd.Context(), rootOpts, args[0], cmd.OutOrStdout())
		},
	}
}

func runTask(ctx context.Context, opts *RootOptions, task string, w io.Writer) error {
	out := &OutputFormatter{Format: opts.Format, Writer: w}

	var service sync_feature.SyncService
	var report *sync_feature.RunReport
	err := withApp(ctx, opts, func(ctx context.Context) error {
		var err error
		report, err = service.RunTask(ctx, task)
		return err
	}, &service)
	if err != nil {
		return out.Failure(err, report)
	}

	return out.Success(report, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %s\n", report.Task, report.Stage)
		fmt.Fprintf(w, "  fetched:   %d (%d pages)\n", report.Fetched, report.Pages)
		fmt.Fprintf(w, "  pushed:    %d (%d succeeded, %d failed)\n", report.Pushed, report.Succeeded, report.Failed)
		fmt.Fprintf(w, "  invalid:   %d\n", report.ValidationFailures)
		if report.Dropped > 0 {
			fmt.Fprintf(w, "  dropped:   %d\n", report.Dropped)
		}
		if report.Truncated {
			fmt.Fprintln(w, "  truncated: record limit reached")
		}
		fmt.Fprintf(w, "  duration:  %s\n", report.Duration)
	})
}

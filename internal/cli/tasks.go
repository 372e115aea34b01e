package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	sync_feature "go-portal-sync/internal/features/sync"

	"github.com/spf13/cobra"
)

// NewTasksCommand creates the tasks command.
func NewTasksCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List registered sync tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTasks(cmd.Context(), rootOpts, cmd.OutOrStdout())
		},
	}
}

func listTasks(ctx context.Context, opts *RootOptions, w io.Writer) error {
	out := &OutputFormatter{Format: opts.Format, Writer: w}

	var registry *sync_feature.Registry
	if err := withApp(ctx, opts, func(context.Context) error { return nil }, &registry); err != nil {
		return out.Failure(err, nil)
	}

	pipelines := registry.Pipelines()
	return out.Success(pipelines, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TASK\tMODULE\tDESTINATION\tMAPPING")
		for _, p := range pipelines {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Module, p.DestinationModule, p.MappingType)
		}
		tw.Flush()
	})
}

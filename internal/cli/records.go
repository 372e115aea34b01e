package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/features/checkpoint"

	"github.com/spf13/cobra"
)

// RecordsOptions holds flags shared by the sync-records subcommands.
type RecordsOptions struct {
	*RootOptions

	Status          string
	Direction       string
	ModuleName      string
	IntegrationName string
	Endpoint        string
	LastSyncAt      string
	ClearLastSyncAt bool
	Out             string
}

// NewSyncRecordsCommand creates the sync-records command group.
func NewSyncRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync-records",
		Short: "Inspect and manage sync checkpoints",
	}

	cmd.AddCommand(newRecordsListCommand(&RecordsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newRecordsStatsCommand(&RecordsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newRecordsShowCommand(&RecordsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newRecordsCreateCommand(&RecordsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newRecordsUpdateCommand(&RecordsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newRecordsDeleteCommand(&RecordsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newRecordsResetCommand(&RecordsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newRecordsExportCommand(&RecordsOptions{RootOptions: rootOpts}))

	return cmd
}

func newRecordsListCommand(opts *RecordsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sync records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *checkpoint.Store, out *OutputFormatter) error {
				records, err := store.List(ctx, checkpoint.ListFilter{
					Status:    checkpoint.Status(opts.Status),
					Direction: checkpoint.Direction(opts.Direction),
				})
				if err != nil {
					return out.Failure(err, nil)
				}
				return out.Success(records, func(w io.Writer) { writeRecordTable(w, records) })
			})
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (pending|success|failed)")
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "filter by direction (inbound|outbound)")
	return cmd
}

func newRecordsStatsCommand(opts *RecordsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize sync records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *checkpoint.Store, out *OutputFormatter) error {
				stats, err := store.Stats(ctx)
				if err != nil {
					return out.Failure(err, nil)
				}
				return out.Success(stats, func(w io.Writer) {
					fmt.Fprintf(w, "total:        %d\n", stats.Total)
					fmt.Fprintf(w, "never synced: %d\n", stats.NeverSynced)
					for _, status := range []checkpoint.Status{checkpoint.StatusPending, checkpoint.StatusSuccess, checkpoint.StatusFailed} {
						fmt.Fprintf(w, "%-13s %d\n", string(status)+":", stats.ByStatus[status])
					}
					if stats.OldestSyncAt != nil {
						fmt.Fprintf(w, "oldest sync:  %s\n", stats.OldestSyncAt.Format(time.RFC3339))
						fmt.Fprintf(w, "newest sync:  %s\n", stats.NewestSyncAt.Format(time.RFC3339))
					}
				})
			})
		},
	}
}

func newRecordsShowCommand(opts *RecordsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <module-or-integration>",
		Short: "Show one sync record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *checkpoint.Store, out *OutputFormatter) error {
				rec, err := store.Get(ctx, args[0])
				if err != nil {
					return out.Failure(err, nil)
				}
				return out.Success(rec, func(w io.Writer) { writeRecordDetail(w, rec) })
			})
		},
	}
}

func newRecordsCreateCommand(opts *RecordsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a sync record",
		Long: `Create a sync record. At least one of --module and --integration is required;
when both are given they name the same record.

Example:
  portal-sync sync-records create --module Contacts --integration members`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *checkpoint.Store, out *OutputFormatter) error {
				rec, err := store.Create(ctx, checkpoint.SyncCheckpoint{
					ModuleName:      opts.ModuleName,
					IntegrationName: opts.IntegrationName,
					Direction:       checkpoint.Direction(opts.Direction),
					Endpoint:        opts.Endpoint,
				})
				if err != nil {
					return out.Failure(err, nil)
				}
				return out.Success(rec, func(w io.Writer) {
					fmt.Fprintf(w, "created %s\n", rec.Key())
				})
			})
		},
	}
	cmd.Flags().StringVar(&opts.ModuleName, "module", "", "source module name")
	cmd.Flags().StringVar(&opts.IntegrationName, "integration", "", "integration name")
	cmd.Flags().StringVar(&opts.Direction, "direction", string(checkpoint.DirectionInbound), "inbound|outbound")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "destination endpoint")
	return cmd
}

func newRecordsUpdateCommand(opts *RecordsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <module-or-integration>",
		Short: "Update a sync record",
		Long: `Update fields of a sync record. Only the flags given are changed.

Example:
  portal-sync sync-records update members --last-sync-at 2024-01-01T00:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := opts.patch(cmd)
			if err != nil {
				return err
			}
			return withStore(cmd, opts, func(ctx context.Context, store *checkpoint.Store, out *OutputFormatter) error {
				rec, err := store.Update(ctx, args[0], patch)
				if err != nil {
					return out.Failure(err, nil)
				}
				return out.Success(rec, func(w io.Writer) { writeRecordDetail(w, rec) })
			})
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "pending|success|failed")
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "inbound|outbound")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "destination endpoint")
	cmd.Flags().StringVar(&opts.LastSyncAt, "last-sync-at", "", "high-water mark (RFC3339)")
	cmd.Flags().BoolVar(&opts.ClearLastSyncAt, "clear-last-sync-at", false, "forget the high-water mark so the next run is a full sync")
	return cmd
}

func (o *RecordsOptions) patch(cmd *cobra.Command) (checkpoint.Patch, error) {
	var patch checkpoint.Patch
	if cmd.Flags().Changed("status") {
		status := checkpoint.Status(o.Status)
		patch.Status = &status
	}
	if cmd.Flags().Changed("direction") {
		direction := checkpoint.Direction(o.Direction)
		patch.Direction = &direction
	}
	if cmd.Flags().Changed("endpoint") {
		patch.Endpoint = &o.Endpoint
	}
	if o.LastSyncAt != "" {
		t, err := time.Parse(time.RFC3339, o.LastSyncAt)
		if err != nil {
			return patch, NewExitError(ExitCommandError, fmt.Sprintf("invalid --last-sync-at %q", o.LastSyncAt))
		}
		patch.LastSyncAt = &t
	}
	patch.ClearLastSyncAt = o.ClearLastSyncAt
	return patch, nil
}

func newRecordsDeleteCommand(opts *RecordsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <module-or-integration>",
		Short: "Delete a sync record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *checkpoint.Store, out *OutputFormatter) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return out.Failure(err, nil)
				}
				return out.Success(map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted %s\n", args[0])
				})
			})
		},
	}
}

func newRecordsResetCommand(opts *RecordsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear every high-water mark so the next runs are full syncs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *checkpoint.Store, out *OutputFormatter) error {
				n, err := store.ResetAll(ctx)
				if err != nil {
					return out.Failure(err, nil)
				}
				return out.Success(map[string]int{"reset": n}, func(w io.Writer) {
					fmt.Fprintf(w, "reset %d sync records\n", n)
				})
			})
		},
	}
}

func newRecordsExportCommand(opts *RecordsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sync records to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *checkpoint.Store, out *OutputFormatter) error {
				records, err := store.List(ctx, checkpoint.ListFilter{})
				if err != nil {
					return out.Failure(err, nil)
				}
				if err := exportRecords(opts.Out, records); err != nil {
					return out.Failure(err, nil)
				}
				return out.Success(map[string]any{"path": opts.Out, "records": len(records)}, func(w io.Writer) {
					fmt.Fprintf(w, "exported %d sync records to %s\n", len(records), opts.Out)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "sync_records.xlsx", "output file")
	return cmd
}

func exportRecords(path string, records []checkpoint.SyncCheckpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.E(errs.KindPersistence, "cli.export", err)
	}
	if err := checkpoint.ExportXLSX(f, records); err != nil {
		f.Close()
		return err
	}
	return errs.E(errs.KindPersistence, "cli.export", f.Close())
}

func withStore(cmd *cobra.Command, opts *RecordsOptions, fn func(ctx context.Context, store *checkpoint.Store, out *OutputFormatter) error) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	var store *checkpoint.Store
	return withApp(cmd.Context(), opts.RootOptions, func(ctx context.Context) error {
		return fn(ctx, store, out)
	}, &store)
}

func writeRecordTable(w io.Writer, records []checkpoint.SyncCheckpoint) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tINTEGRATION\tDIRECTION\tSTATUS\tLAST SYNC")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", dash(rec.ModuleName), dash(rec.IntegrationName), rec.Direction, rec.Status, formatSyncAt(rec.LastSyncAt))
	}
	tw.Flush()
}

func writeRecordDetail(w io.Writer, rec *checkpoint.SyncCheckpoint) {
	fmt.Fprintf(w, "module:       %s\n", dash(rec.ModuleName))
	fmt.Fprintf(w, "integration:  %s\n", dash(rec.IntegrationName))
	fmt.Fprintf(w, "direction:    %s\n", rec.Direction)
	fmt.Fprintf(w, "endpoint:     %s\n", dash(rec.Endpoint))
	fmt.Fprintf(w, "status:       %s\n", rec.Status)
	fmt.Fprintf(w, "last sync at: %s\n", formatSyncAt(rec.LastSyncAt))
	fmt.Fprintf(w, "updated at:   %s\n", rec.UpdatedAt.Format(time.RFC3339))
	keys := make([]string, 0, len(rec.Metadata))
	for key := range rec.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "  %s: %v\n", key, rec.Metadata[key])
	}
}

func formatSyncAt(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

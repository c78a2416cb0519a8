package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/svgmotion/internal/history"
)

// DefaultHistoryPath is the database read by the history command.
const DefaultHistoryPath = "svgmotion.db"

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(opts.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), opts.Limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tSCENE\tMODE\tFRAMES\tBYTES\tTIME\tSTATUS")
			for _, e := range entries {
				status := e.Status
				if e.Error != "" {
					status += ": " + e.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Scene, e.Mode,
					e.Frames, e.Bytes, e.Duration.Round(time.Millisecond), status)
			}
			if opts.Verbose {
				fmt.Fprintf(w, "\n%d render(s) in %s\n", len(entries), opts.Database)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", DefaultHistoryPath, "path to SQLite history database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum entries to show (0 for all)")

	return cmd
}

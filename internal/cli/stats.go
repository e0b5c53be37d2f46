package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals and breakdowns for the trace database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.Stats(cmd.Context())
			if err != nil {
				return queryError("failed to compute stats", err)
			}
			return opts.formatter(cmd).Render(stats, func(w io.Writer) error {
				return writeStats(w, stats)
			})
		},
	}
}

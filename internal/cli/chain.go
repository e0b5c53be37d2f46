package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewChainCommand creates the chain command.
func NewChainCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chain <event-id>",
		Short: "Show the causal chain an event belongs to",
		Long: `Walk up parent links from the event to its root, then list the root
and every descendant, oldest first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			events, err := st.EventChain(cmd.Context(), args[0])
			if err != nil {
				return queryError("failed to load event chain", err)
			}
			return opts.formatter(cmd).Render(events, func(w io.Writer) error {
				return writeChain(w, events)
			})
		},
	}
}

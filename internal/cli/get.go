package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <event-id>",
		Short: "Show one event with its actor, decision and objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			e, err := st.GetEvent(cmd.Context(), args[0])
			if err != nil {
				return queryError("failed to get event", err)
			}
			return opts.formatter(cmd).Render(e, func(w io.Writer) error {
				return writeEvent(w, e)
			})
		},
	}
}

package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/dtrace/internal/eventquery"
	"github.com/roach88/dtrace/internal/trace"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	ObjectID   string
	ExternalID string
	ObjectType string
	Limit      int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List events that touched an object, newest first",
		Long: `List events that touched an object, newest first.

Select the object either by --object or by --external with --object-type.`,
		Example: `  dtrace history --object inventory-SKU-1
  dtrace history --external SKU-1 --object-type inventory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ref := eventquery.ObjectRef{
				ObjectID:   opts.ObjectID,
				ExternalID: opts.ExternalID,
				Type:       trace.ObjectType(opts.ObjectType),
			}
			events, err := st.ObjectHistory(cmd.Context(), ref, opts.Limit)
			if err != nil {
				return queryError("failed to load object history", err)
			}
			return opts.formatter(cmd).Render(events, func(w io.Writer) error {
				return writeEventList(w, events)
			})
		},
	}

	cmd.Flags().StringVar(&opts.ObjectID, "object", "", "object id")
	cmd.Flags().StringVar(&opts.ExternalID, "external", "", "external object id (requires --object-type)")
	cmd.Flags().StringVar(&opts.ObjectType, "object-type", "", "object type for --external")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", eventquery.DefaultLimit, "maximum number of events")
	cmd.MarkFlagsMutuallyExclusive("object", "external")

	return cmd
}

// ActivityOptions holds flags for the activity command.
type ActivityOptions struct {
	*RootOptions
	Since string
	Until string
	Limit int
}

// NewActivityCommand creates the activity command.
func NewActivityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActivityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "activity <actor-id>",
		Short: "List events performed by an actor, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := eventquery.Activity{ActorID: args[0], Limit: opts.Limit}

			var err error
			if a.Start, err = parseTimeFlag("since", opts.Since); err != nil {
				return err
			}
			if a.End, err = parseTimeFlag("until", opts.Until); err != nil {
				return err
			}

			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			events, err := st.ActorActivity(cmd.Context(), a)
			if err != nil {
				return queryError("failed to load actor activity", err)
			}
			return opts.formatter(cmd).Render(events, func(w io.Writer) error {
				return writeEventList(w, events)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Since, "since", "", "only events at or after this time (RFC 3339)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "only events at or before this time (RFC 3339)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", eventquery.DefaultLimit, "maximum number of events")

	return cmd
}

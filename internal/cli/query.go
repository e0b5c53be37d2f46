package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/dtrace/internal/eventquery"
	"github.com/roach88/dtrace/internal/trace"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Since       string
	Until       string
	EventTypes  []string
	ActorIDs    []string
	ActorTypes  []string
	ObjectIDs   []string
	ObjectTypes []string
	Correlation string
	Tags        []string
	Source      string
	Limit       int
	Offset      int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List events matching a filter, newest first",
		Long: `List events matching every given filter, newest first.

Repeated --type, --actor, --actor-type, --object and --object-type values
match any of the values. Repeated --tag values must all be present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Since, "since", "", "only events at or after this time (RFC 3339)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "only events at or before this time (RFC 3339)")
	cmd.Flags().StringSliceVarP(&opts.EventTypes, "type", "t", nil, "event type")
	cmd.Flags().StringSliceVar(&opts.ActorIDs, "actor", nil, "actor id")
	cmd.Flags().StringSliceVar(&opts.ActorTypes, "actor-type", nil, "actor type (user|ai_agent|system|compute|external)")
	cmd.Flags().StringSliceVar(&opts.ObjectIDs, "object", nil, "object id")
	cmd.Flags().StringSliceVar(&opts.ObjectTypes, "object-type", nil, "object type")
	cmd.Flags().StringVar(&opts.Correlation, "correlation", "", "correlation id")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "required tag")
	cmd.Flags().StringVar(&opts.Source, "source", "", "source system")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", eventquery.DefaultLimit, "maximum number of events")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of events to skip")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions) error {
	f := eventquery.Filter{
		EventTypes:    opts.EventTypes,
		ActorIDs:      opts.ActorIDs,
		ObjectIDs:     opts.ObjectIDs,
		CorrelationID: opts.Correlation,
		Tags:          opts.Tags,
		SourceSystem:  opts.Source,
		Limit:         opts.Limit,
		Offset:        opts.Offset,
	}
	for _, t := range opts.ActorTypes {
		f.ActorTypes = append(f.ActorTypes, trace.ActorType(t))
	}
	for _, t := range opts.ObjectTypes {
		f.ObjectTypes = append(f.ObjectTypes, trace.ObjectType(t))
	}

	var err error
	if f.Start, err = parseTimeFlag("since", opts.Since); err != nil {
		return err
	}
	if f.End, err = parseTimeFlag("until", opts.Until); err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := st.QueryEvents(cmd.Context(), f)
	if err != nil {
		return queryError("query failed", err)
	}
	return opts.formatter(cmd).Render(events, func(w io.Writer) error {
		return writeEventList(w, events)
	})
}

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Limit int
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Full-text search over decision reasoning and action",
		Long: `Search decision reasoning and action. Every word must match;
results are ordered by relevance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			events, err := st.SearchDecisions(cmd.Context(), args[0], opts.Limit)
			if err != nil {
				return queryError("search failed", err)
			}
			return opts.formatter(cmd).Render(events, func(w io.Writer) error {
				return writeEventList(w, events)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", eventquery.DefaultLimit, "maximum number of events")

	return cmd
}

// parseTimeFlag parses an optional RFC 3339 flag value.
func parseTimeFlag(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --%s", name), err)
	}
	t = t.UTC()
	return &t, nil
}

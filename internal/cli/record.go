package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/dtrace/internal/ingest"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <file>",
		Short: "Record trace events from a YAML or JSON document",
		Long: `Validate a document of the form "events: [...]" against the event
schema and save each event in order.

Events without an id or timestamp get a generated id and the current time.
Recording stops at the first event that fails to save.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), cmd, opts, args[0])
		},
	}

	return cmd
}

type recordResult struct {
	IDs []string `json:"ids"`
}

func runRecord(ctx context.Context, cmd *cobra.Command, opts *RecordOptions, path string) error {
	formatter := opts.formatter(cmd)

	formatter.VerboseLog("Reading %s", path)
	events, err := ingest.ReadFile(path)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			return WrapExitError(ExitFailure, "invalid trace document", err)
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ids, err := ingest.Record(ctx, st, events)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("recorded %d of %d events", len(ids), len(events)), err)
	}

	return formatter.Render(recordResult{IDs: ids}, func(w io.Writer) error {
		fmt.Fprintf(w, "Recorded %d %s\n", len(ids), plural(len(ids), "event", "events"))
		for _, id := range ids {
			fmt.Fprintf(w, "  %s\n", id)
		}
		return nil
	})
}

package ingest

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/dtrace/internal/trace"
	"github.com/roach88/dtrace/internal/tracer"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError reports a document that does not match the event schema.
// Problems holds one CUE error message per violation, each prefixed with the
// path of the offending field.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid trace document: " + strings.Join(e.Problems, "; ")
}

// ReadFile parses the trace document at path.
func ReadFile(path string) ([]*trace.TraceEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace document: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON document of the form `events: [...]`,
// validates it against the event schema, and converts each entry.
//
// Events without a timestamp are stamped with the current time. Events and
// decisions without an id get a fresh one.
func Parse(data []byte) ([]*trace.TraceEvent, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse trace document: %w", err)
	}
	if err := validate(tree); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode trace document: %w", err)
	}

	now := time.Now().UTC()
	events := make([]*trace.TraceEvent, 0, len(doc.Events))
	for i, ed := range doc.Events {
		e, err := ed.toEvent(now)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// Record saves events in order and returns their IDs. It stops at the first
// failure; events before it stay saved.
func Record(ctx context.Context, saver tracer.Saver, events []*trace.TraceEvent) ([]string, error) {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		id, err := saver.SaveEvent(ctx, e)
		if err != nil {
			return ids, fmt.Errorf("record %s: %w", e.ID, err)
		}
		ids = append(ids, id)
	}
	slog.Debug("ingested events", "count", len(ids))
	return ids, nil
}

// validate checks tree against #Document.
func validate(tree any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile event schema: %w", err)
	}

	doc := ctx.Encode(tree)
	unified := schema.LookupPath(cue.ParsePath("#Document")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return newValidationError(err)
	}
	return nil
}

func newValidationError(err error) *ValidationError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(errs))
	seen := make(map[string]bool, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := strings.Join(e.Path(), "."); path != "" {
			msg = path + ": " + msg
		}
		if !seen[msg] {
			seen[msg] = true
			problems = append(problems, msg)
		}
	}
	return &ValidationError{Problems: problems}
}

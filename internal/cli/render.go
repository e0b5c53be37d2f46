package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/roach88/dtrace/internal/store"
	"github.com/roach88/dtrace/internal/trace"
	"github.com/roach88/dtrace/internal/value"
)

// displayTime formats timestamps for text output.
func displayTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// writeEventList writes one line per event followed by a count.
func writeEventList(w io.Writer, events []*trace.TraceEvent) error {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found")
		return nil
	}
	for _, e := range events {
		fmt.Fprintf(w, "%s  %s  %s  [%s]  %s\n",
			displayTime(e.Timestamp), e.ID, e.EventType, e.Outcome, e.Description)
	}
	fmt.Fprintf(w, "(%d %s)\n", len(events), plural(len(events), "event", "events"))
	return nil
}

// writeChain writes events oldest first, indenting children under their
// parents.
func writeChain(w io.Writer, events []*trace.TraceEvent) error {
	depth := make(map[string]int, len(events))
	for _, e := range events {
		d := 0
		if e.ParentEventID != nil {
			if pd, ok := depth[*e.ParentEventID]; ok {
				d = pd + 1
			}
		}
		depth[e.ID] = d
		fmt.Fprintf(w, "%s%s  %s  %s  [%s]  %s\n",
			strings.Repeat("  ", d), displayTime(e.Timestamp), e.ID, e.EventType, e.Outcome, e.Description)
	}
	fmt.Fprintf(w, "(%d %s)\n", len(events), plural(len(events), "event", "events"))
	return nil
}

// writeEvent writes the full detail of one event. Absent optional fields are
// omitted.
func writeEvent(w io.Writer, e *trace.TraceEvent) error {
	fmt.Fprintf(w, "ID: %s\n", e.ID)
	fmt.Fprintf(w, "Type: %s\n", e.EventType)
	fmt.Fprintf(w, "Description: %s\n", e.Description)
	fmt.Fprintf(w, "Timestamp: %s\n", e.Timestamp.UTC().Format(time.RFC3339Nano))
	if e.Duration > 0 {
		fmt.Fprintf(w, "Duration: %s\n", e.Duration)
	}
	fmt.Fprintf(w, "Outcome: %s\n", e.Outcome)
	writeOptional(w, "Outcome details", e.OutcomeDetails)
	writeOptional(w, "Error", e.Error)
	writeOptional(w, "Parent", e.ParentEventID)
	writeOptional(w, "Correlation", e.CorrelationID)
	if e.SourceSystem != nil {
		if e.SourceIP != nil {
			fmt.Fprintf(w, "Source: %s (%s)\n", *e.SourceSystem, *e.SourceIP)
		} else {
			fmt.Fprintf(w, "Source: %s\n", *e.SourceSystem)
		}
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(e.Tags, ", "))
	}

	if a := e.Actor; a != nil {
		fmt.Fprintf(w, "Actor: %s (%s, %s)\n", a.Name, a.Type, a.ID)
	}

	if d := e.Decision; d != nil {
		fmt.Fprintln(w, "Decision:")
		fmt.Fprintf(w, "  Action: %s\n", d.Action)
		fmt.Fprintf(w, "  Reasoning: %s\n", d.Reasoning)
		if d.Confidence != nil {
			fmt.Fprintf(w, "  Confidence: %.2f\n", *d.Confidence)
		}
		if d.RiskLevel != nil {
			fmt.Fprintf(w, "  Risk: %s\n", *d.RiskLevel)
		}
		if d.RequiresApproval {
			if d.ApprovedBy != nil {
				fmt.Fprintf(w, "  Approval: approved by %s\n", *d.ApprovedBy)
			} else {
				fmt.Fprintln(w, "  Approval: required")
			}
		}
		if d.Trigger != nil {
			if d.TriggerEventID != nil {
				fmt.Fprintf(w, "  Trigger: %s (%s)\n", *d.Trigger, *d.TriggerEventID)
			} else {
				fmt.Fprintf(w, "  Trigger: %s\n", *d.Trigger)
			}
		}
		if len(d.Context) > 0 {
			fmt.Fprintf(w, "  Context: %s\n", canonical(d.Context))
		}
		for _, c := range d.Constraints {
			fmt.Fprintf(w, "  Constraint: %s\n", c)
		}
		for _, alt := range sortedKeys(d.RejectionReasons) {
			fmt.Fprintf(w, "  Rejected %s: %s\n", alt, d.RejectionReasons[alt])
		}
		if len(d.DependsOn) > 0 {
			fmt.Fprintf(w, "  Depends on: %s\n", strings.Join(d.DependsOn, ", "))
		}
	}

	if len(e.Objects) > 0 {
		fmt.Fprintln(w, "Objects:")
		for _, o := range e.Objects {
			line := fmt.Sprintf("  - %s %s", o.Type, o.ID)
			if o.ExternalID != nil {
				line += fmt.Sprintf(" (%s)", *o.ExternalID)
			}
			if o.Name != nil {
				line += " " + *o.Name
			}
			fmt.Fprintln(w, line)
			if o.StateBefore != nil {
				fmt.Fprintf(w, "      before: %s\n", canonical(o.StateBefore))
			}
			if o.StateAfter != nil {
				fmt.Fprintf(w, "      after: %s\n", canonical(o.StateAfter))
			}
		}
	}

	if len(e.Data) > 0 {
		fmt.Fprintf(w, "Data: %s\n", canonical(e.Data))
	}
	return nil
}

// writeStats writes store totals and breakdowns. Map breakdowns are sorted
// by key.
func writeStats(w io.Writer, st *store.Stats) error {
	fmt.Fprintf(w, "Total events: %d\n", st.TotalEvents)
	fmt.Fprintf(w, "Total actors: %d\n", st.TotalActors)
	fmt.Fprintf(w, "Total objects: %d\n", st.TotalObjects)
	fmt.Fprintf(w, "Total decisions: %d\n", st.TotalDecisions)
	fmt.Fprintf(w, "Total tags: %d\n", st.TotalTags)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Top event types:")
	if len(st.TopEventTypes) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, tc := range st.TopEventTypes {
		fmt.Fprintf(w, "  %s: %d\n", tc.EventType, tc.Count)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actors by type:")
	actorTypes := make(map[string]int, len(st.ActorsByType))
	for k, v := range st.ActorsByType {
		actorTypes[string(k)] = v
	}
	writeCounts(w, actorTypes)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Events by outcome:")
	outcomes := make(map[string]int, len(st.EventsByOutcome))
	for k, v := range st.EventsByOutcome {
		outcomes[string(k)] = v
	}
	writeCounts(w, outcomes)
	return nil
}

func writeCounts(w io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, k := range sortedKeys(counts) {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

func writeOptional(w io.Writer, label string, s *string) {
	if s != nil {
		fmt.Fprintf(w, "%s: %s\n", label, *s)
	}
}

// canonical renders obj as canonical JSON.
func canonical(obj value.Object) string {
	data, err := value.MarshalCanonical(obj)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

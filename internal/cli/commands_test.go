package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtrace/internal/store"
	"github.com/roach88/dtrace/internal/testutil"
	"github.com/roach88/dtrace/internal/trace"
)

// eventIDs returns the id column of text event-list output, in order.
func eventIDs(stdout string) []string {
	var ids []string
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.HasPrefix(fields[1], "evt-") {
			ids = append(ids, fields[1])
		}
	}
	return ids
}

func TestRecord_Text(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")

	stdout, stderr, code := runCLI(t, "--db", db, "record", filepath.Join("testdata", "seed.yaml"))
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "Recorded 3 events\n  evt-alert\n  evt-restock\n  evt-payment\n", stdout)
}

func TestRecord_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")

	stdout, stderr, code := runCLI(t, "--db", db, "--format", "json", "record", filepath.Join("testdata", "seed.yaml"))
	require.Equal(t, ExitSuccess, code, stderr)

	var result recordResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"evt-alert", "evt-restock", "evt-payment"}, result.IDs)
}

func TestRecord_InvalidDocument(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(doc, []byte("events:\n  - event_type: x\n    outcome: maybe\n"), 0o644))

	_, stderr, code := runCLI(t, "--db", filepath.Join(t.TempDir(), "traces.db"), "record", doc)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "Error [E003]")
	assert.Contains(t, stderr, "outcome")
}

func TestRecord_MissingFile(t *testing.T) {
	_, stderr, code := runCLI(t, "--db", filepath.Join(t.TempDir(), "traces.db"), "record", "testdata/nope.yaml")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "failed to load testdata/nope.yaml")
}

func TestGet_Text(t *testing.T) {
	db := seededDB(t)

	stdout, stderr, code := runCLI(t, "--db", db, "get", "evt-restock")
	require.Equal(t, ExitSuccess, code, stderr)
	testutil.AssertGolden(t, "get_restock_text", []byte(stdout))
}

func TestGet_JSON(t *testing.T) {
	db := seededDB(t)

	stdout, stderr, code := runCLI(t, "--db", db, "--format", "json", "get", "evt-payment")
	require.Equal(t, ExitSuccess, code, stderr)

	var e trace.TraceEvent
	resp := decodeResponse(t, stdout, &e)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "evt-payment", e.ID)
	assert.Equal(t, trace.OutcomeFailure, e.Outcome)
	require.NotNil(t, e.Error)
	assert.Equal(t, "card declined", *e.Error)
	require.NotNil(t, e.Actor)
	assert.Equal(t, "checkout", e.Actor.ID)
	assert.Nil(t, e.Decision)
}

func TestGet_NotFound(t *testing.T) {
	db := seededDB(t)

	_, stderr, code := runCLI(t, "--db", db, "get", "evt-missing")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "Error [E002]")
}

func TestQuery(t *testing.T) {
	db := seededDB(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "all newest first", args: nil, want: []string{"evt-payment", "evt-restock", "evt-alert"}},
		{name: "by type", args: []string{"--type", "payment.failed"}, want: []string{"evt-payment"}},
		{name: "any of types", args: []string{"--type", "payment.failed", "--type", "inventory.low_stock_alert"}, want: []string{"evt-payment", "evt-alert"}},
		{name: "by actor type", args: []string{"--actor-type", "ai_agent"}, want: []string{"evt-restock"}},
		{name: "by actor", args: []string{"--actor", "system"}, want: []string{"evt-alert"}},
		{name: "by object", args: []string{"--object", "inventory-SKU-1"}, want: []string{"evt-restock", "evt-alert"}},
		{name: "by object type", args: []string{"--object-type", "supplier"}, want: []string{"evt-restock"}},
		{name: "all tags required", args: []string{"--tag", "inventory", "--tag", "alert"}, want: []string{"evt-alert"}},
		{name: "by correlation", args: []string{"--correlation", "corr-1"}, want: []string{"evt-restock"}},
		{name: "by source", args: []string{"--source", "inventory-service"}, want: []string{"evt-restock"}},
		{name: "time window", args: []string{"--since", "2024-06-01T12:05:00Z", "--until", "2024-06-01T12:59:59Z"}, want: []string{"evt-restock"}},
		{name: "limit and offset", args: []string{"--limit", "1", "--offset", "1"}, want: []string{"evt-restock"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", db, "query"}, tt.args...)
			stdout, stderr, code := runCLI(t, args...)
			require.Equal(t, ExitSuccess, code, stderr)
			assert.Equal(t, tt.want, eventIDs(stdout))
		})
	}
}

func TestQuery_NoMatches(t *testing.T) {
	db := seededDB(t)

	stdout, stderr, code := runCLI(t, "--db", db, "query", "--type", "order.created")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "No events found\n", stdout)
}

func TestQuery_UsageErrors(t *testing.T) {
	db := seededDB(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown actor type", args: []string{"--actor-type", "robot"}},
		{name: "negative limit", args: []string{"--limit", "-1"}},
		{name: "bad since", args: []string{"--since", "yesterday"}},
		{name: "inverted range", args: []string{"--since", "2024-06-02T00:00:00Z", "--until", "2024-06-01T00:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", db, "query"}, tt.args...)
			_, stderr, code := runCLI(t, args...)
			assert.Equal(t, ExitCommandError, code)
			assert.Contains(t, stderr, "Error [E001]")
		})
	}
}

func TestSearch(t *testing.T) {
	db := seededDB(t)

	stdout, stderr, code := runCLI(t, "--db", db, "search", "restocking")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, []string{"evt-restock"}, eventIDs(stdout))
	assert.Contains(t, stdout, "(1 event)")

	stdout, _, code = runCLI(t, "--db", db, "search", "threshold")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"evt-alert"}, eventIDs(stdout))
}

func TestChain_Text(t *testing.T) {
	db := seededDB(t)

	stdout, stderr, code := runCLI(t, "--db", db, "chain", "evt-restock")
	require.Equal(t, ExitSuccess, code, stderr)
	testutil.AssertGolden(t, "chain_text", []byte(stdout))
}

func TestChain_NotFound(t *testing.T) {
	db := seededDB(t)

	_, _, code := runCLI(t, "--db", db, "chain", "evt-missing")
	assert.Equal(t, ExitFailure, code)
}

func TestHistory(t *testing.T) {
	db := seededDB(t)

	stdout, stderr, code := runCLI(t, "--db", db, "history", "--external", "SKU-1", "--object-type", "inventory")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, []string{"evt-restock", "evt-alert"}, eventIDs(stdout))

	stdout, stderr, code = runCLI(t, "--db", db, "history", "--object", "payment-P-1")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, []string{"evt-payment"}, eventIDs(stdout))
}

func TestHistory_UsageErrors(t *testing.T) {
	db := seededDB(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no selector", args: nil},
		{name: "external without type", args: []string{"--external", "SKU-1"}},
		{name: "both selectors", args: []string{"--object", "a", "--external", "b", "--object-type", "order"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", db, "history"}, tt.args...)
			_, _, code := runCLI(t, args...)
			assert.Equal(t, ExitCommandError, code)
		})
	}
}

func TestActivity(t *testing.T) {
	db := seededDB(t)

	stdout, stderr, code := runCLI(t, "--db", db, "activity", "ai-restock")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, []string{"evt-restock"}, eventIDs(stdout))

	stdout, stderr, code = runCLI(t, "--db", db, "activity", "system", "--since", "2024-06-01T12:30:00Z")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "No events found\n", stdout)

	_, _, code = runCLI(t, "--db", db, "activity", "system", "--until", "not-a-time")
	assert.Equal(t, ExitCommandError, code)
}

func TestStats_Text(t *testing.T) {
	db := seededDB(t)

	stdout, stderr, code := runCLI(t, "--db", db, "stats")
	require.Equal(t, ExitSuccess, code, stderr)
	testutil.AssertGolden(t, "stats_text", []byte(stdout))
}

func TestStats_JSON(t *testing.T) {
	db := seededDB(t)

	stdout, stderr, code := runCLI(t, "--db", db, "--format", "json", "stats")
	require.Equal(t, ExitSuccess, code, stderr)

	var st store.Stats
	resp := decodeResponse(t, stdout, &st)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, st.TotalEvents)
	assert.Equal(t, 2, st.ActorsByType[trace.ActorSystem])
	assert.Equal(t, 1, st.EventsByOutcome[trace.OutcomeFailure])
	require.Len(t, st.TopEventTypes, 3)
	assert.Equal(t, "inventory.low_stock_alert", st.TopEventTypes[0].EventType)
}

func TestRecord_InvalidDocumentJSONDetails(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(doc, []byte("events:\n  - event_type: x\n    duration: -1\n"), 0o644))

	stdout, _, code := runCLI(t, "--db", filepath.Join(t.TempDir(), "traces.db"), "--format", "json", "record", doc)
	assert.Equal(t, ExitFailure, code)

	resp := decodeResponse(t, stdout, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
}

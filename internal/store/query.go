package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/dtrace/internal/eventquery"
	"github.com/roach88/dtrace/internal/trace"
)

// QueryEvents returns events matching every predicate of f, newest first.
func (s *Store) QueryEvents(ctx context.Context, f eventquery.Filter) ([]*trace.TraceEvent, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	query, args, err := s.compiler.Compile(f)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	var events []*trace.TraceEvent
	err = s.readTx(ctx, "query events", func(q querier) error {
		events, err = readEvents(ctx, q, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("events queried", "results", len(events), "limit", f.EffectiveLimit(), "offset", f.Offset)
	return events, nil
}

// SearchDecisions returns the events owning decisions whose action or
// reasoning match text, best match first. Each whitespace-separated term
// must appear; terms are matched literally, so punctuation is never parsed
// as search syntax. A limit of zero means eventquery.DefaultLimit.
func (s *Store) SearchDecisions(ctx context.Context, text string, limit int) ([]*trace.TraceEvent, error) {
	const op = "search decisions"
	match := searchExpr(text)
	if match == "" {
		return nil, &eventquery.UsageError{Op: op, Msg: "search text is required"}
	}
	if err := eventquery.ValidateLimit(op, limit); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = eventquery.DefaultLimit
	}

	// An event may own several matching decisions; it ranks by its best one.
	query := `
		SELECT ` + eventColumns + `
		FROM trace_events e
		JOIN (
			SELECT d.event_id AS event_id, MIN(bm25(decisions_fts)) AS score
			FROM decisions_fts
			JOIN decisions d ON d.id = decisions_fts.decision_id
			WHERE decisions_fts MATCH ?
			GROUP BY d.event_id
		) m ON m.event_id = e.id
		ORDER BY m.score ASC, e.id ASC
		LIMIT ?`

	var events []*trace.TraceEvent
	err := s.readTx(ctx, op, func(q querier) error {
		var err error
		events, err = readEvents(ctx, q, query, match, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("decisions searched", "text", text, "results", len(events))
	return events, nil
}

// searchExpr turns free text into an FTS5 query: each term becomes a quoted
// phrase and all terms are required. Text is NFC-normalized to match the
// index. Returns "" for blank text.
func searchExpr(text string) string {
	terms := strings.Fields(norm.NFC.String(text))
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " AND ")
}

// EventChain returns the whole parent/child tree containing id, oldest first.
//
// The root is found by following parent links upward. The walk stops at a
// missing parent, a self-reference, or any event already visited, so cyclic
// links terminate; the last event reached is the root. The result is every
// event reachable downward from that root, root included.
func (s *Store) EventChain(ctx context.Context, id string) ([]*trace.TraceEvent, error) {
	const op = "event chain"
	var events []*trace.TraceEvent
	err := s.readTx(ctx, op, func(q querier) error {
		root, err := findRoot(ctx, q, id)
		if err != nil {
			return err
		}

		// UNION (not UNION ALL) discards rows already in the chain, which
		// ends recursion on cyclic descendant links.
		events, err = readEvents(ctx, q, `
			WITH RECURSIVE chain(id) AS (
				SELECT ?
				UNION
				SELECT c.id FROM trace_events c JOIN chain p ON c.parent_event_id = p.id
			)
			SELECT `+eventColumns+`
			FROM trace_events e
			WHERE e.id IN (SELECT id FROM chain)
			ORDER BY e.timestamp ASC, e.id ASC`, root)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("event chain resolved", "event_id", id, "events", len(events))
	return events, nil
}

// findRoot walks parent links from id. Returns ErrNotFound if id itself
// does not exist.
func findRoot(ctx context.Context, q querier, id string) (string, error) {
	visited := map[string]bool{}
	current := id
	for {
		visited[current] = true

		var parent sql.NullString
		err := q.QueryRowContext(ctx, `SELECT parent_event_id FROM trace_events WHERE id = ?`, current).Scan(&parent)
		if errors.Is(err, sql.ErrNoRows) {
			if current == id {
				return "", fmt.Errorf("event %s: %w", id, ErrNotFound)
			}
			// unreachable: current is only advanced to existing parents
			return current, nil
		}
		if err != nil {
			return "", storageError("event chain", err)
		}

		if !parent.Valid || parent.String == "" || visited[parent.String] {
			return current, nil
		}

		var exists int
		err = q.QueryRowContext(ctx, `SELECT 1 FROM trace_events WHERE id = ?`, parent.String).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			// dangling parent: treat current as the root
			return current, nil
		}
		if err != nil {
			return "", storageError("event chain", err)
		}
		current = parent.String
	}
}

// ObjectHistory returns events linked to one object, newest first. The
// object is addressed by ID or by (external ID, type); both modes return
// the same events for the same object. A limit of zero means
// eventquery.DefaultLimit.
func (s *Store) ObjectHistory(ctx context.Context, ref eventquery.ObjectRef, limit int) ([]*trace.TraceEvent, error) {
	const op = "object history"
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if err := eventquery.ValidateLimit(op, limit); err != nil {
		return nil, err
	}

	var events []*trace.TraceEvent
	err := s.readTx(ctx, op, func(q querier) error {
		ids := []string{ref.ObjectID}
		if ref.ByExternal() {
			var err error
			if ids, err = resolveExternal(ctx, q, ref); err != nil {
				return err
			}
			if len(ids) == 0 {
				events = []*trace.TraceEvent{}
				return nil
			}
		}

		query, args, err := s.compiler.Compile(eventquery.Filter{ObjectIDs: ids, Limit: limit})
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		events, err = readEvents(ctx, q, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// resolveExternal returns the IDs of objects with the given external ID and type.
func resolveExternal(ctx context.Context, q querier, ref eventquery.ObjectRef) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id FROM tracked_objects
		WHERE external_id = ? AND type = ?
		ORDER BY id ASC
	`, ref.ExternalID, string(ref.Type))
	if err != nil {
		return nil, storageError("resolve external id", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageError("scan object id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate object ids", err)
	}
	return ids, nil
}

// ActorActivity returns events linked to one actor within the optional
// time bounds, newest first.
func (s *Store) ActorActivity(ctx context.Context, a eventquery.Activity) ([]*trace.TraceEvent, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	query, args, err := s.compiler.CompileActivity(a)
	if err != nil {
		return nil, fmt.Errorf("actor activity: %w", err)
	}

	var events []*trace.TraceEvent
	err = s.readTx(ctx, "actor activity", func(q querier) error {
		events, err = readEvents(ctx, q, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

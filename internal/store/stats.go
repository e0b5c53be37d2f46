package store

import (
	"context"
	"fmt"

	"github.com/roach88/dtrace/internal/trace"
)

// topEventTypes is how many event types Stats reports.
const topEventTypes = 10

// TypeCount is an event type with its number of events.
type TypeCount struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

// Stats summarizes the store contents.
type Stats struct {
	TotalEvents    int `json:"total_events"`
	TotalActors    int `json:"total_actors"`
	TotalObjects   int `json:"total_objects"`
	TotalDecisions int `json:"total_decisions"`
	TotalTags      int `json:"total_tags"`

	// TopEventTypes holds the most frequent event types, by descending
	// count then ascending type.
	TopEventTypes []TypeCount `json:"top_event_types"`

	ActorsByType    map[trace.ActorType]int `json:"actors_by_type"`
	EventsByOutcome map[trace.Outcome]int   `json:"events_by_outcome"`
}

// Stats computes aggregate counts over the whole store.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		TopEventTypes:   []TypeCount{},
		ActorsByType:    map[trace.ActorType]int{},
		EventsByOutcome: map[trace.Outcome]int{},
	}

	err := s.readTx(ctx, "stats", func(q querier) error {
		totals := []struct {
			query string
			dst   *int
		}{
			{`SELECT COUNT(*) FROM trace_events`, &st.TotalEvents},
			{`SELECT COUNT(*) FROM actors`, &st.TotalActors},
			{`SELECT COUNT(*) FROM tracked_objects`, &st.TotalObjects},
			{`SELECT COUNT(*) FROM decisions`, &st.TotalDecisions},
			{`SELECT COUNT(DISTINCT tag) FROM event_tags`, &st.TotalTags},
		}
		for _, t := range totals {
			if err := q.QueryRowContext(ctx, t.query).Scan(t.dst); err != nil {
				return storageError("stats", fmt.Errorf("%s: %w", t.query, err))
			}
		}

		rows, err := q.QueryContext(ctx, `
			SELECT event_type, COUNT(*) AS n
			FROM trace_events
			GROUP BY event_type
			ORDER BY n DESC, event_type ASC
			LIMIT ?
		`, topEventTypes)
		if err != nil {
			return storageError("stats", err)
		}
		for rows.Next() {
			var tc TypeCount
			if err := rows.Scan(&tc.EventType, &tc.Count); err != nil {
				rows.Close()
				return storageError("stats", err)
			}
			st.TopEventTypes = append(st.TopEventTypes, tc)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return storageError("stats", err)
		}
		rows.Close()

		if err := countGrouped(ctx, q, `SELECT type, COUNT(*) FROM actors GROUP BY type`, func(tag string, n int) error {
			t, err := trace.ParseActorType(tag)
			if err != nil {
				return decodeError("actors", "type", "*", err)
			}
			st.ActorsByType[t] = n
			return nil
		}); err != nil {
			return err
		}

		return countGrouped(ctx, q, `SELECT outcome, COUNT(*) FROM trace_events GROUP BY outcome`, func(tag string, n int) error {
			o, err := trace.ParseOutcome(tag)
			if err != nil {
				return decodeError("trace_events", "outcome", "*", err)
			}
			st.EventsByOutcome[o] = n
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// countGrouped runs a (tag, count) grouping query and feeds each row to fn.
func countGrouped(ctx context.Context, q querier, query string, fn func(tag string, n int) error) error {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return storageError("stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tag string
			n   int
		)
		if err := rows.Scan(&tag, &n); err != nil {
			return storageError("stats", err)
		}
		if err := fn(tag, n); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return storageError("stats", err)
	}
	return nil
}

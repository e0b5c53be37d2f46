package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/dtrace/internal/eventquery"
	"github.com/roach88/dtrace/internal/trace"
)

// SaveEvent persists an event and everything attached to it in one
// transaction, and returns the event ID. A missing ID is generated first.
//
// Rows are upserted: re-saving an event ID overwrites the event row, and
// actors and objects are shared by ID, so the latest save wins for their
// identity fields. Links from an earlier save of the same event ID that the
// new version no longer mentions are kept.
//
// Any failure rolls the whole save back.
func (s *Store) SaveEvent(ctx context.Context, e *trace.TraceEvent) (string, error) {
	if e == nil {
		return "", &eventquery.UsageError{Op: "save event", Msg: "event is nil"}
	}
	if err := checkEnums(e); err != nil {
		return "", err
	}

	id := e.EnsureID()

	// Encode everything before touching the database so codec failures
	// never leave an open transaction.
	rows, err := encodeEvent(e)
	if err != nil {
		return "", fmt.Errorf("save event %s: %w", id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storageError("save event", fmt.Errorf("begin tx: %w", err))
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr == nil {
			slog.Warn("save rolled back", "event_id", id)
		}
	}()

	if err := rows.write(ctx, tx); err != nil {
		return "", storageError("save event", fmt.Errorf("event %s: %w", id, err))
	}

	if err := tx.Commit(); err != nil {
		return "", storageError("save event", fmt.Errorf("commit: %w", err))
	}
	committed = true

	slog.Debug("event saved",
		"event_id", id,
		"event_type", e.EventType,
		"objects", len(rows.objects),
		"tags", len(rows.tags),
		"decision", rows.decision != nil)

	return id, nil
}

// checkEnums rejects enum values outside the closed sets. An empty outcome
// is treated as success.
func checkEnums(e *trace.TraceEvent) error {
	const op = "save event"
	if e.Outcome != "" && !e.Outcome.Valid() {
		return &eventquery.UsageError{Op: op, Msg: fmt.Sprintf("unknown outcome %q", e.Outcome)}
	}
	if e.Actor != nil && !e.Actor.Type.Valid() {
		return &eventquery.UsageError{Op: op, Msg: fmt.Sprintf("unknown actor type %q", e.Actor.Type)}
	}
	for _, obj := range e.Objects {
		if !obj.Type.Valid() {
			return &eventquery.UsageError{Op: op, Msg: fmt.Sprintf("object %s: unknown object type %q", obj.ID, obj.Type)}
		}
	}
	return nil
}

// eventRows is an event flattened into column values, ready to write.
type eventRows struct {
	event    []any
	actor    []any
	actorID  string
	decision []any
	fts      []any
	objects  [][]any
	links    [][]any
	tags     []string
}

// encodeEvent flattens e into row values. Objects are deduplicated by ID
// (first occurrence wins) and numbered by position.
func encodeEvent(e *trace.TraceEvent) (*eventRows, error) {
	dataJSON, err := encodeObject(e.Data)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}

	outcome := e.Outcome
	if outcome == "" {
		outcome = trace.OutcomeSuccess
	}

	r := &eventRows{
		event: []any{
			e.ID,
			formatTimestamp(e.Timestamp),
			encodeDuration(e.Duration),
			e.EventType,
			e.Description,
			string(outcome),
			nullString(e.OutcomeDetails),
			nullString(e.Error),
			nullString(e.ParentEventID),
			nullString(e.CorrelationID),
			nullString(e.SourceSystem),
			nullString(e.SourceIP),
			dataJSON,
		},
	}

	if a := e.Actor; a != nil {
		metaJSON, err := encodeObject(a.Metadata)
		if err != nil {
			return nil, fmt.Errorf("actor %s metadata: %w", a.ID, err)
		}
		r.actorID = a.ID
		r.actor = []any{
			a.ID, string(a.Type), a.Name, metaJSON,
			nullString(a.Model), nullString(a.Version),
			nullString(a.Email), nullString(a.Role),
			nullString(a.ServiceName), nullString(a.JobID),
		}
	}

	if d := e.Decision; d != nil {
		if d.ID == "" {
			d.ID = trace.NewDecisionID()
		}
		r.decision, err = encodeDecision(e.ID, d)
		if err != nil {
			return nil, fmt.Errorf("decision %s: %w", d.ID, err)
		}
		// The search index holds NFC text so composed and decomposed
		// spellings match; the decisions row keeps the original bytes.
		r.fts = []any{d.ID, norm.NFC.String(d.Action), norm.NFC.String(d.Reasoning)}
	}

	seen := make(map[string]bool, len(e.Objects))
	for _, obj := range e.Objects {
		if seen[obj.ID] {
			continue
		}
		seen[obj.ID] = true

		metaJSON, err := encodeObject(obj.Metadata)
		if err != nil {
			return nil, fmt.Errorf("object %s metadata: %w", obj.ID, err)
		}
		before, err := encodeOptionalObject(obj.StateBefore)
		if err != nil {
			return nil, fmt.Errorf("object %s state_before: %w", obj.ID, err)
		}
		after, err := encodeOptionalObject(obj.StateAfter)
		if err != nil {
			return nil, fmt.Errorf("object %s state_after: %w", obj.ID, err)
		}

		r.objects = append(r.objects, []any{
			obj.ID, string(obj.Type), nullString(obj.ExternalID), nullString(obj.Name), metaJSON,
		})
		r.links = append(r.links, []any{e.ID, obj.ID, len(r.links), before, after})
	}

	tagSeen := make(map[string]bool, len(e.Tags))
	for _, tag := range e.Tags {
		if !tagSeen[tag] {
			tagSeen[tag] = true
			r.tags = append(r.tags, tag)
		}
	}

	return r, nil
}

func encodeDecision(eventID string, d *trace.DecisionTrace) ([]any, error) {
	contextJSON, err := encodeObject(d.Context)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	constraintsJSON, err := encodeStrings(d.Constraints)
	if err != nil {
		return nil, fmt.Errorf("constraints: %w", err)
	}
	alternativesJSON, err := encodeObjects(d.Alternatives)
	if err != nil {
		return nil, fmt.Errorf("alternatives: %w", err)
	}
	rejectionsJSON, err := encodeStringMap(d.RejectionReasons)
	if err != nil {
		return nil, fmt.Errorf("rejection reasons: %w", err)
	}
	dependsJSON, err := encodeStrings(d.DependsOn)
	if err != nil {
		return nil, fmt.Errorf("depends on: %w", err)
	}

	return []any{
		d.ID, eventID, d.Action, d.Reasoning,
		contextJSON, constraintsJSON, alternativesJSON, rejectionsJSON,
		nullFloat(d.Confidence), nullString(d.RiskLevel),
		boolToInt(d.RequiresApproval), nullString(d.ApprovedBy),
		nullString(d.Trigger), nullString(d.TriggerEventID),
		dependsJSON,
	}, nil
}

// write issues every statement for the event inside tx.
func (r *eventRows) write(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO trace_events
		(id, timestamp, duration, event_type, description, outcome,
		 outcome_details, error, parent_event_id, correlation_id,
		 source_system, source_ip, data_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timestamp = excluded.timestamp,
			duration = excluded.duration,
			event_type = excluded.event_type,
			description = excluded.description,
			outcome = excluded.outcome,
			outcome_details = excluded.outcome_details,
			error = excluded.error,
			parent_event_id = excluded.parent_event_id,
			correlation_id = excluded.correlation_id,
			source_system = excluded.source_system,
			source_ip = excluded.source_ip,
			data_json = excluded.data_json
	`, r.event...); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	if r.actor != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO actors
			(id, type, name, metadata_json, model, version, email, role, service_name, job_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				type = excluded.type,
				name = excluded.name,
				metadata_json = excluded.metadata_json,
				model = excluded.model,
				version = excluded.version,
				email = excluded.email,
				role = excluded.role,
				service_name = excluded.service_name,
				job_id = excluded.job_id
		`, r.actor...); err != nil {
			return fmt.Errorf("write actor: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO event_actors (event_id, actor_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, r.event[0], r.actorID); err != nil {
			return fmt.Errorf("link actor: %w", err)
		}
	}

	if r.decision != nil {
		// REPLACE gives the row a fresh rowid, which read order relies on
		// to pick the most recently written decision.
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO decisions
			(id, event_id, action, reasoning, context_json, constraints_json,
			 alternatives_json, rejection_reasons_json, confidence, risk_level,
			 requires_approval, approved_by, "trigger", trigger_event_id, depends_on_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.decision...); err != nil {
			return fmt.Errorf("write decision: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM decisions_fts WHERE decision_id = ?`, r.fts[0]); err != nil {
			return fmt.Errorf("clear search index: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO decisions_fts (decision_id, action, reasoning) VALUES (?, ?, ?)
		`, r.fts...); err != nil {
			return fmt.Errorf("index decision: %w", err)
		}
	}

	for i, obj := range r.objects {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tracked_objects (id, type, external_id, name, metadata_json)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				type = excluded.type,
				external_id = excluded.external_id,
				name = excluded.name,
				metadata_json = excluded.metadata_json
		`, obj...); err != nil {
			return fmt.Errorf("write object %v: %w", obj[0], err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO event_objects (event_id, object_id, position, state_before_json, state_after_json)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(event_id, object_id) DO UPDATE SET
				position = excluded.position,
				state_before_json = excluded.state_before_json,
				state_after_json = excluded.state_after_json
		`, r.links[i]...); err != nil {
			return fmt.Errorf("link object %v: %w", obj[0], err)
		}
	}

	for _, tag := range r.tags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO event_tags (event_id, tag) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, r.event[0], tag); err != nil {
			return fmt.Errorf("write tag %q: %w", tag, err)
		}
	}

	return nil
}

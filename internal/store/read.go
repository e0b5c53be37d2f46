package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/dtrace/internal/trace"
)

// eventColumns is the select list for event rows, aliased as e.
// scanEvent reads columns in exactly this order.
const eventColumns = `e.id, e.timestamp, e.duration, e.event_type, e.description, e.outcome,
	e.outcome_details, e.error, e.parent_event_id, e.correlation_id,
	e.source_system, e.source_ip, e.data_json`

// querier is the subset of *sql.DB and *sql.Tx used by readers.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// readTx runs fn inside one transaction so a multi-statement read sees a
// single snapshot. The transaction is always rolled back.
func (s *Store) readTx(ctx context.Context, op string, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()
	return fn(tx)
}

// GetEvent loads a single event with its actor, decision, objects, and tags.
// Returns an error wrapping ErrNotFound if no event has that ID.
//
// Timestamps come back in UTC. They are Equal to the saved instant but do
// not carry the caller's original time.Location.
func (s *Store) GetEvent(ctx context.Context, id string) (*trace.TraceEvent, error) {
	var event *trace.TraceEvent
	err := s.readTx(ctx, "get event", func(q querier) error {
		row := q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM trace_events e WHERE e.id = ?`, id)
		e, err := scanEvent(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := loadAttachments(ctx, q, e); err != nil {
			return err
		}
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// readEvents runs an event query and assembles every matching event.
// Rows are fully read and closed before attachments are loaded, since the
// store holds a single connection.
func readEvents(ctx context.Context, q querier, query string, args ...any) ([]*trace.TraceEvent, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("query events", err)
	}

	var events []*trace.TraceEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, storageError("iterate events", err)
	}
	rows.Close()

	for _, e := range events {
		if err := loadAttachments(ctx, q, e); err != nil {
			return nil, err
		}
	}

	// Return empty slice instead of nil
	if events == nil {
		events = []*trace.TraceEvent{}
	}
	return events, nil
}

// scanEvent reads one row selected with eventColumns.
func scanEvent(row scanner) (*trace.TraceEvent, error) {
	var (
		id, ts, eventType, description, outcome, dataJSON string
		duration                                          float64
		outcomeDetails, errText, parentID, correlationID  sql.NullString
		sourceSystem, sourceIP                            sql.NullString
	)
	err := row.Scan(
		&id, &ts, &duration, &eventType, &description, &outcome,
		&outcomeDetails, &errText, &parentID, &correlationID,
		&sourceSystem, &sourceIP, &dataJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storageError("scan event", err)
	}

	e := &trace.TraceEvent{
		ID:             id,
		EventType:      eventType,
		Description:    description,
		OutcomeDetails: fromNullString(outcomeDetails),
		Error:          fromNullString(errText),
		ParentEventID:  fromNullString(parentID),
		CorrelationID:  fromNullString(correlationID),
		SourceSystem:   fromNullString(sourceSystem),
		SourceIP:       fromNullString(sourceIP),
		Objects:        []trace.TrackedObject{},
		Tags:           []string{},
	}

	if e.Timestamp, err = parseTimestamp(ts); err != nil {
		return nil, decodeError("trace_events", "timestamp", id, err)
	}
	if e.Duration, err = decodeDuration(duration); err != nil {
		return nil, decodeError("trace_events", "duration", id, err)
	}
	if e.Outcome, err = trace.ParseOutcome(outcome); err != nil {
		return nil, decodeError("trace_events", "outcome", id, err)
	}
	if e.Data, err = decodeObject(dataJSON); err != nil {
		return nil, decodeError("trace_events", "data_json", id, err)
	}

	return e, nil
}

// loadAttachments fills the actor, decision, objects, and tags of e.
func loadAttachments(ctx context.Context, q querier, e *trace.TraceEvent) error {
	var err error
	if e.Actor, err = loadActor(ctx, q, e.ID); err != nil {
		return err
	}
	if e.Decision, err = loadDecision(ctx, q, e.ID); err != nil {
		return err
	}
	if e.Objects, err = loadObjects(ctx, q, e.ID); err != nil {
		return err
	}
	if e.Tags, err = loadTags(ctx, q, e.ID); err != nil {
		return err
	}
	return nil
}

// loadActor returns the first actor linked to the event, or nil.
func loadActor(ctx context.Context, q querier, eventID string) (*trace.Actor, error) {
	row := q.QueryRowContext(ctx, `
		SELECT a.id, a.type, a.name, a.metadata_json, a.model, a.version,
		       a.email, a.role, a.service_name, a.job_id
		FROM event_actors ea
		JOIN actors a ON a.id = ea.actor_id
		WHERE ea.event_id = ?
		ORDER BY ea.rowid ASC
		LIMIT 1
	`, eventID)

	var (
		a                   trace.Actor
		actorType, metaJSON string
		model, version      sql.NullString
		email, role         sql.NullString
		serviceName, jobID  sql.NullString
	)
	err := row.Scan(&a.ID, &actorType, &a.Name, &metaJSON, &model, &version,
		&email, &role, &serviceName, &jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("load actor", err)
	}

	if a.Type, err = trace.ParseActorType(actorType); err != nil {
		return nil, decodeError("actors", "type", a.ID, err)
	}
	if a.Metadata, err = decodeObject(metaJSON); err != nil {
		return nil, decodeError("actors", "metadata_json", a.ID, err)
	}
	a.Model = fromNullString(model)
	a.Version = fromNullString(version)
	a.Email = fromNullString(email)
	a.Role = fromNullString(role)
	a.ServiceName = fromNullString(serviceName)
	a.JobID = fromNullString(jobID)

	return &a, nil
}

// loadDecision returns the most recently written decision for the event, or nil.
func loadDecision(ctx context.Context, q querier, eventID string) (*trace.DecisionTrace, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, action, reasoning, context_json, constraints_json,
		       alternatives_json, rejection_reasons_json, confidence, risk_level,
		       requires_approval, approved_by, "trigger", trigger_event_id, depends_on_json
		FROM decisions
		WHERE event_id = ?
		ORDER BY rowid DESC
		LIMIT 1
	`, eventID)

	var (
		d                                        trace.DecisionTrace
		contextJSON, constraintsJSON             string
		alternativesJSON, rejectionsJSON         string
		dependsJSON                              string
		confidence                               sql.NullFloat64
		riskLevel, approvedBy, trig, trigEventID sql.NullString
		requiresApproval                         int
	)
	err := row.Scan(&d.ID, &d.Action, &d.Reasoning, &contextJSON, &constraintsJSON,
		&alternativesJSON, &rejectionsJSON, &confidence, &riskLevel,
		&requiresApproval, &approvedBy, &trig, &trigEventID, &dependsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("load decision", err)
	}

	if d.Context, err = decodeObject(contextJSON); err != nil {
		return nil, decodeError("decisions", "context_json", d.ID, err)
	}
	if d.Constraints, err = decodeStrings(constraintsJSON); err != nil {
		return nil, decodeError("decisions", "constraints_json", d.ID, err)
	}
	if d.Alternatives, err = decodeObjects(alternativesJSON); err != nil {
		return nil, decodeError("decisions", "alternatives_json", d.ID, err)
	}
	if d.RejectionReasons, err = decodeStringMap(rejectionsJSON); err != nil {
		return nil, decodeError("decisions", "rejection_reasons_json", d.ID, err)
	}
	if d.DependsOn, err = decodeStrings(dependsJSON); err != nil {
		return nil, decodeError("decisions", "depends_on_json", d.ID, err)
	}
	d.Confidence = fromNullFloat(confidence)
	d.RiskLevel = fromNullString(riskLevel)
	d.RequiresApproval = requiresApproval != 0
	d.ApprovedBy = fromNullString(approvedBy)
	d.Trigger = fromNullString(trig)
	d.TriggerEventID = fromNullString(trigEventID)

	return &d, nil
}

// loadObjects returns the event's objects in link position order, each
// carrying the state recorded for this event.
func loadObjects(ctx context.Context, q querier, eventID string) ([]trace.TrackedObject, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT o.id, o.type, o.external_id, o.name, o.metadata_json,
		       eo.state_before_json, eo.state_after_json
		FROM event_objects eo
		JOIN tracked_objects o ON o.id = eo.object_id
		WHERE eo.event_id = ?
		ORDER BY eo.position ASC, eo.rowid ASC
	`, eventID)
	if err != nil {
		return nil, storageError("load objects", err)
	}
	defer rows.Close()

	objects := []trace.TrackedObject{}
	for rows.Next() {
		var (
			obj               trace.TrackedObject
			objType, metaJSON string
			externalID, name  sql.NullString
			before, after     sql.NullString
		)
		if err := rows.Scan(&obj.ID, &objType, &externalID, &name, &metaJSON, &before, &after); err != nil {
			return nil, storageError("scan object", err)
		}
		if obj.Type, err = trace.ParseObjectType(objType); err != nil {
			return nil, decodeError("tracked_objects", "type", obj.ID, err)
		}
		if obj.Metadata, err = decodeObject(metaJSON); err != nil {
			return nil, decodeError("tracked_objects", "metadata_json", obj.ID, err)
		}
		if obj.StateBefore, err = decodeOptionalObject(before); err != nil {
			return nil, decodeError("event_objects", "state_before_json", eventID+"/"+obj.ID, err)
		}
		if obj.StateAfter, err = decodeOptionalObject(after); err != nil {
			return nil, decodeError("event_objects", "state_after_json", eventID+"/"+obj.ID, err)
		}
		obj.ExternalID = fromNullString(externalID)
		obj.Name = fromNullString(name)
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate objects", err)
	}
	return objects, nil
}

// loadTags returns the event's tags in sorted order.
func loadTags(ctx context.Context, q querier, eventID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT tag FROM event_tags WHERE event_id = ? ORDER BY tag ASC
	`, eventID)
	if err != nil {
		return nil, storageError("load tags", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, storageError("scan tag", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate tags", err)
	}
	return tags, nil
}

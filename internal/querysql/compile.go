package querysql

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/dtrace/internal/eventquery"
	"github.com/roach88/dtrace/internal/trace"
)

// Compiler compiles event queries to parameterized SQL for SQLite.
//
// Every query ends in ORDER BY e.timestamp DESC, e.id ASC so pages are
// deterministic. All values are parameterized, never interpolated.
type Compiler struct {
	// Columns is the select list over the events table aliased as e.
	// Defaults to "e.*".
	Columns string
}

// NewCompiler creates a Compiler selecting cols. An empty cols selects e.*.
func NewCompiler(cols string) *Compiler {
	if cols == "" {
		cols = "e.*"
	}
	return &Compiler{Columns: cols}
}

// join describes a link table a field needs.
type join int

const (
	joinNone join = iota
	joinActorLink
	joinActor
	joinObjectLink
	joinObject
)

// column maps an abstract field to its SQL column and required join.
func column(f eventquery.Field) (string, join, error) {
	switch f {
	case eventquery.FieldEventType:
		return "e.event_type", joinNone, nil
	case eventquery.FieldCorrelationID:
		return "e.correlation_id", joinNone, nil
	case eventquery.FieldSourceSystem:
		return "e.source_system", joinNone, nil
	case eventquery.FieldActorID:
		return "ea.actor_id", joinActorLink, nil
	case eventquery.FieldActorType:
		return "a.type", joinActor, nil
	case eventquery.FieldObjectID:
		return "eo.object_id", joinObjectLink, nil
	case eventquery.FieldObjectType:
		return "o.type", joinObject, nil
	default:
		return "", joinNone, fmt.Errorf("unknown field %q", f)
	}
}

// Compile converts a filter to SQL. Returns (sql, params, error).
// The filter is not validated here; callers run Filter.Validate first.
func (c *Compiler) Compile(f eventquery.Filter) (string, []any, error) {
	return c.compileSelect(f.Predicate(), f.EffectiveLimit(), f.Offset)
}

// CompileActivity converts an actor activity query to SQL.
func (c *Compiler) CompileActivity(a eventquery.Activity) (string, []any, error) {
	return c.compileSelect(a.Predicate(), a.EffectiveLimit(), 0)
}

func (c *Compiler) compileSelect(pred eventquery.And, limit, offset int) (string, []any, error) {
	joins, err := requiredJoins(pred)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT ")
	sb.WriteString(c.Columns)
	sb.WriteString(" FROM trace_events e")

	if joins[joinActorLink] || joins[joinActor] {
		sb.WriteString(" JOIN event_actors ea ON ea.event_id = e.id")
	}
	if joins[joinActor] {
		sb.WriteString(" JOIN actors a ON a.id = ea.actor_id")
	}
	if joins[joinObjectLink] || joins[joinObject] {
		sb.WriteString(" JOIN event_objects eo ON eo.event_id = e.id")
	}
	if joins[joinObject] {
		sb.WriteString(" JOIN tracked_objects o ON o.id = eo.object_id")
	}

	var params []any
	if len(pred.Predicates) > 0 {
		where, whereParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		params = whereParams
	}

	sb.WriteString(" ORDER BY e.timestamp DESC, e.id ASC LIMIT ? OFFSET ?")
	params = append(params, limit, offset)

	return sb.String(), params, nil
}

// requiredJoins collects the joins the predicate's fields need.
func requiredJoins(p eventquery.Predicate) (map[join]bool, error) {
	joins := map[join]bool{}
	for _, f := range eventquery.Fields(p) {
		_, j, err := column(f)
		if err != nil {
			return nil, err
		}
		joins[j] = true
	}
	return joins, nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
func (c *Compiler) compilePredicate(p eventquery.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case eventquery.AtOrAfter:
		return "e.timestamp >= ?", []any{formatTime(pred.Time)}, nil
	case eventquery.AtOrBefore:
		return "e.timestamp <= ?", []any{formatTime(pred.Time)}, nil
	case eventquery.Equals:
		col, _, err := column(pred.Field)
		if err != nil {
			return "", nil, err
		}
		return col + " = ?", []any{pred.Value}, nil
	case eventquery.AnyOf:
		return compileAnyOf(pred)
	case eventquery.HasTag:
		return "EXISTS (SELECT 1 FROM event_tags t WHERE t.event_id = e.id AND t.tag = ?)", []any{pred.Tag}, nil
	case eventquery.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileAnyOf(in eventquery.AnyOf) (string, []any, error) {
	col, _, err := column(in.Field)
	if err != nil {
		return "", nil, err
	}
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil
	}
	if len(in.Values) == 1 {
		return col + " = ?", []any{in.Values[0]}, nil
	}

	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		params[i] = v
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(in.Values)), ", ")
	return col + " IN (" + placeholders + ")", params, nil
}

func (c *Compiler) compileAnd(and eventquery.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// formatTime renders t in the stored timestamp form so text comparison
// matches time comparison.
func formatTime(t time.Time) string {
	return t.UTC().Format(trace.TimestampLayout)
}

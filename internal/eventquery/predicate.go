package eventquery

import "time"

// Field names a filterable event attribute.
//
// Fields are abstract: the backend compiler decides which column (and which
// link table) each one maps to.
type Field string

const (
	FieldEventType     Field = "event_type"
	FieldActorID       Field = "actor_id"
	FieldActorType     Field = "actor_type"
	FieldObjectID      Field = "object_id"
	FieldObjectType    Field = "object_type"
	FieldCorrelationID Field = "correlation_id"
	FieldSourceSystem  Field = "source_system"
)

// Predicate is one condition on an event.
//
// This is a sealed interface - only types in this package implement it.
// Backends type-switch over the closed set:
//   - AtOrAfter / AtOrBefore: inclusive time bounds
//   - Equals: field = value
//   - AnyOf: field IN (values)
//   - HasTag: the event carries the tag
//   - And: all predicates must hold (empty = always true)
type Predicate interface {
	predicateNode()
}

// AtOrAfter holds when the event timestamp is >= Time.
type AtOrAfter struct {
	Time time.Time
}

func (AtOrAfter) predicateNode() {}

// AtOrBefore holds when the event timestamp is <= Time.
type AtOrBefore struct {
	Time time.Time
}

func (AtOrBefore) predicateNode() {}

// Equals holds when Field equals Value.
type Equals struct {
	Field Field
	Value string
}

func (Equals) predicateNode() {}

// AnyOf holds when Field equals any of Values. An empty Values never holds.
type AnyOf struct {
	Field  Field
	Values []string
}

func (AnyOf) predicateNode() {}

// HasTag holds when the event carries Tag.
type HasTag struct {
	Tag string
}

func (HasTag) predicateNode() {}

// And holds when every predicate holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Predicate lowers the filter into a conjunction of predicates, in a fixed
// field order. Limit and Offset are not predicates.
func (f Filter) Predicate() And {
	var preds []Predicate

	if f.Start != nil {
		preds = append(preds, AtOrAfter{Time: *f.Start})
	}
	if f.End != nil {
		preds = append(preds, AtOrBefore{Time: *f.End})
	}
	if len(f.EventTypes) > 0 {
		preds = append(preds, AnyOf{Field: FieldEventType, Values: f.EventTypes})
	}
	if len(f.ActorIDs) > 0 {
		preds = append(preds, AnyOf{Field: FieldActorID, Values: f.ActorIDs})
	}
	if len(f.ActorTypes) > 0 {
		vals := make([]string, len(f.ActorTypes))
		for i, t := range f.ActorTypes {
			vals[i] = string(t)
		}
		preds = append(preds, AnyOf{Field: FieldActorType, Values: vals})
	}
	if len(f.ObjectIDs) > 0 {
		preds = append(preds, AnyOf{Field: FieldObjectID, Values: f.ObjectIDs})
	}
	if len(f.ObjectTypes) > 0 {
		vals := make([]string, len(f.ObjectTypes))
		for i, t := range f.ObjectTypes {
			vals[i] = string(t)
		}
		preds = append(preds, AnyOf{Field: FieldObjectType, Values: vals})
	}
	if f.CorrelationID != "" {
		preds = append(preds, Equals{Field: FieldCorrelationID, Value: f.CorrelationID})
	}
	for _, tag := range f.Tags {
		preds = append(preds, HasTag{Tag: tag})
	}
	if f.SourceSystem != "" {
		preds = append(preds, Equals{Field: FieldSourceSystem, Value: f.SourceSystem})
	}

	if preds == nil {
		preds = []Predicate{}
	}
	return And{Predicates: preds}
}

// Predicate lowers the activity query to a conjunction on actor ID and time.
func (a Activity) Predicate() And {
	preds := []Predicate{AnyOf{Field: FieldActorID, Values: []string{a.ActorID}}}
	if a.Start != nil {
		preds = append(preds, AtOrAfter{Time: *a.Start})
	}
	if a.End != nil {
		preds = append(preds, AtOrBefore{Time: *a.End})
	}
	return And{Predicates: preds}
}

// Fields returns every field referenced by p, in traversal order, with
// duplicates. Time and tag predicates reference no Field.
func Fields(p Predicate) []Field {
	var out []Field
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch pred := p.(type) {
		case Equals:
			out = append(out, pred.Field)
		case AnyOf:
			out = append(out, pred.Field)
		case And:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		}
	}
	walk(p)
	return out
}

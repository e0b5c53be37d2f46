package eventquery

import (
	"fmt"
	"strings"
	"time"
)

// UsageError reports a query the caller built incorrectly.
// It is never returned for storage failures.
type UsageError struct {
	Op  string
	Msg string
}

func (e *UsageError) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return e.Op + ": " + e.Msg
}

func usageErrorf(op, format string, args ...any) *UsageError {
	return &UsageError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks the filter for caller mistakes: negative paging, an
// inverted time range, or enum values outside the closed sets.
func (f Filter) Validate() error {
	const op = "query"
	if f.Limit < 0 {
		return usageErrorf(op, "limit must be non-negative, got %d", f.Limit)
	}
	if f.Offset < 0 {
		return usageErrorf(op, "offset must be non-negative, got %d", f.Offset)
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return usageErrorf(op, "end %s is before start %s", f.End.Format(time.RFC3339), f.Start.Format(time.RFC3339))
	}
	for _, t := range f.ActorTypes {
		if !t.Valid() {
			return usageErrorf(op, "unknown actor type %q", t)
		}
	}
	for _, t := range f.ObjectTypes {
		if !t.Valid() {
			return usageErrorf(op, "unknown object type %q", t)
		}
	}
	for _, tag := range f.Tags {
		if tag == "" {
			return usageErrorf(op, "empty tag")
		}
	}
	return nil
}

// Validate requires exactly one addressing mode: ObjectID alone, or
// ExternalID together with a known Type.
func (r ObjectRef) Validate() error {
	const op = "object history"
	switch {
	case r.ObjectID != "" && r.ExternalID != "":
		return usageErrorf(op, "give either an object id or an external id, not both")
	case r.ObjectID != "":
		return nil
	case r.ExternalID != "" && r.Type == "":
		return usageErrorf(op, "external id %q needs an object type", r.ExternalID)
	case r.ExternalID != "":
		if !r.Type.Valid() {
			return usageErrorf(op, "unknown object type %q", r.Type)
		}
		return nil
	default:
		return usageErrorf(op, "an object id or an external id with type is required")
	}
}

// Validate requires an actor ID and a non-inverted time range.
func (a Activity) Validate() error {
	const op = "actor activity"
	if strings.TrimSpace(a.ActorID) == "" {
		return usageErrorf(op, "actor id is required")
	}
	if a.Limit < 0 {
		return usageErrorf(op, "limit must be non-negative, got %d", a.Limit)
	}
	if a.Start != nil && a.End != nil && a.End.Before(*a.Start) {
		return usageErrorf(op, "end is before start")
	}
	return nil
}

// ValidateLimit checks a bare limit argument.
func ValidateLimit(op string, limit int) error {
	if limit < 0 {
		return usageErrorf(op, "limit must be non-negative, got %d", limit)
	}
	return nil
}

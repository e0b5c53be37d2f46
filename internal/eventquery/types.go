package eventquery

import (
	"time"

	"github.com/roach88/dtrace/internal/trace"
)

// DefaultLimit is applied when a query leaves Limit at zero.
const DefaultLimit = 100

// Filter describes a multi-predicate event query.
//
// Zero-valued fields are not applied. Multi-valued fields match when any
// value matches (OR), except Tags which require every tag (AND). Distinct
// fields combine with AND.
type Filter struct {
	Start *time.Time // inclusive
	End   *time.Time // inclusive

	EventTypes  []string
	ActorIDs    []string
	ActorTypes  []trace.ActorType
	ObjectIDs   []string
	ObjectTypes []trace.ObjectType

	CorrelationID string
	Tags          []string
	SourceSystem  string

	Limit  int // 0 means DefaultLimit
	Offset int
}

// EffectiveLimit returns Limit, or DefaultLimit when Limit is zero.
func (f Filter) EffectiveLimit() int {
	if f.Limit == 0 {
		return DefaultLimit
	}
	return f.Limit
}

// ObjectRef selects one tracked object either by internal ID or by the
// (ExternalID, Type) pair. Exactly one mode must be used.
type ObjectRef struct {
	ObjectID   string
	ExternalID string
	Type       trace.ObjectType
}

// ByExternal reports whether the reference uses the external-ID mode.
func (r ObjectRef) ByExternal() bool {
	return r.ObjectID == "" && r.ExternalID != ""
}

// Activity selects the events performed by one actor, optionally bounded
// in time.
type Activity struct {
	ActorID string
	Start   *time.Time
	End     *time.Time
	Limit   int // 0 means DefaultLimit
}

// EffectiveLimit returns Limit, or DefaultLimit when Limit is zero.
func (a Activity) EffectiveLimit() int {
	if a.Limit == 0 {
		return DefaultLimit
	}
	return a.Limit
}

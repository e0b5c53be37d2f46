package tracer

import "github.com/roach88/dtrace/internal/trace"

// IDGenerator produces identifiers for new events and decisions.
// Implemented by UUIDv7Generator (production) and testutil.SequenceGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so IDs of events
// recorded by one process sort roughly by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns trace.NewEventID, a hyphenated UUIDv7 string.
func (g UUIDv7Generator) Generate() string {
	return trace.NewEventID()
}

package trace

import "github.com/google/uuid"

// NewEventID returns a time-sortable UUIDv7 string for a new event.
//
// Panics if UUID generation fails (should never happen in practice).
func NewEventID() string {
	return newID()
}

// NewDecisionID returns a fresh id for a DecisionTrace.
func NewDecisionID() string {
	return newID()
}

// newID is the single source of generated ids.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Ptr returns a pointer to v. Handy for optional fields.
func Ptr[T any](v T) *T {
	return &v
}

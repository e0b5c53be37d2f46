package testutil

import (
	"context"
	"sync"

	"github.com/roach88/dtrace/internal/trace"
)

// RecordingSaver keeps saved events in memory. Set Err to make every save
// fail.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingSaver struct {
	mu     sync.Mutex
	events []*trace.TraceEvent
	Err    error
}

// SaveEvent records e and returns its ID, or Err if set.
func (s *RecordingSaver) SaveEvent(ctx context.Context, e *trace.TraceEvent) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.events = append(s.events, e)
	return e.EnsureID(), nil
}

// Events returns the saved events in save order.
func (s *RecordingSaver) Events() []*trace.TraceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*trace.TraceEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Last returns the most recently saved event, or nil.
func (s *RecordingSaver) Last() *trace.TraceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}

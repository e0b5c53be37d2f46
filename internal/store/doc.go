// Package store provides SQLite-backed persistence and querying for trace events.
//
// A TraceEvent is decomposed into normalized rows:
//   - trace_events: the event itself (data map as canonical JSON)
//   - actors + event_actors: shared actors, linked per event
//   - decisions: the reasoning attached to an event
//   - tracked_objects + event_objects: shared objects, with the per-event
//     position and before/after state on the link row
//   - event_tags: one row per (event, tag)
//   - decisions_fts: FTS5 index over decision action and reasoning
//
// # Invariants
//
// Saves are atomic: every row for an event is written in one transaction
// or none is. Actors and objects are upserted by ID, so the latest save of an
// ID wins for its shared fields.
//
// Event lists are newest first (timestamp DESC, id ASC) except EventChain,
// which is oldest first, and SearchDecisions, which is by relevance.
//
// Timestamps are stored as fixed-width UTC text so text order is time order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=OFF: parent and approver references may dangle
//
// The driver is modernc.org/sqlite (pure Go, FTS5 built in).
package store

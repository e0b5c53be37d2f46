// Package trace defines the event schema for decision tracing.
//
// This package contains type definitions and small helpers only. The store,
// query, and tracer packages import trace; trace imports nothing internal
// except value.
//
// Key design constraints:
//   - Optional scalar fields are pointers; nil means absent
//   - Enums are closed sets parsed with Parse* functions that reject unknown tags
//   - Event IDs are UUIDv7 strings and never change once assigned
//   - All JSON tags use snake_case
package trace

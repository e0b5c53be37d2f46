// Package tracer provides the fluent API applications use to record
// decision traces.
//
// A Client hands out a Builder per event:
//
//	id, err := client.Trace("inventory.restock_ordered", "Ordered 50 units").
//		ByAI("ai-restock", "Restocker", "gpt-4", "").
//		AffectingInventory("SKU-1", nil, trace.Ptr(int64(53))).
//		Because("Stock below threshold").
//		WithConfidence(0.92).
//		Record(ctx)
//
// Span wraps a unit of work, recording its duration and marking the event
// failed when the work returns an error.
package tracer

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/dtrace/internal/trace"
	"github.com/roach88/dtrace/internal/value"
)

// baseTime is the timestamp of the first test event; later events are
// offset from it so ordering is deterministic.
var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates an event with minimal required fields at
// baseTime plus offset minutes.
func createTestEvent(id, eventType string, offset int) *trace.TraceEvent {
	return &trace.TraceEvent{
		ID:          id,
		Timestamp:   baseTime.Add(time.Duration(offset) * time.Minute),
		EventType:   eventType,
		Description: eventType + " " + id,
		Objects:     []trace.TrackedObject{},
		Outcome:     trace.OutcomeSuccess,
		Data:        value.Object{},
		Tags:        []string{},
	}
}

// createFullEvent creates an event with every attachment populated.
func createFullEvent(id string) *trace.TraceEvent {
	e := createTestEvent(id, "inventory.restock_ordered", 0)
	e.Duration = 1500 * time.Millisecond
	e.OutcomeDetails = trace.Ptr("ordered 50 units")
	e.CorrelationID = trace.Ptr("corr-1")
	e.SourceSystem = trace.Ptr("inventory-service")
	e.SourceIP = trace.Ptr("10.0.0.7")
	e.Data = value.Object{
		"quantity":  value.Int(50),
		"unit_cost": value.Float(4.25),
		"rush":      value.Bool(false),
		"supplier":  value.Object{"id": value.String("sup-1"), "rating": value.Float(4.0)},
		"skus":      value.ArrayOf(value.String("A-1"), value.String("B-2")),
		"note":      value.Null{},
	}
	e.Tags = []string{"restock", "automated"}

	e.Actor = trace.NewAIAgent("agent-restock", "Restock Agent", "gpt-4", "2024-05")
	e.Actor.Metadata = value.Object{"team": value.String("ops")}

	e.Decision = &trace.DecisionTrace{
		ID:          "dec-" + id,
		Action:      "order_restock",
		Reasoning:   "Restocking due to low inventory levels",
		Context:     value.Object{"current_stock": value.Int(3), "threshold": value.Int(10)},
		Constraints: []string{"budget <= 500", "supplier must be approved"},
		Alternatives: []value.Object{
			{"action": value.String("wait"), "score": value.Float(0.2)},
			{"action": value.String("transfer")},
		},
		RejectionReasons: map[string]string{"wait": "stockout risk", "transfer": "no surplus"},
		Confidence:       trace.Ptr(0.87),
		RiskLevel:        trace.Ptr("low"),
		RequiresApproval: true,
		ApprovedBy:       trace.Ptr("user-manager"),
		Trigger:          trace.Ptr("low_stock_alert"),
		TriggerEventID:   trace.Ptr("evt-alert"),
		DependsOn:        []string{"dec-forecast"},
	}

	e.Objects = []trace.TrackedObject{
		{
			ID:          "inv-1",
			Type:        trace.ObjectInventory,
			ExternalID:  trace.Ptr("SKU-1"),
			Name:        trace.Ptr("Widget stock"),
			Metadata:    value.Object{"warehouse": value.String("east")},
			StateBefore: value.Object{"qty": value.Int(3)},
			StateAfter:  value.Object{"qty": value.Int(53)},
		},
		{
			ID:       "sup-1",
			Type:     trace.ObjectSupplier,
			Metadata: value.Object{},
		},
	}
	return e
}

// mustSave saves e and fails the test on error.
func mustSave(t *testing.T, s *Store, e *trace.TraceEvent) string {
	t.Helper()
	id, err := s.SaveEvent(context.Background(), e)
	if err != nil {
		t.Fatalf("SaveEvent(%s) failed: %v", e.ID, err)
	}
	return id
}

// eventIDs returns the IDs of events in order.
func eventIDs(events []*trace.TraceEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

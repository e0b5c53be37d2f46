package tracer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtrace/internal/testutil"
	"github.com/roach88/dtrace/internal/trace"
	"github.com/roach88/dtrace/internal/value"
)

func newTestClient(opts ...Option) (*Client, *testutil.RecordingSaver) {
	saver := &testutil.RecordingSaver{}
	base := []Option{
		WithIDGenerator(testutil.NewSequenceGenerator("id")),
		WithClock(testutil.NewClock(time.Time{}, time.Second).Now),
	}
	return New(saver, append(base, opts...)...), saver
}

func TestTrace_Defaults(t *testing.T) {
	c, _ := newTestClient()

	e, err := c.Trace("order.created", "Order 1 created").Build()
	require.NoError(t, err)

	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, testutil.DefaultEpoch, e.Timestamp)
	assert.Equal(t, "order.created", e.EventType)
	assert.Equal(t, "Order 1 created", e.Description)
	assert.Equal(t, trace.OutcomeSuccess, e.Outcome)
	assert.Nil(t, e.Actor)
	assert.Nil(t, e.Decision)
	assert.NotNil(t, e.Objects)
	assert.NotNil(t, e.Data)
	assert.NotNil(t, e.Tags)
}

func TestTrace_DefaultActor(t *testing.T) {
	bot := trace.NewAIAgent("bot", "Bot", "gpt-4", "")
	c, _ := newTestClient(WithDefaultActor(bot))

	e, err := c.Trace("x", "").Build()
	require.NoError(t, err)
	assert.Same(t, bot, e.Actor)

	e, err = c.Trace("x", "").ByUser("u1", "Ann", "ann@example.com", "").Build()
	require.NoError(t, err)
	assert.Equal(t, "u1", e.Actor.ID, "explicit actor overrides default")

	c.SetDefaultActor(nil)
	e, err = c.Trace("x", "").Build()
	require.NoError(t, err)
	assert.Nil(t, e.Actor)
}

func TestBuilder_Actors(t *testing.T) {
	c, _ := newTestClient()

	tests := []struct {
		name     string
		build    func(b *Builder) *Builder
		wantID   string
		wantType trace.ActorType
	}{
		{"user", func(b *Builder) *Builder { return b.ByUser("u1", "Ann", "", "admin") }, "u1", trace.ActorUser},
		{"ai", func(b *Builder) *Builder { return b.ByAI("ai-1", "Pricer", "gpt-4", "v2") }, "ai-1", trace.ActorAIAgent},
		{"compute", func(b *Builder) *Builder { return b.ByCompute("job-1", "Nightly", "batch", "j-9") }, "job-1", trace.ActorCompute},
		{"system", func(b *Builder) *Builder { return b.BySystem("") }, "system", trace.ActorSystem},
		{"explicit", func(b *Builder) *Builder { return b.By(trace.NewExternal("stripe", "Stripe")) }, "stripe", trace.ActorExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.build(c.Trace("x", "")).Build()
			require.NoError(t, err)
			require.NotNil(t, e.Actor)
			assert.Equal(t, tt.wantID, e.Actor.ID)
			assert.Equal(t, tt.wantType, e.Actor.Type)
		})
	}
}

func TestBuilder_Objects(t *testing.T) {
	c, _ := newTestClient()

	e, err := c.Trace("order.created", "").
		AffectingOrder("1001", value.Object{"total": value.Float(99.5)}).
		AffectingCustomer("c-7", nil, Named("Ann")).
		AffectingInventory("SKU-1", trace.Ptr(int64(10)), trace.Ptr(int64(8))).
		AffectingObject(trace.ObjectSupplier, "sup-1", Metadata(value.Object{"tier": value.String("gold")})).
		AffectingOrder("1001", nil).
		Build()
	require.NoError(t, err)
	require.Len(t, e.Objects, 4, "duplicate order is ignored")

	order := e.Objects[0]
	assert.Equal(t, "order-1001", order.ID)
	assert.Equal(t, trace.ObjectOrder, order.Type)
	assert.Equal(t, "1001", *order.ExternalID)
	assert.Nil(t, order.StateBefore)
	assert.Equal(t, value.Object{"total": value.Float(99.5)}, order.StateAfter)

	customer := e.Objects[1]
	assert.Equal(t, "customer-c-7", customer.ID)
	assert.Equal(t, "Ann", *customer.Name)
	assert.Nil(t, customer.StateAfter)

	inv := e.Objects[2]
	assert.Equal(t, "inventory-SKU-1", inv.ID)
	assert.Equal(t, value.Object{"quantity": value.Int(10)}, inv.StateBefore)
	assert.Equal(t, value.Object{"quantity": value.Int(8)}, inv.StateAfter)

	sup := e.Objects[3]
	assert.Nil(t, sup.ExternalID)
	assert.Equal(t, value.Object{"tier": value.String("gold")}, sup.Metadata)
}

func TestBuilder_InvalidObject(t *testing.T) {
	c, _ := newTestClient()

	_, err := c.Trace("x", "").AffectingObject(trace.ObjectOrder, "").Build()
	assert.Error(t, err)

	_, err = c.Trace("x", "").AffectingObject("planet", "p-1").Build()
	assert.ErrorContains(t, err, "planet")
}

func TestBuilder_Decision(t *testing.T) {
	c, _ := newTestClient()

	e, err := c.Trace("inventory.restock_ordered", "").
		Because("Stock below threshold").
		WithContext(value.Object{"stock": value.Int(3)}).
		WithConstraints("budget <= 500").
		Considering(value.Object{"action": value.String("transfer")}).
		Rejected("wait", "stockout risk").
		WithConfidence(0.9).
		WithRisk("medium").
		RequiresApproval().
		ApprovedBy("manager").
		TriggeredBy("low_stock_alert", "evt-9").
		DependsOn("dec-a", "dec-b").
		Build()
	require.NoError(t, err)
	require.NotNil(t, e.Decision)

	d := e.Decision
	assert.Equal(t, "id-2", d.ID, "decision id comes from the client generator")
	assert.Equal(t, "inventory.restock_ordered", d.Action, "action defaults to event type")
	assert.Equal(t, "Stock below threshold", d.Reasoning)
	assert.Equal(t, value.Object{"stock": value.Int(3)}, d.Context)
	assert.Equal(t, []string{"budget <= 500"}, d.Constraints)
	assert.Equal(t, []value.Object{
		{"action": value.String("transfer")},
		{"action": value.String("wait")},
	}, d.Alternatives)
	assert.Equal(t, map[string]string{"wait": "stockout risk"}, d.RejectionReasons)
	assert.Equal(t, 0.9, *d.Confidence)
	assert.Equal(t, "medium", *d.RiskLevel)
	assert.True(t, d.RequiresApproval)
	assert.Equal(t, "manager", *d.ApprovedBy)
	assert.Equal(t, "low_stock_alert", *d.Trigger)
	assert.Equal(t, "evt-9", *d.TriggerEventID)
	assert.Equal(t, []string{"dec-a", "dec-b"}, d.DependsOn)
}

func TestBuilder_DecisionCreatedByAnySetter(t *testing.T) {
	c, _ := newTestClient()

	e, err := c.Trace("price.updated", "").WithRisk("low").WithAction("reprice").Build()
	require.NoError(t, err)
	require.NotNil(t, e.Decision)
	assert.Equal(t, "reprice", e.Decision.Action)
	assert.Empty(t, e.Decision.Reasoning)

	e, err = c.Trace("x", "").TriggeredBy("cron", "").Build()
	require.NoError(t, err)
	assert.Nil(t, e.Decision.TriggerEventID)
}

func TestBuilder_ConfidenceRange(t *testing.T) {
	c, _ := newTestClient()

	for _, conf := range []float64{0, 1} {
		_, err := c.Trace("x", "").WithConfidence(conf).Build()
		assert.NoError(t, err, "confidence %v", conf)
	}
	for _, conf := range []float64{-0.1, 1.5} {
		_, err := c.Trace("x", "").WithConfidence(conf).Build()
		assert.Error(t, err, "confidence %v", conf)
	}
}

func TestBuilder_Outcomes(t *testing.T) {
	c, _ := newTestClient()

	e, err := c.Trace("x", "").Failed("card declined", "E42").Build()
	require.NoError(t, err)
	assert.Equal(t, trace.OutcomeFailure, e.Outcome)
	assert.Equal(t, "card declined", *e.Error)
	assert.Equal(t, "E42", *e.OutcomeDetails)

	e, err = c.Trace("x", "").Failed("oops", "").Succeeded("").Build()
	require.NoError(t, err)
	assert.Equal(t, trace.OutcomeSuccess, e.Outcome)
	assert.Nil(t, e.Error, "later outcome clears error")
	assert.Nil(t, e.OutcomeDetails)

	e, err = c.Trace("x", "").Partial("2 of 3 shipped").Build()
	require.NoError(t, err)
	assert.Equal(t, trace.OutcomePartial, e.Outcome)

	e, err = c.Trace("x", "").Pending("").Build()
	require.NoError(t, err)
	assert.Equal(t, trace.OutcomePending, e.Outcome)

	_, err = c.Trace("x", "").WithOutcome("maybe", "").Build()
	assert.Error(t, err)
}

func TestBuilder_Metadata(t *testing.T) {
	c, _ := newTestClient()
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.FixedZone("X", 3600))

	e, err := c.Trace("x", "").
		WithDuration(2*time.Second).
		WithTags("vip", "", "rush", "vip").
		WithData("total", 99.5).
		WithData("items", []any{"a", "b"}).
		WithData("raw", value.Int(3)).
		WithSource("web", "10.0.0.1").
		WithCorrelation("corr-1").
		ChildOf("parent-1").
		At(at).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, e.Duration)
	assert.Equal(t, []string{"vip", "rush"}, e.Tags)
	assert.Equal(t, value.Object{
		"total": value.Float(99.5),
		"items": value.ArrayOf(value.String("a"), value.String("b")),
		"raw":   value.Int(3),
	}, e.Data)
	assert.Equal(t, "web", *e.SourceSystem)
	assert.Equal(t, "10.0.0.1", *e.SourceIP)
	assert.Equal(t, "corr-1", *e.CorrelationID)
	assert.Equal(t, "parent-1", *e.ParentEventID)
	assert.Equal(t, at.UTC(), e.Timestamp)
	assert.Equal(t, time.UTC, e.Timestamp.Location())

	e, err = c.Trace("x", "").WithSource("batch", "").Build()
	require.NoError(t, err)
	assert.Nil(t, e.SourceIP)
}

func TestBuilder_InvalidInputsReportFirstError(t *testing.T) {
	c, _ := newTestClient()

	_, err := c.Trace("x", "").
		WithData("ch", make(chan int)).
		WithDuration(-time.Second).
		Build()
	require.Error(t, err)
	assert.ErrorContains(t, err, `data "ch"`)
}

func TestBuilder_Record(t *testing.T) {
	c, saver := newTestClient()

	id, err := c.Trace("order.created", "").AffectingOrder("1", nil).Record(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	require.Len(t, saver.Events(), 1)
	assert.Equal(t, "order.created", saver.Last().EventType)

	_, err = c.Trace("x", "").WithConfidence(2).Record(context.Background())
	assert.Error(t, err)
	assert.Len(t, saver.Events(), 1, "invalid event is not saved")
}

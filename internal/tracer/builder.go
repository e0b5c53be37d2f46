package tracer

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/dtrace/internal/trace"
	"github.com/roach88/dtrace/internal/value"
)

// Builder assembles one TraceEvent through chained setters.
//
// Setters never fail on their own. The first invalid input is remembered
// and reported by Build or Record.
type Builder struct {
	client *Client
	event  *trace.TraceEvent
	err    error
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// decision returns the event's decision, creating one on first use. A new
// decision's action is the event type.
func (b *Builder) decision() *trace.DecisionTrace {
	if b.event.Decision == nil {
		d := trace.NewDecision(b.event.EventType, "")
		d.ID = b.client.ids.Generate()
		b.event.Decision = d
	}
	return b.event.Decision
}

// Actors

// By sets the actor who performed the action.
func (b *Builder) By(a *trace.Actor) *Builder {
	b.event.Actor = a
	return b
}

// ByUser sets a human user as the actor.
func (b *Builder) ByUser(id, name, email, role string) *Builder {
	return b.By(trace.NewUser(id, name, email, role))
}

// ByAI sets an AI agent as the actor.
func (b *Builder) ByAI(id, name, model, version string) *Builder {
	return b.By(trace.NewAIAgent(id, name, model, version))
}

// ByCompute sets an automated job as the actor.
func (b *Builder) ByCompute(id, name, serviceName, jobID string) *Builder {
	return b.By(trace.NewCompute(id, name, serviceName, jobID))
}

// BySystem sets the shared system actor.
func (b *Builder) BySystem(name string) *Builder {
	return b.By(trace.NewSystem(name))
}

// Objects

// ObjectOption configures an object added through AffectingObject and the
// typed shortcuts.
type ObjectOption func(*trace.TrackedObject)

// ExternalID sets the object's ID in the system that owns it.
func ExternalID(id string) ObjectOption {
	return func(o *trace.TrackedObject) {
		o.ExternalID = trace.Ptr(id)
	}
}

// Named sets the object's display name.
func Named(name string) ObjectOption {
	return func(o *trace.TrackedObject) {
		o.Name = trace.Ptr(name)
	}
}

// StateBefore records the object's state before the event.
func StateBefore(state value.Object) ObjectOption {
	return func(o *trace.TrackedObject) {
		o.StateBefore = state
	}
}

// StateAfter records the object's state after the event.
func StateAfter(state value.Object) ObjectOption {
	return func(o *trace.TrackedObject) {
		o.StateAfter = state
	}
}

// Metadata sets the object's metadata.
func Metadata(md value.Object) ObjectOption {
	return func(o *trace.TrackedObject) {
		o.Metadata = md
	}
}

// Affecting adds obj to the event. An object whose ID is already attached
// is ignored.
func (b *Builder) Affecting(obj trace.TrackedObject) *Builder {
	if obj.ID == "" {
		return b.fail(fmt.Errorf("affected %s object has no id", obj.Type))
	}
	if !obj.Type.Valid() {
		return b.fail(fmt.Errorf("object %s: invalid type %q", obj.ID, obj.Type))
	}
	if obj.Metadata == nil {
		obj.Metadata = value.Object{}
	}
	b.event.AddObject(obj)
	return b
}

// AffectingObject adds an object built from its type, ID and options.
func (b *Builder) AffectingObject(t trace.ObjectType, id string, opts ...ObjectOption) *Builder {
	obj := trace.TrackedObject{ID: id, Type: t, Metadata: value.Object{}}
	for _, opt := range opts {
		opt(&obj)
	}
	return b.Affecting(obj)
}

// affectingExternal adds an object whose tracked ID is "<type>-<externalID>".
// state, when non-nil, becomes the state after the event.
func (b *Builder) affectingExternal(t trace.ObjectType, externalID string, state value.Object, opts []ObjectOption) *Builder {
	base := []ObjectOption{ExternalID(externalID)}
	if state != nil {
		base = append(base, StateAfter(state))
	}
	return b.AffectingObject(t, string(t)+"-"+externalID, append(base, opts...)...)
}

// AffectingOrder adds the order with the given external ID.
func (b *Builder) AffectingOrder(orderID string, state value.Object, opts ...ObjectOption) *Builder {
	return b.affectingExternal(trace.ObjectOrder, orderID, state, opts)
}

// AffectingProduct adds the product with the given external ID.
func (b *Builder) AffectingProduct(productID string, state value.Object, opts ...ObjectOption) *Builder {
	return b.affectingExternal(trace.ObjectProduct, productID, state, opts)
}

// AffectingCustomer adds the customer with the given external ID.
func (b *Builder) AffectingCustomer(customerID string, state value.Object, opts ...ObjectOption) *Builder {
	return b.affectingExternal(trace.ObjectCustomer, customerID, state, opts)
}

// AffectingPayment adds the payment with the given external ID.
func (b *Builder) AffectingPayment(paymentID string, state value.Object, opts ...ObjectOption) *Builder {
	return b.affectingExternal(trace.ObjectPayment, paymentID, state, opts)
}

// AffectingShipment adds the shipment with the given external ID.
func (b *Builder) AffectingShipment(shipmentID string, state value.Object, opts ...ObjectOption) *Builder {
	return b.affectingExternal(trace.ObjectShipment, shipmentID, state, opts)
}

// AffectingInventory adds the inventory record for sku. Nil quantities leave
// the corresponding state absent.
func (b *Builder) AffectingInventory(sku string, before, after *int64, opts ...ObjectOption) *Builder {
	base := []ObjectOption{ExternalID(sku)}
	if before != nil {
		base = append(base, StateBefore(value.Object{"quantity": value.Int(*before)}))
	}
	if after != nil {
		base = append(base, StateAfter(value.Object{"quantity": value.Int(*after)}))
	}
	return b.AffectingObject(trace.ObjectInventory, "inventory-"+sku, append(base, opts...)...)
}

// Decisions

// Because records why the event happened. The decision's action defaults to
// the event type until WithAction sets it.
func (b *Builder) Because(reasoning string) *Builder {
	b.decision().Reasoning = reasoning
	return b
}

// WithAction sets the decision's action.
func (b *Builder) WithAction(action string) *Builder {
	b.decision().Action = action
	return b
}

// WithContext merges ctx into the decision context.
func (b *Builder) WithContext(ctx value.Object) *Builder {
	d := b.decision()
	for k, v := range ctx {
		d.Context[k] = v
	}
	return b
}

// WithConstraints appends business rules that applied to the decision.
func (b *Builder) WithConstraints(constraints ...string) *Builder {
	d := b.decision()
	d.Constraints = append(d.Constraints, constraints...)
	return b
}

// Considering appends alternatives that were evaluated.
func (b *Builder) Considering(alternatives ...value.Object) *Builder {
	d := b.decision()
	d.Alternatives = append(d.Alternatives, alternatives...)
	return b
}

// Rejected records an alternative action and why it was not taken.
func (b *Builder) Rejected(action, reason string) *Builder {
	d := b.decision()
	d.Alternatives = append(d.Alternatives, value.Object{"action": value.String(action)})
	d.RejectionReasons[action] = reason
	return b
}

// WithConfidence sets the decision confidence, which must lie in [0, 1].
func (b *Builder) WithConfidence(confidence float64) *Builder {
	if !(confidence >= 0 && confidence <= 1) {
		return b.fail(fmt.Errorf("confidence %v outside [0, 1]", confidence))
	}
	b.decision().Confidence = trace.Ptr(confidence)
	return b
}

// WithRisk sets the risk level, conventionally low, medium or high.
func (b *Builder) WithRisk(level string) *Builder {
	b.decision().RiskLevel = trace.Ptr(level)
	return b
}

// RequiresApproval marks the decision as needing sign-off.
func (b *Builder) RequiresApproval() *Builder {
	b.decision().RequiresApproval = true
	return b
}

// ApprovedBy records the ID of the approving actor.
func (b *Builder) ApprovedBy(actorID string) *Builder {
	b.decision().ApprovedBy = trace.Ptr(actorID)
	return b
}

// TriggeredBy records what prompted the decision. An empty eventID leaves
// the triggering event absent.
func (b *Builder) TriggeredBy(trigger, eventID string) *Builder {
	d := b.decision()
	d.Trigger = trace.Ptr(trigger)
	d.TriggerEventID = nil
	if eventID != "" {
		d.TriggerEventID = trace.Ptr(eventID)
	}
	return b
}

// DependsOn replaces the IDs of decisions this one builds on.
func (b *Builder) DependsOn(decisionIDs ...string) *Builder {
	d := b.decision()
	d.DependsOn = append([]string{}, decisionIDs...)
	return b
}

// Outcome

// WithOutcome sets the outcome and details and clears any error text.
// Empty details are left absent.
func (b *Builder) WithOutcome(o trace.Outcome, details string) *Builder {
	if !o.Valid() {
		return b.fail(fmt.Errorf("invalid outcome %q", o))
	}
	b.event.Outcome = o
	b.event.OutcomeDetails = nil
	if details != "" {
		b.event.OutcomeDetails = trace.Ptr(details)
	}
	b.event.Error = nil
	return b
}

// Succeeded marks the event successful.
func (b *Builder) Succeeded(details string) *Builder {
	return b.WithOutcome(trace.OutcomeSuccess, details)
}

// Failed marks the event failed with the given error text.
func (b *Builder) Failed(errText, details string) *Builder {
	b.WithOutcome(trace.OutcomeFailure, details)
	b.event.Error = trace.Ptr(errText)
	return b
}

// Partial marks the event partially completed.
func (b *Builder) Partial(details string) *Builder {
	return b.WithOutcome(trace.OutcomePartial, details)
}

// Pending marks the event as awaiting completion.
func (b *Builder) Pending(details string) *Builder {
	return b.WithOutcome(trace.OutcomePending, details)
}

// Event metadata

// WithDuration sets how long the action took.
func (b *Builder) WithDuration(d time.Duration) *Builder {
	if d < 0 {
		return b.fail(fmt.Errorf("negative duration %v", d))
	}
	b.event.Duration = d
	return b
}

// WithTags adds tags, ignoring duplicates and empty strings.
func (b *Builder) WithTags(tags ...string) *Builder {
	for _, tag := range tags {
		if tag != "" {
			b.event.AddTags(tag)
		}
	}
	return b
}

// WithData sets one custom data field. v may be a value.Value or any plain
// Go tree accepted by value.FromAny.
func (b *Builder) WithData(key string, v any) *Builder {
	conv, err := value.FromAny(v)
	if err != nil {
		return b.fail(fmt.Errorf("data %q: %w", key, err))
	}
	b.event.Data[key] = conv
	return b
}

// WithSource records the originating system and, when non-empty, its IP.
func (b *Builder) WithSource(system, ip string) *Builder {
	b.event.SourceSystem = trace.Ptr(system)
	b.event.SourceIP = nil
	if ip != "" {
		b.event.SourceIP = trace.Ptr(ip)
	}
	return b
}

// WithCorrelation groups the event with others sharing correlationID.
func (b *Builder) WithCorrelation(correlationID string) *Builder {
	b.event.CorrelationID = trace.Ptr(correlationID)
	return b
}

// ChildOf links the event to its parent.
func (b *Builder) ChildOf(parentEventID string) *Builder {
	b.event.ParentEventID = trace.Ptr(parentEventID)
	return b
}

// At overrides the event timestamp.
func (b *Builder) At(ts time.Time) *Builder {
	b.event.Timestamp = ts.UTC()
	return b
}

// Build returns the assembled event without recording it.
func (b *Builder) Build() (*trace.TraceEvent, error) {
	if b.err != nil {
		return nil, fmt.Errorf("build %s event: %w", b.event.EventType, b.err)
	}
	return b.event, nil
}

// Record builds the event and saves it, returning the stored event ID.
func (b *Builder) Record(ctx context.Context) (string, error) {
	e, err := b.Build()
	if err != nil {
		return "", err
	}
	return b.client.saver.SaveEvent(ctx, e)
}

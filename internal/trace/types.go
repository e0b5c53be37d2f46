package trace

import (
	"time"

	"github.com/roach88/dtrace/internal/value"
)

// Actor is the entity credited with performing a traced action.
// Actors are shared across events by ID; saving an actor overwrites any
// earlier record under the same ID.
type Actor struct {
	ID       string       `json:"id"`
	Type     ActorType    `json:"type"`
	Name     string       `json:"name"`
	Metadata value.Object `json:"metadata"`

	// AI agents
	Model   *string `json:"model,omitempty"`
	Version *string `json:"version,omitempty"`

	// Users
	Email *string `json:"email,omitempty"`
	Role  *string `json:"role,omitempty"`

	// Compute jobs
	ServiceName *string `json:"service_name,omitempty"`
	JobID       *string `json:"job_id,omitempty"`
}

// TrackedObject is a business entity affected by an event.
//
// StateBefore and StateAfter describe the object as seen by one event; they
// are stored per event, not on the shared object record. A nil state means
// absent, an empty Object means "known to be empty".
type TrackedObject struct {
	ID         string       `json:"id"`
	Type       ObjectType   `json:"type"`
	ExternalID *string      `json:"external_id,omitempty"`
	Name       *string      `json:"name,omitempty"`
	Metadata   value.Object `json:"metadata"`

	StateBefore value.Object `json:"state_before,omitempty"`
	StateAfter  value.Object `json:"state_after,omitempty"`
}

// DecisionTrace captures the reasoning behind one event.
type DecisionTrace struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Reasoning string `json:"reasoning"`

	Context     value.Object `json:"context"`
	Constraints []string     `json:"constraints"`

	Alternatives     []value.Object    `json:"alternatives"`
	RejectionReasons map[string]string `json:"rejection_reasons"`

	Confidence       *float64 `json:"confidence,omitempty"` // 0.0 to 1.0
	RiskLevel        *string  `json:"risk_level,omitempty"` // conventionally low/medium/high
	RequiresApproval bool     `json:"requires_approval"`
	ApprovedBy       *string  `json:"approved_by,omitempty"` // approving actor ID

	Trigger        *string `json:"trigger,omitempty"`
	TriggerEventID *string `json:"trigger_event_id,omitempty"`

	DependsOn []string `json:"depends_on"` // related decision IDs
}

// TimestampLayout is the stored text form of event timestamps. It is fixed
// width and always UTC, so text order equals time order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// TraceEvent is the root entity: what happened, who did it, why, and to what.
type TraceEvent struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"` // stored as UTC; the Location is not kept
	Duration    time.Duration `json:"duration"`  // nanoseconds in JSON
	EventType   string        `json:"event_type"`
	Description string        `json:"description"`

	Actor    *Actor          `json:"actor,omitempty"`
	Decision *DecisionTrace  `json:"decision,omitempty"`
	Objects  []TrackedObject `json:"objects"`

	Outcome        Outcome `json:"outcome"`
	OutcomeDetails *string `json:"outcome_details,omitempty"`
	Error          *string `json:"error,omitempty"`

	Data value.Object `json:"data"`
	Tags []string     `json:"tags"`

	ParentEventID *string `json:"parent_event_id,omitempty"`
	CorrelationID *string `json:"correlation_id,omitempty"`

	SourceSystem *string `json:"source_system,omitempty"`
	SourceIP     *string `json:"source_ip,omitempty"`
}

// NewEvent creates an event with a fresh ID, the current UTC time, and a
// successful outcome.
func NewEvent(eventType, description string) *TraceEvent {
	return &TraceEvent{
		ID:          NewEventID(),
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		Description: description,
		Objects:     []TrackedObject{},
		Outcome:     OutcomeSuccess,
		Data:        value.Object{},
		Tags:        []string{},
	}
}

// NewDecision creates an empty decision with a fresh ID.
func NewDecision(action, reasoning string) *DecisionTrace {
	return &DecisionTrace{
		ID:               NewDecisionID(),
		Action:           action,
		Reasoning:        reasoning,
		Context:          value.Object{},
		Constraints:      []string{},
		Alternatives:     []value.Object{},
		RejectionReasons: map[string]string{},
		DependsOn:        []string{},
	}
}

// EnsureID assigns a fresh ID if the event has none and returns the ID.
func (e *TraceEvent) EnsureID() string {
	if e.ID == "" {
		e.ID = NewEventID()
	}
	return e.ID
}

// AddObject appends obj unless an object with the same ID is already present.
// Reports whether the object was added.
func (e *TraceEvent) AddObject(obj TrackedObject) bool {
	for _, existing := range e.Objects {
		if existing.ID == obj.ID {
			return false
		}
	}
	e.Objects = append(e.Objects, obj)
	return true
}

// AddTags adds tags that are not already present, keeping first-seen order.
func (e *TraceEvent) AddTags(tags ...string) {
	for _, tag := range tags {
		if !e.HasTag(tag) {
			e.Tags = append(e.Tags, tag)
		}
	}
}

// HasTag reports whether the event carries tag.
func (e *TraceEvent) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NewUser creates a human user actor. Empty email or role are left absent.
func NewUser(id, name, email, role string) *Actor {
	return &Actor{
		ID:       id,
		Type:     ActorUser,
		Name:     name,
		Metadata: value.Object{},
		Email:    optional(email),
		Role:     optional(role),
	}
}

// NewAIAgent creates an AI agent actor.
func NewAIAgent(id, name, model, version string) *Actor {
	return &Actor{
		ID:       id,
		Type:     ActorAIAgent,
		Name:     name,
		Metadata: value.Object{},
		Model:    optional(model),
		Version:  optional(version),
	}
}

// NewCompute creates an automated compute job actor.
func NewCompute(id, name, serviceName, jobID string) *Actor {
	return &Actor{
		ID:          id,
		Type:        ActorCompute,
		Name:        name,
		Metadata:    value.Object{},
		ServiceName: optional(serviceName),
		JobID:       optional(jobID),
	}
}

// NewSystem creates the system actor. All system actions share the ID "system".
func NewSystem(name string) *Actor {
	if name == "" {
		name = "system"
	}
	return &Actor{ID: "system", Type: ActorSystem, Name: name, Metadata: value.Object{}}
}

// NewExternal creates an external service actor.
func NewExternal(id, name string) *Actor {
	return &Actor{ID: id, Type: ActorExternal, Name: name, Metadata: value.Object{}}
}

// optional maps "" to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

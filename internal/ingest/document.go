package ingest

import (
	"fmt"
	"math"
	"time"

	"github.com/roach88/dtrace/internal/trace"
	"github.com/roach88/dtrace/internal/value"
)

// document mirrors schema.cue. Optional scalars are pointers so absent
// fields stay absent on the event.
type document struct {
	Events []eventDoc `yaml:"events"`
}

type eventDoc struct {
	ID             string         `yaml:"id"`
	Timestamp      string         `yaml:"timestamp"`
	EventType      string         `yaml:"event_type"`
	Description    string         `yaml:"description"`
	Duration       float64        `yaml:"duration"` // seconds
	Actor          *actorDoc      `yaml:"actor"`
	Decision       *decisionDoc   `yaml:"decision"`
	Objects        []objectDoc    `yaml:"objects"`
	Outcome        string         `yaml:"outcome"`
	OutcomeDetails *string        `yaml:"outcome_details"`
	Error          *string        `yaml:"error"`
	Data           map[string]any `yaml:"data"`
	Tags           []string       `yaml:"tags"`
	ParentEventID  *string        `yaml:"parent_event_id"`
	CorrelationID  *string        `yaml:"correlation_id"`
	SourceSystem   *string        `yaml:"source_system"`
	SourceIP       *string        `yaml:"source_ip"`
}

type actorDoc struct {
	ID          string         `yaml:"id"`
	Type        string         `yaml:"type"`
	Name        string         `yaml:"name"`
	Metadata    map[string]any `yaml:"metadata"`
	Model       *string        `yaml:"model"`
	Version     *string        `yaml:"version"`
	Email       *string        `yaml:"email"`
	Role        *string        `yaml:"role"`
	ServiceName *string        `yaml:"service_name"`
	JobID       *string        `yaml:"job_id"`
}

type decisionDoc struct {
	ID               string            `yaml:"id"`
	Action           string            `yaml:"action"`
	Reasoning        string            `yaml:"reasoning"`
	Context          map[string]any    `yaml:"context"`
	Constraints      []string          `yaml:"constraints"`
	Alternatives     []map[string]any  `yaml:"alternatives"`
	RejectionReasons map[string]string `yaml:"rejection_reasons"`
	Confidence       *float64          `yaml:"confidence"`
	RiskLevel        *string           `yaml:"risk_level"`
	RequiresApproval bool              `yaml:"requires_approval"`
	ApprovedBy       *string           `yaml:"approved_by"`
	Trigger          *string           `yaml:"trigger"`
	TriggerEventID   *string           `yaml:"trigger_event_id"`
	DependsOn        []string          `yaml:"depends_on"`
}

type objectDoc struct {
	ID          string         `yaml:"id"`
	Type        string         `yaml:"type"`
	ExternalID  *string        `yaml:"external_id"`
	Name        *string        `yaml:"name"`
	Metadata    map[string]any `yaml:"metadata"`
	StateBefore map[string]any `yaml:"state_before"`
	StateAfter  map[string]any `yaml:"state_after"`
}

func (d eventDoc) toEvent(now time.Time) (*trace.TraceEvent, error) {
	e := &trace.TraceEvent{
		ID:             d.ID,
		Timestamp:      now,
		EventType:      d.EventType,
		Description:    d.Description,
		Objects:        make([]trace.TrackedObject, 0, len(d.Objects)),
		Outcome:        trace.OutcomeSuccess,
		OutcomeDetails: d.OutcomeDetails,
		Error:          d.Error,
		Tags:           []string{},
		ParentEventID:  d.ParentEventID,
		CorrelationID:  d.CorrelationID,
		SourceSystem:   d.SourceSystem,
		SourceIP:       d.SourceIP,
	}
	if e.ID == "" {
		e.ID = trace.NewEventID()
	}
	if d.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, d.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("timestamp: %w", err)
		}
		e.Timestamp = ts.UTC()
	}
	if d.Outcome != "" {
		e.Outcome = trace.Outcome(d.Outcome)
	}

	secs := d.Duration * float64(time.Second)
	if secs > math.MaxInt64 {
		return nil, fmt.Errorf("duration %vs overflows", d.Duration)
	}
	e.Duration = time.Duration(math.Round(secs))

	var err error
	if e.Data, err = value.ObjectFromMap(d.Data); err != nil {
		return nil, fmt.Errorf("data%w", err)
	}
	e.AddTags(d.Tags...)

	if d.Actor != nil {
		if e.Actor, err = d.Actor.toActor(); err != nil {
			return nil, fmt.Errorf("actor: %w", err)
		}
	}
	if d.Decision != nil {
		if e.Decision, err = d.Decision.toDecision(); err != nil {
			return nil, fmt.Errorf("decision: %w", err)
		}
	}
	for i, od := range d.Objects {
		obj, err := od.toObject()
		if err != nil {
			return nil, fmt.Errorf("objects[%d]: %w", i, err)
		}
		e.AddObject(obj)
	}
	return e, nil
}

func (d *actorDoc) toActor() (*trace.Actor, error) {
	md, err := value.ObjectFromMap(d.Metadata)
	if err != nil {
		return nil, fmt.Errorf("metadata%w", err)
	}
	return &trace.Actor{
		ID:          d.ID,
		Type:        trace.ActorType(d.Type),
		Name:        d.Name,
		Metadata:    md,
		Model:       d.Model,
		Version:     d.Version,
		Email:       d.Email,
		Role:        d.Role,
		ServiceName: d.ServiceName,
		JobID:       d.JobID,
	}, nil
}

func (d *decisionDoc) toDecision() (*trace.DecisionTrace, error) {
	dec := trace.NewDecision(d.Action, d.Reasoning)
	if d.ID != "" {
		dec.ID = d.ID
	}

	var err error
	if dec.Context, err = value.ObjectFromMap(d.Context); err != nil {
		return nil, fmt.Errorf("context%w", err)
	}
	for i, alt := range d.Alternatives {
		obj, err := value.ObjectFromMap(alt)
		if err != nil {
			return nil, fmt.Errorf("alternatives[%d]%w", i, err)
		}
		dec.Alternatives = append(dec.Alternatives, obj)
	}
	dec.Constraints = append(dec.Constraints, d.Constraints...)
	dec.DependsOn = append(dec.DependsOn, d.DependsOn...)
	for k, v := range d.RejectionReasons {
		dec.RejectionReasons[k] = v
	}

	dec.Confidence = d.Confidence
	dec.RiskLevel = d.RiskLevel
	dec.RequiresApproval = d.RequiresApproval
	dec.ApprovedBy = d.ApprovedBy
	dec.Trigger = d.Trigger
	dec.TriggerEventID = d.TriggerEventID
	return dec, nil
}

func (d objectDoc) toObject() (trace.TrackedObject, error) {
	obj := trace.TrackedObject{
		ID:         d.ID,
		Type:       trace.ObjectType(d.Type),
		ExternalID: d.ExternalID,
		Name:       d.Name,
	}

	var err error
	if obj.Metadata, err = value.ObjectFromMap(d.Metadata); err != nil {
		return obj, fmt.Errorf("metadata%w", err)
	}
	if d.StateBefore != nil {
		if obj.StateBefore, err = value.ObjectFromMap(d.StateBefore); err != nil {
			return obj, fmt.Errorf("state_before%w", err)
		}
	}
	if d.StateAfter != nil {
		if obj.StateAfter, err = value.ObjectFromMap(d.StateAfter); err != nil {
			return obj, fmt.Errorf("state_after%w", err)
		}
	}
	return obj, nil
}

package tracer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/dtrace/internal/trace"
	"github.com/roach88/dtrace/internal/value"
)

// Saver persists a finished event. *store.Store satisfies it.
type Saver interface {
	SaveEvent(ctx context.Context, e *trace.TraceEvent) (string, error)
}

// Client starts trace builders and hands finished events to a Saver.
//
// A Client is safe for concurrent use as long as SetDefaultActor is not
// called concurrently with Trace. Builders are not safe for concurrent use.
type Client struct {
	saver        Saver
	defaultActor *trace.Actor
	ids          IDGenerator
	now          func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithDefaultActor sets the actor attached to every new builder.
// Builders can still override it with By and friends.
func WithDefaultActor(a *trace.Actor) Option {
	return func(c *Client) {
		c.defaultActor = a
	}
}

// WithIDGenerator replaces the UUIDv7 generator used for event and
// decision IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Client) {
		c.ids = g
	}
}

// WithClock replaces time.Now as the source of event timestamps and span
// durations.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client that records through saver.
func New(saver Saver, opts ...Option) *Client {
	c := &Client{
		saver: saver,
		ids:   UUIDv7Generator{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetDefaultActor changes the actor attached to builders created afterwards.
// A nil actor clears the default.
func (c *Client) SetDefaultActor(a *trace.Actor) {
	c.defaultActor = a
}

// Trace starts building an event of the given type.
func (c *Client) Trace(eventType, description string) *Builder {
	e := &trace.TraceEvent{
		ID:          c.ids.Generate(),
		Timestamp:   c.now().UTC(),
		EventType:   eventType,
		Description: description,
		Actor:       c.defaultActor,
		Objects:     []trace.TrackedObject{},
		Outcome:     trace.OutcomeSuccess,
		Data:        value.Object{},
		Tags:        []string{},
	}
	return &Builder{client: c, event: e}
}

// Span traces the execution of fn.
//
// The event is stamped with the start time and the elapsed duration. If fn
// returns an error the event is marked failed with the error text. The event
// is recorded whether or not fn succeeds; the returned error joins fn's error
// with any recording error.
func (c *Client) Span(ctx context.Context, eventType, description string, fn func(b *Builder) error) (string, error) {
	b := c.Trace(eventType, description)
	start := c.now()
	b.event.Timestamp = start.UTC()

	fnErr := fn(b)
	if fnErr != nil {
		b.Failed(fnErr.Error(), "")
	}
	b.event.Duration = c.now().Sub(start)

	id, err := b.Record(ctx)
	if err != nil {
		slog.Warn("span record failed", "event_type", eventType, "error", err)
	}
	return id, errors.Join(fnErr, err)
}

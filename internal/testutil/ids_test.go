package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtrace/internal/trace"
)

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("evt")
	assert.Equal(t, "evt-1", gen.Generate())
	assert.Equal(t, "evt-2", gen.Generate())

	assert.Equal(t, "id-1", NewSequenceGenerator("").Generate())
}

func TestRecordingSaver(t *testing.T) {
	s := &RecordingSaver{}
	assert.Nil(t, s.Last())

	e := trace.NewEvent("order.created", "first")
	id, err := s.SaveEvent(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, e.ID, id)

	noID := &trace.TraceEvent{EventType: "order.updated"}
	id, err = s.SaveEvent(context.Background(), noID)
	require.NoError(t, err)
	assert.NotEmpty(t, id, "missing id is generated")

	assert.Len(t, s.Events(), 2)
	assert.Same(t, noID, s.Last())
}

func TestRecordingSaver_Errors(t *testing.T) {
	boom := errors.New("disk full")
	s := &RecordingSaver{Err: boom}
	_, err := s.SaveEvent(context.Background(), trace.NewEvent("x", ""))
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&RecordingSaver{}).SaveEvent(ctx, trace.NewEvent("x", ""))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Events())
}

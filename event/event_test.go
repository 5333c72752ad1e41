package event_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/context-protocol/sdk/event"
	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/property"
)

func TestRecorder(t *testing.T) {
	rec := event.NewRecorder()
	ctx := context.Background()

	rec.Emit(ctx, event.EntityAdded{Name: "Organization"})
	rec.Emit(ctx, event.StatusUpdated{OldStatus: "pending", NewStatus: "accepted"})

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "entity_added", events[0].EventName())
	assert.Equal(t, "status_updated", events[1].EventName())

	rec.Reset()
	assert.Empty(t, rec.Events())
}

func TestFanout(t *testing.T) {
	a := event.NewRecorder()
	b := event.NewRecorder()
	sink := event.Fanout(a, b)

	sink.Emit(context.Background(), event.DocumentAdded{URL: "https://example.com"})

	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)
}

func TestDiscard(t *testing.T) {
	// Must not panic with a nil context value or any event type.
	event.Discard.Emit(context.Background(), event.EdgeAdded{})
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := event.NewSlogSink(logger)

	propID := identity.DeriveID([]byte("prop"))
	sink.Emit(context.Background(), event.PropertyAdded{
		PropertyID:   propID,
		Name:         "Name",
		Type:         property.TypeString,
		EntityTypeID: identity.DeriveID([]byte("type")),
	})

	out := buf.String()
	assert.Contains(t, out, "graph event")
	assert.Contains(t, out, "event=property_added")
	assert.Contains(t, out, propID.String())
	assert.Contains(t, out, "type=string")
}

func TestSlogSinkNilLoggerDefaults(t *testing.T) {
	sink := event.NewSlogSink(nil)
	require.NotNil(t, sink)
}

func TestOTelSinkSpanEvents(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	sink, err := event.NewOTelSink(tracer, nil)
	require.NoError(t, err)

	ctx, span := tracer.Start(context.Background(), "mutate")
	sink.Emit(ctx, event.StatusUpdated{
		RelationID: identity.DeriveID([]byte("rel")),
		OldStatus:  "pending",
		NewStatus:  "accepted",
	})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "status_updated", spans[0].Events()[0].Name)
}

func TestOTelSinkNoSpanNoPanic(t *testing.T) {
	sink, err := event.NewOTelSink(nil, nil)
	require.NoError(t, err)

	// No tracer, no meter, no active span: Emit is a no-op.
	sink.Emit(context.Background(), event.EdgeAdded{})
}

package event

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OTelSink publishes events as OpenTelemetry span events and counters.
//
// Each emitted event becomes a span event on the span carried by the
// context (if any), plus an increment of the graph.events counter with
// the event name as an attribute. The sink never fails an emitting
// operation: instrument errors surface at construction time only.
type OTelSink struct {
	tracer  trace.Tracer
	counter metric.Int64Counter

	statusCounter metric.Int64Counter
}

// NewOTelSink creates a sink from a tracer and a meter. Either may be nil
// to disable the corresponding signal.
func NewOTelSink(tracer trace.Tracer, meter metric.Meter) (*OTelSink, error) {
	s := &OTelSink{tracer: tracer}

	if meter != nil {
		var err error

		s.counter, err = meter.Int64Counter(
			"graph.events",
			metric.WithDescription("Number of graph state-change events emitted"),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("create event counter: %w", err)
		}

		s.statusCounter, err = meter.Int64Counter(
			"graph.relation.transitions",
			metric.WithDescription("Number of relation lifecycle transitions"),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("create transition counter: %w", err)
		}
	}

	return s, nil
}

// Emit records the event on the current span and increments counters.
func (s *OTelSink) Emit(ctx context.Context, e Event) {
	attrs := s.attributes(e)

	if s.tracer != nil {
		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			span.AddEvent(e.EventName(), trace.WithAttributes(attrs...))
		}
	}

	if s.counter != nil {
		s.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", e.EventName())))
	}

	if su, ok := e.(StatusUpdated); ok && s.statusCounter != nil {
		s.statusCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", su.OldStatus),
			attribute.String("to", su.NewStatus),
		))
	}
}

// attributes flattens an event into span attributes.
func (s *OTelSink) attributes(e Event) []attribute.KeyValue {
	switch ev := e.(type) {
	case EntityAdded:
		return []attribute.KeyValue{
			attribute.String("type_id", ev.TypeID.String()),
			attribute.String("name", ev.Name),
		}
	case PropertyAdded:
		return []attribute.KeyValue{
			attribute.String("property_id", ev.PropertyID.String()),
			attribute.String("name", ev.Name),
			attribute.String("type", ev.Type.String()),
		}
	case PropertyActivityChanged:
		return []attribute.KeyValue{
			attribute.String("property_id", ev.PropertyID.String()),
			attribute.Bool("active", ev.Active),
		}
	case PropertyUpdated:
		return []attribute.KeyValue{
			attribute.String("entity_id", ev.EntityID.String()),
			attribute.String("property_id", ev.PropertyID.String()),
		}
	case DocumentAdded:
		return []attribute.KeyValue{
			attribute.String("entity_id", ev.EntityID.String()),
			attribute.String("document_id", ev.DocumentID.String()),
			attribute.String("url", ev.URL),
		}
	case DocumentDeactivated:
		return []attribute.KeyValue{
			attribute.String("entity_id", ev.EntityID.String()),
			attribute.String("document_id", ev.DocumentID.String()),
		}
	case EdgeAdded:
		return []attribute.KeyValue{
			attribute.String("relation_id", ev.RelationID.String()),
			attribute.String("edge_type_id", ev.EdgeTypeID.String()),
		}
	case StatusUpdated:
		return []attribute.KeyValue{
			attribute.String("relation_id", ev.RelationID.String()),
			attribute.String("old_status", ev.OldStatus),
			attribute.String("new_status", ev.NewStatus),
		}
	default:
		return nil
	}
}

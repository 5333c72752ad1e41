package event

import (
	"context"
	"log/slog"
	"sync"
)

// SlogSink logs each event at Info level through a slog.Logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink backed by the given logger.
// If logger is nil, slog.Default() is used.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Emit logs the event with its name and type-specific fields.
func (s *SlogSink) Emit(ctx context.Context, e Event) {
	attrs := []any{slog.String("event", e.EventName())}

	switch ev := e.(type) {
	case EntityAdded:
		attrs = append(attrs,
			slog.String("type_id", ev.TypeID.String()),
			slog.String("name", ev.Name))
		if !ev.SourceTypeID.IsZero() {
			attrs = append(attrs,
				slog.String("source_type_id", ev.SourceTypeID.String()),
				slog.String("target_type_id", ev.TargetTypeID.String()))
		}
	case PropertyAdded:
		attrs = append(attrs,
			slog.String("property_id", ev.PropertyID.String()),
			slog.String("name", ev.Name),
			slog.String("type", ev.Type.String()),
			slog.String("entity_type_id", ev.EntityTypeID.String()))
	case PropertyActivityChanged:
		attrs = append(attrs,
			slog.String("property_id", ev.PropertyID.String()),
			slog.Bool("active", ev.Active))
	case PropertyUpdated:
		attrs = append(attrs,
			slog.String("entity_id", ev.EntityID.String()),
			slog.String("property_id", ev.PropertyID.String()),
			slog.Int("value_len", len(ev.Value)),
			slog.String("actor", string(ev.Actor)))
	case DocumentAdded:
		attrs = append(attrs,
			slog.String("entity_id", ev.EntityID.String()),
			slog.String("document_id", ev.DocumentID.String()),
			slog.String("url", ev.URL),
			slog.String("actor", string(ev.Actor)))
	case DocumentDeactivated:
		attrs = append(attrs,
			slog.String("entity_id", ev.EntityID.String()),
			slog.String("document_id", ev.DocumentID.String()),
			slog.String("actor", string(ev.Actor)))
	case EdgeAdded:
		attrs = append(attrs,
			slog.String("relation_id", ev.RelationID.String()),
			slog.String("edge_type_id", ev.EdgeTypeID.String()),
			slog.String("source_id", ev.SourceID.String()),
			slog.String("target_id", ev.TargetID.String()))
	case StatusUpdated:
		attrs = append(attrs,
			slog.String("relation_id", ev.RelationID.String()),
			slog.String("old_status", ev.OldStatus),
			slog.String("new_status", ev.NewStatus),
			slog.String("actor", string(ev.Actor)))
	}

	s.logger.InfoContext(ctx, "graph event", attrs...)
}

// Recorder captures events for inspection, primarily in tests.
// Thread-safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends the event to the recorded list.
func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset clears the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

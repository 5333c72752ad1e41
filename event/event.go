package event

import (
	"context"

	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/property"
)

// Event is a state-change notification. Each mutating operation on the
// registry or a node emits exactly one event after its mutation applies.
type Event interface {
	// EventName returns the stable event name used for logging and metrics.
	EventName() string
}

// EntityAdded records the registration of a node type or edge type.
// SourceTypeID and TargetTypeID are zero for node types. For an edge type
// that gains an additional allowed path, one EntityAdded is emitted per
// registered path.
type EntityAdded struct {
	TypeID       identity.ID
	Name         string
	SourceTypeID identity.ID
	TargetTypeID identity.ID
}

// PropertyAdded records a property declared on an entity type.
type PropertyAdded struct {
	PropertyID   identity.ID
	Name         string
	Type         property.Type
	EntityTypeID identity.ID
}

// PropertyActivityChanged records a property being activated or retired.
type PropertyActivityChanged struct {
	PropertyID   identity.ID
	EntityTypeID identity.ID
	Active       bool
}

// PropertyUpdated records a raw property value written to an entity.
type PropertyUpdated struct {
	EntityID   identity.ID
	PropertyID identity.ID
	Value      []byte
	Actor      identity.Identity
}

// DocumentAdded records a document reference attached to an entity.
type DocumentAdded struct {
	EntityID   identity.ID
	DocumentID identity.ID
	URL        string
	Actor      identity.Identity
}

// DocumentDeactivated records a document being forgotten. Forgetting an
// already-forgotten document re-emits this event.
type DocumentDeactivated struct {
	EntityID   identity.ID
	DocumentID identity.ID
	Actor      identity.Identity
}

// EdgeAdded records a new pending relation between two nodes.
type EdgeAdded struct {
	RelationID identity.ID
	EdgeTypeID identity.ID
	SourceID   identity.ID
	TargetID   identity.ID
}

// StatusUpdated records a relation lifecycle transition.
// Statuses are carried as their canonical string names.
type StatusUpdated struct {
	RelationID identity.ID
	OldStatus  string
	NewStatus  string
	Actor      identity.Identity
}

func (EntityAdded) EventName() string             { return "entity_added" }
func (PropertyAdded) EventName() string           { return "property_added" }
func (PropertyActivityChanged) EventName() string { return "property_activity_changed" }
func (PropertyUpdated) EventName() string         { return "property_updated" }
func (DocumentAdded) EventName() string           { return "document_added" }
func (DocumentDeactivated) EventName() string     { return "document_deactivated" }
func (EdgeAdded) EventName() string               { return "edge_added" }
func (StatusUpdated) EventName() string           { return "status_updated" }

// Sink receives emitted events. Implementations must be safe for
// concurrent use; Emit must not block the emitting operation for long.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// Discard is a Sink that drops every event. It is the default sink for
// registries and nodes constructed without one.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(context.Context, Event) {}

// Fanout returns a Sink that forwards each event to every given sink in
// order.
func Fanout(sinks ...Sink) Sink {
	return fanout(sinks)
}

type fanout []Sink

func (f fanout) Emit(ctx context.Context, e Event) {
	for _, s := range f {
		s.Emit(ctx, e)
	}
}

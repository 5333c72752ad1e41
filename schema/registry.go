package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/context-protocol/sdk"
	"github.com/context-protocol/sdk/event"
	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/property"
)

// Sentinel errors for registry operations. Each also matches the
// corresponding sdk sentinel via errors.Is.
var (
	// ErrTypeNotRegistered indicates the referenced entity type is not in
	// the registry.
	ErrTypeNotRegistered = fmt.Errorf("entity type not registered: %w", sdk.ErrNotFound)

	// ErrPropertyNotRegistered indicates the referenced property is not
	// declared on the given entity type.
	ErrPropertyNotRegistered = fmt.Errorf("property not registered: %w", sdk.ErrNotFound)

	// ErrInvalidTypePair indicates an edge type registration referencing an
	// unregistered source or target type.
	ErrInvalidTypePair = fmt.Errorf("invalid edge endpoint pair: %w", sdk.ErrInvalidArgument)

	// ErrNotAdministrator indicates a mutating call from an identity other
	// than the registry administrator.
	ErrNotAdministrator = fmt.Errorf("caller is not the registry administrator: %w", sdk.ErrUnauthorized)
)

// Registry is the schema catalogue. It is constructed once with the
// registry's own identity (which scopes all derived ids) and the
// administrator identity (which gates all mutation), then passed by
// handle to every dependent node constructor.
//
// Thread-safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	identity identity.Identity
	admin    identity.Identity

	logger *slog.Logger
	events event.Sink

	types map[identity.ID]*typeEntry
	order []identity.ID
}

// typeEntry holds a definition plus its mutable attachments.
type typeEntry struct {
	def       TypeDefinition
	paths     []EdgePath
	props     map[identity.ID]*PropertyDefinition
	propOrder []identity.ID
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a custom logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEventSink sets the sink that receives registry events.
// If not provided, events are discarded.
func WithEventSink(sink event.Sink) Option {
	return func(r *Registry) {
		if sink != nil {
			r.events = sink
		}
	}
}

// NewRegistry creates an empty schema registry.
//
// The registry identity scopes every derived type and property id: two
// registries with different identities derive disjoint id spaces for the
// same names. The admin identity is the only one allowed to mutate the
// catalogue.
func NewRegistry(registryIdentity, admin identity.Identity, opts ...Option) *Registry {
	r := &Registry{
		identity: registryIdentity,
		admin:    admin,
		logger:   slog.Default(),
		events:   event.Discard,
		types:    make(map[identity.ID]*typeEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Identity returns the registry's own identity.
func (r *Registry) Identity() identity.Identity {
	return r.identity
}

// requireAdmin rejects mutating calls from anyone but the administrator.
func (r *Registry) requireAdmin(actor identity.Identity) error {
	if actor != r.admin {
		return fmt.Errorf("%w: %s", ErrNotAdministrator, actor)
	}
	return nil
}

// RegisterNodeType registers a new node type and returns its derived id.
//
// The id is identity.TypeID(registry identity, name), so a second call
// with the same name computes the same id and fails with
// sdk.ErrAlreadyExists.
func (r *Registry) RegisterNodeType(ctx context.Context, name string, actor identity.Identity) (identity.ID, error) {
	if err := r.requireAdmin(actor); err != nil {
		return identity.ID{}, err
	}
	if name == "" {
		return identity.ID{}, fmt.Errorf("%w: empty type name", sdk.ErrInvalidArgument)
	}

	id := identity.TypeID(r.identity, name)

	r.mu.Lock()
	if _, ok := r.types[id]; ok {
		r.mu.Unlock()
		return identity.ID{}, fmt.Errorf("%w: node type %q", sdk.ErrAlreadyExists, name)
	}
	r.types[id] = &typeEntry{
		def:   TypeDefinition{ID: id, Name: name, Kind: KindNodeType},
		props: make(map[identity.ID]*PropertyDefinition),
	}
	r.order = append(r.order, id)
	r.mu.Unlock()

	r.logger.Debug("registered node type", "name", name, "type_id", id.String())
	r.events.Emit(ctx, event.EntityAdded{TypeID: id, Name: name})
	return id, nil
}

// RegisterEdgeType registers an edge type with one allowed
// (source, target) path and returns the edge type id.
//
// Both endpoints must reference previously registered types (node types
// or other edge types); otherwise the call fails with ErrInvalidTypePair.
// Calling again with the same name and a different endpoint pair appends
// an additional allowed path to the existing definition and returns the
// same id. Repeating an endpoint pair fails with sdk.ErrAlreadyExists, as
// does a name already taken by a node type.
func (r *Registry) RegisterEdgeType(ctx context.Context, name string, sourceTypeID, targetTypeID identity.ID, actor identity.Identity) (identity.ID, error) {
	if err := r.requireAdmin(actor); err != nil {
		return identity.ID{}, err
	}
	if name == "" {
		return identity.ID{}, fmt.Errorf("%w: empty type name", sdk.ErrInvalidArgument)
	}

	id := identity.TypeID(r.identity, name)

	r.mu.Lock()

	if _, ok := r.types[sourceTypeID]; !ok {
		r.mu.Unlock()
		return identity.ID{}, fmt.Errorf("%w: source type %s", ErrInvalidTypePair, sourceTypeID)
	}
	if _, ok := r.types[targetTypeID]; !ok {
		r.mu.Unlock()
		return identity.ID{}, fmt.Errorf("%w: target type %s", ErrInvalidTypePair, targetTypeID)
	}

	entry, ok := r.types[id]
	switch {
	case !ok:
		entry = &typeEntry{
			def:   TypeDefinition{ID: id, Name: name, Kind: KindEdgeType},
			props: make(map[identity.ID]*PropertyDefinition),
		}
		r.types[id] = entry
		r.order = append(r.order, id)

	case entry.def.Kind != KindEdgeType:
		r.mu.Unlock()
		return identity.ID{}, fmt.Errorf("%w: %q is a registered node type", sdk.ErrAlreadyExists, name)

	default:
		for _, p := range entry.paths {
			if p.SourceTypeID == sourceTypeID && p.TargetTypeID == targetTypeID {
				r.mu.Unlock()
				return identity.ID{}, fmt.Errorf("%w: edge type %q path", sdk.ErrAlreadyExists, name)
			}
		}
	}

	entry.paths = append(entry.paths, EdgePath{
		SourceTypeID: sourceTypeID,
		TargetTypeID: targetTypeID,
		Active:       true,
	})
	r.mu.Unlock()

	r.logger.Debug("registered edge type path",
		"name", name,
		"type_id", id.String(),
		"source_type_id", sourceTypeID.String(),
		"target_type_id", targetTypeID.String())
	r.events.Emit(ctx, event.EntityAdded{
		TypeID:       id,
		Name:         name,
		SourceTypeID: sourceTypeID,
		TargetTypeID: targetTypeID,
	})
	return id, nil
}

// RegisterProperty declares a property on a registered entity type and
// returns the derived property id.
//
// The entity type must exist (sdk.ErrNotFound otherwise) and the
// (entity type, name) pair must be new (sdk.ErrAlreadyExists otherwise,
// via structural id collision). New properties start active.
func (r *Registry) RegisterProperty(ctx context.Context, entityTypeID identity.ID, name string, t property.Type, actor identity.Identity) (identity.ID, error) {
	if err := r.requireAdmin(actor); err != nil {
		return identity.ID{}, err
	}
	if name == "" {
		return identity.ID{}, fmt.Errorf("%w: empty property name", sdk.ErrInvalidArgument)
	}
	if !t.Valid() {
		return identity.ID{}, fmt.Errorf("%w: tag %d", property.ErrUnsupportedType, uint8(t))
	}

	id := identity.PropertyID(r.identity, entityTypeID, name)

	r.mu.Lock()
	entry, ok := r.types[entityTypeID]
	if !ok {
		r.mu.Unlock()
		return identity.ID{}, fmt.Errorf("%w: entity type %s", ErrTypeNotRegistered, entityTypeID)
	}
	if _, dup := entry.props[id]; dup {
		r.mu.Unlock()
		return identity.ID{}, fmt.Errorf("%w: property %q on %q", sdk.ErrAlreadyExists, name, entry.def.Name)
	}
	entry.props[id] = &PropertyDefinition{
		ID:           id,
		Name:         name,
		Type:         t,
		EntityTypeID: entityTypeID,
		Active:       true,
	}
	entry.propOrder = append(entry.propOrder, id)
	r.mu.Unlock()

	r.events.Emit(ctx, event.PropertyAdded{
		PropertyID:   id,
		Name:         name,
		Type:         t,
		EntityTypeID: entityTypeID,
	})
	return id, nil
}

// SetPropertyActive activates or retires a declared property.
// Fails with sdk.ErrNotFound if the entity type or the property is
// unknown for that type.
func (r *Registry) SetPropertyActive(ctx context.Context, entityTypeID, propertyID identity.ID, active bool, actor identity.Identity) error {
	if err := r.requireAdmin(actor); err != nil {
		return err
	}

	r.mu.Lock()
	entry, ok := r.types[entityTypeID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: entity type %s", ErrTypeNotRegistered, entityTypeID)
	}
	def, ok := entry.props[propertyID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: property %s on %q", ErrPropertyNotRegistered, propertyID, entry.def.Name)
	}
	def.Active = active
	r.mu.Unlock()

	r.events.Emit(ctx, event.PropertyActivityChanged{
		PropertyID:   propertyID,
		EntityTypeID: entityTypeID,
		Active:       active,
	})
	return nil
}

// SetEdgePathActive activates or retires one allowed path of an edge type.
// Fails with sdk.ErrNotFound if the edge type or the exact endpoint pair
// is not recorded.
func (r *Registry) SetEdgePathActive(ctx context.Context, edgeTypeID, sourceTypeID, targetTypeID identity.ID, active bool, actor identity.Identity) error {
	if err := r.requireAdmin(actor); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.types[edgeTypeID]
	if !ok || entry.def.Kind != KindEdgeType {
		return fmt.Errorf("%w: edge type %s", ErrTypeNotRegistered, edgeTypeID)
	}
	for i := range entry.paths {
		if entry.paths[i].SourceTypeID == sourceTypeID && entry.paths[i].TargetTypeID == targetTypeID {
			entry.paths[i].Active = active
			return nil
		}
	}
	return fmt.Errorf("%w: path (%s, %s)", sdk.ErrNotFound, sourceTypeID, targetTypeID)
}

// IsValidEdge reports whether (edge type, source type, target type) is a
// recorded, active path. Pure membership test; unknown ids simply report
// false.
func (r *Registry) IsValidEdge(edgeTypeID, sourceTypeID, targetTypeID identity.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[edgeTypeID]
	if !ok || entry.def.Kind != KindEdgeType {
		return false
	}
	for _, p := range entry.paths {
		if p.Active && p.SourceTypeID == sourceTypeID && p.TargetTypeID == targetTypeID {
			return true
		}
	}
	return false
}

// TypeByID returns the definition for a registered type id.
func (r *Registry) TypeByID(id identity.ID) (TypeDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[id]
	if !ok {
		return TypeDefinition{}, fmt.Errorf("%w: %s", ErrTypeNotRegistered, id)
	}
	return entry.def, nil
}

// TypeByName resolves a type name to its definition. Because ids are
// structural this is a pure derivation plus lookup.
func (r *Registry) TypeByName(name string) (TypeDefinition, error) {
	return r.TypeByID(identity.TypeID(r.identity, name))
}

// TypeProperties returns the properties declared on an entity type, in
// declaration order.
func (r *Registry) TypeProperties(entityTypeID identity.ID) ([]PropertyDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[entityTypeID]
	if !ok {
		return nil, fmt.Errorf("%w: entity type %s", ErrTypeNotRegistered, entityTypeID)
	}

	out := make([]PropertyDefinition, 0, len(entry.propOrder))
	for _, pid := range entry.propOrder {
		out = append(out, *entry.props[pid])
	}
	return out, nil
}

// PropertyByName resolves a property by name on an entity type.
func (r *Registry) PropertyByName(entityTypeID identity.ID, name string) (PropertyDefinition, error) {
	id := identity.PropertyID(r.identity, entityTypeID, name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[entityTypeID]
	if !ok {
		return PropertyDefinition{}, fmt.Errorf("%w: entity type %s", ErrTypeNotRegistered, entityTypeID)
	}
	def, ok := entry.props[id]
	if !ok {
		return PropertyDefinition{}, fmt.Errorf("%w: %q on %q", ErrPropertyNotRegistered, name, entry.def.Name)
	}
	return *def, nil
}

// PropertyByID resolves a property id declared anywhere on the given
// entity type.
func (r *Registry) PropertyByID(entityTypeID, propertyID identity.ID) (PropertyDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[entityTypeID]
	if !ok {
		return PropertyDefinition{}, fmt.Errorf("%w: entity type %s", ErrTypeNotRegistered, entityTypeID)
	}
	def, ok := entry.props[propertyID]
	if !ok {
		return PropertyDefinition{}, fmt.Errorf("%w: %s on %q", ErrPropertyNotRegistered, propertyID, entry.def.Name)
	}
	return *def, nil
}

// EdgePaths returns the recorded paths for an edge type in registration
// order, active and retired alike.
func (r *Registry) EdgePaths(edgeTypeID identity.ID) ([]EdgePath, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.types[edgeTypeID]
	if !ok || entry.def.Kind != KindEdgeType {
		return nil, fmt.Errorf("%w: edge type %s", ErrTypeNotRegistered, edgeTypeID)
	}

	out := make([]EdgePath, len(entry.paths))
	copy(out, entry.paths)
	return out, nil
}

// NodeTypes returns all registered node types in registration order.
func (r *Registry) NodeTypes() []TypeDefinition {
	return r.listKind(KindNodeType)
}

// EdgeTypes returns all registered edge types in registration order.
func (r *Registry) EdgeTypes() []TypeDefinition {
	return r.listKind(KindEdgeType)
}

func (r *Registry) listKind(kind Kind) []TypeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []TypeDefinition
	for _, id := range r.order {
		if entry := r.types[id]; entry.def.Kind == kind {
			out = append(out, entry.def)
		}
	}
	return out
}

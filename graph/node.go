package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/context-protocol/sdk"
	"github.com/context-protocol/sdk/event"
	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/property"
	"github.com/context-protocol/sdk/schema"
)

// Node is a graph entity instance. It is bound to a registered node type
// and owned by a single identity; every mutating operation authenticates
// the acting identity against that owner (or, for relation transitions,
// against the counterparty owner).
//
// A Node is safe for concurrent use. Its own record and its relation
// index are guarded by the node lock; each relation record carries its
// own lock, so operations on different entities do not serialize against
// each other.
type Node struct {
	registry *schema.Registry
	addr     identity.Identity
	owner    identity.Identity
	id       identity.ID
	typeID   identity.ID

	logger *slog.Logger
	events event.Sink

	mu       sync.Mutex
	self     *entityRecord
	outgoing map[identity.ID]*relation
	outOrder []identity.ID
	incoming map[identity.ID]*relation
	inOrder  []identity.ID
}

// Option configures a Node.
type Option func(*Node)

// WithLogger sets the structured logger the node writes to. Defaults to
// slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithEventSink sets the sink that receives the node's state-change
// events. Defaults to event.Discard.
func WithEventSink(sink event.Sink) Option {
	return func(n *Node) {
		if sink != nil {
			n.events = sink
		}
	}
}

// NewNode creates a node instance at addr, owned by owner, bound to the
// node type identified by typeID in registry. The node's self id is
// derived from addr, so constructing a node at the same address always
// yields the same id.
func NewNode(registry *schema.Registry, typeID identity.ID, addr, owner identity.Identity, opts ...Option) (*Node, error) {
	if registry == nil {
		return nil, sdk.NewValidationError("graph.NewNode", fmt.Errorf("registry is required"))
	}
	if addr.IsZero() || owner.IsZero() {
		return nil, sdk.NewValidationError("graph.NewNode", fmt.Errorf("address and owner identities are required"))
	}
	def, err := registry.TypeByID(typeID)
	if err != nil {
		return nil, err
	}
	if def.Kind != schema.KindNodeType {
		return nil, fmt.Errorf("type %q is not a node type: %w", def.Name, sdk.ErrInvalidArgument)
	}

	n := &Node{
		registry: registry,
		addr:     addr,
		owner:    owner,
		id:       identity.NodeID(addr),
		typeID:   typeID,
		logger:   slog.Default(),
		events:   event.Discard,
		self:     newEntityRecord(),
		outgoing: make(map[identity.ID]*relation),
		incoming: make(map[identity.ID]*relation),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// ID returns the node's self entity id, derived from its address.
func (n *Node) ID() identity.ID { return n.id }

// Addr returns the node's address identity.
func (n *Node) Addr() identity.Identity { return n.addr }

// Owner returns the identity allowed to mutate the node.
func (n *Node) Owner() identity.Identity { return n.owner }

// TypeID returns the id of the node type the instance is bound to.
func (n *Node) TypeID() identity.ID { return n.typeID }

// Registry returns the schema registry the node validates against.
func (n *Node) Registry() *schema.Registry { return n.registry }

// PropertyInput is one raw property write. The value must already be
// encoded with property.Encode; the node stores it without inspecting it.
type PropertyInput struct {
	PropertyID identity.ID
	Value      []byte
}

// Property is one decoded property value returned by GetProperties.
type Property struct {
	ID    identity.ID
	Type  property.Type
	Value property.Value
}

// SetProperties writes raw property values on an entity. The entity is
// the node's own record when entityID equals ID(), or a relation record
// when it equals a relation id held by the node.
//
// Only the record owner may write: the node owner for the self record and
// for outgoing relations. Relation properties are writable only while the
// relation is pending; afterwards the write fails with ErrRelationFrozen.
//
// Values for property ids unknown to the schema are stored as given.
// They surface again only through snapshots; GetProperties filters reads
// through the entity type's declared properties.
func (n *Node) SetProperties(ctx context.Context, entityID identity.ID, inputs []PropertyInput, actor identity.Identity) error {
	for _, in := range inputs {
		if in.PropertyID.IsZero() {
			return sdk.NewValidationError("graph.SetProperties", fmt.Errorf("property id is required"))
		}
	}

	if entityID == n.id {
		if actor != n.owner {
			return ErrNotOwner
		}
		n.mu.Lock()
		for _, in := range inputs {
			n.self.props[in.PropertyID] = append([]byte(nil), in.Value...)
		}
		n.mu.Unlock()
	} else {
		rel, err := n.findRelation(entityID)
		if err != nil {
			return ErrEntityNotFound
		}
		if actor != rel.sourceOwner {
			return ErrNotOwner
		}
		rel.mu.Lock()
		if rel.status != StatusPending {
			rel.mu.Unlock()
			return ErrRelationFrozen
		}
		for _, in := range inputs {
			rel.record.props[in.PropertyID] = append([]byte(nil), in.Value...)
		}
		rel.mu.Unlock()
	}

	for _, in := range inputs {
		n.events.Emit(ctx, event.PropertyUpdated{
			EntityID:   entityID,
			PropertyID: in.PropertyID,
			Value:      append([]byte(nil), in.Value...),
			Actor:      actor,
		})
	}
	n.logger.DebugContext(ctx, "properties updated",
		"entity_id", entityID.String(),
		"count", len(inputs))
	return nil
}

// GetProperties returns the entity's property values joined against the
// active properties declared on its type, keyed by property name. Stored
// values whose property id is not declared, values for retired
// properties, and declared properties with no stored value are all
// omitted.
func (n *Node) GetProperties(entityID identity.ID) (map[string]Property, error) {
	schemaTypeID, record, unlock, err := n.resolveEntity(entityID)
	if err != nil {
		return nil, err
	}
	defs, err := n.registry.TypeProperties(schemaTypeID)
	if err != nil {
		unlock()
		return nil, err
	}

	out := make(map[string]Property)
	for _, def := range defs {
		if !def.Active {
			continue
		}
		raw, ok := record.props[def.ID]
		if !ok || len(raw) == 0 {
			continue
		}
		value, err := property.Decode(def.Type, raw)
		if err != nil {
			unlock()
			return nil, fmt.Errorf("decode property %q: %w", def.Name, err)
		}
		out[def.Name] = Property{ID: def.ID, Type: def.Type, Value: value}
	}
	unlock()
	return out, nil
}

// RawProperty returns the stored bytes for a property id on an entity,
// without schema filtering or decoding. The second result reports whether
// a value is stored.
func (n *Node) RawProperty(entityID, propertyID identity.ID) ([]byte, bool, error) {
	_, record, unlock, err := n.resolveEntity(entityID)
	if err != nil {
		return nil, false, err
	}
	raw, ok := record.props[propertyID]
	unlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

// AddDocument attaches a URL reference to an entity and returns its id,
// derived from the record owner's identity and the URL. The record owner
// is the node owner for the self record and the source owner for relation
// records, so the same URL derives the same id through either endpoint's
// handle. Attaching the same URL twice fails with ErrDuplicateDocument,
// even after the document was forgotten.
func (n *Node) AddDocument(ctx context.Context, entityID identity.ID, url string, actor identity.Identity) (identity.ID, error) {
	if url == "" {
		return identity.ID{}, ErrInvalidURL
	}
	_, recordOwner, record, unlock, err := n.resolveEntityOwned(entityID, actor)
	if err != nil {
		return identity.ID{}, err
	}

	docID := identity.DocumentID(recordOwner, url)
	if _, exists := record.docs[docID]; exists {
		unlock()
		return identity.ID{}, fmt.Errorf("url %q: %w", url, ErrDuplicateDocument)
	}
	record.docs[docID] = &Document{ID: docID, URL: url, Indexed: true}
	record.docOrder = append(record.docOrder, docID)
	unlock()

	n.events.Emit(ctx, event.DocumentAdded{
		EntityID:   entityID,
		DocumentID: docID,
		URL:        url,
		Actor:      actor,
	})
	n.logger.DebugContext(ctx, "document added",
		"entity_id", entityID.String(),
		"document_id", docID.String(),
		"url", url)
	return docID, nil
}

// ForgetDocument clears the indexed flag on a document. The record stays
// in place and keeps its position in Documents. Forgetting an already
// forgotten document succeeds and re-emits the deactivation event.
func (n *Node) ForgetDocument(ctx context.Context, entityID, documentID identity.ID, actor identity.Identity) error {
	_, _, record, unlock, err := n.resolveEntityOwned(entityID, actor)
	if err != nil {
		return err
	}
	doc, ok := record.docs[documentID]
	if !ok {
		unlock()
		return ErrDocumentNotFound
	}
	doc.Indexed = false
	unlock()

	n.events.Emit(ctx, event.DocumentDeactivated{
		EntityID:   entityID,
		DocumentID: documentID,
		Actor:      actor,
	})
	return nil
}

// Documents returns the entity's document references in attachment
// order, including forgotten ones.
func (n *Node) Documents(entityID identity.ID) ([]Document, error) {
	_, record, unlock, err := n.resolveEntity(entityID)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(record.docOrder))
	for _, id := range record.docOrder {
		out = append(out, *record.docs[id])
	}
	unlock()
	return out, nil
}

// AddEdge creates a pending relation from this node to target and returns
// the relation id, derived from the edge type, the target address, and
// the descriptor. The same three inputs always derive the same id, so
// re-adding an identical edge fails with ErrDuplicateRelation.
//
// The edge type must be registered with an active path from this node's
// type to the target's type, and the target must be a different instance.
func (n *Node) AddEdge(ctx context.Context, edgeTypeID identity.ID, target *Node, descriptor string, actor identity.Identity) (identity.ID, error) {
	if actor != n.owner {
		return identity.ID{}, ErrNotOwner
	}
	if target == nil {
		return identity.ID{}, sdk.NewValidationError("graph.AddEdge", fmt.Errorf("target node is required"))
	}
	if target.addr == n.addr {
		return identity.ID{}, fmt.Errorf("self-edge on %s: %w", n.addr, ErrInvalidEdge)
	}
	def, err := n.registry.TypeByID(edgeTypeID)
	if err != nil || def.Kind != schema.KindEdgeType {
		return identity.ID{}, fmt.Errorf("edge type %s is not registered: %w", edgeTypeID, ErrInvalidEdge)
	}
	if !n.registry.IsValidEdge(edgeTypeID, n.typeID, target.typeID) {
		return identity.ID{}, fmt.Errorf("no active path for edge type %q between these node types: %w", def.Name, ErrInvalidEdge)
	}

	relID := identity.RelationID(edgeTypeID, target.addr, descriptor)
	rel := &relation{
		id:          relID,
		edgeTypeID:  edgeTypeID,
		descriptor:  descriptor,
		sourceID:    n.id,
		sourceAddr:  n.addr,
		sourceOwner: n.owner,
		targetID:    target.id,
		targetAddr:  target.addr,
		targetOwner: target.owner,
		status:      StatusPending,
		record:      newEntityRecord(),
	}

	n.mu.Lock()
	if _, exists := n.outgoing[relID]; exists {
		n.mu.Unlock()
		return identity.ID{}, fmt.Errorf("relation %s: %w", relID, ErrDuplicateRelation)
	}
	n.outgoing[relID] = rel
	n.outOrder = append(n.outOrder, relID)
	n.mu.Unlock()

	// The target may already hold the id through another source node,
	// since the source does not participate in relation id derivation.
	// That relation would be unanswerable, so roll back and fail.
	target.mu.Lock()
	if _, exists := target.incoming[relID]; exists {
		target.mu.Unlock()
		n.removeOutgoing(relID)
		return identity.ID{}, fmt.Errorf("relation %s already targets %s: %w", relID, target.addr, ErrDuplicateRelation)
	}
	target.incoming[relID] = rel
	target.inOrder = append(target.inOrder, relID)
	target.mu.Unlock()

	n.events.Emit(ctx, event.EdgeAdded{
		RelationID: relID,
		EdgeTypeID: edgeTypeID,
		SourceID:   n.id,
		TargetID:   target.id,
	})
	n.logger.InfoContext(ctx, "edge added",
		"relation_id", relID.String(),
		"edge_type", def.Name,
		"target", string(target.addr),
		"descriptor", descriptor)
	return relID, nil
}

// UpdateStatus applies a lifecycle transition to a relation the node
// references. Authorization is per transition: the source owner may
// delete a pending relation, the target owner may accept or reject it,
// and either owner may finish an accepted one. Any other move fails,
// with ErrNotOwner when the actor owns neither endpoint and an
// sdk.ErrInvalidTransition wrap otherwise.
func (n *Node) UpdateStatus(ctx context.Context, relationID identity.ID, status Status, actor identity.Identity) error {
	rel, err := n.findRelation(relationID)
	if err != nil {
		return err
	}

	rel.mu.Lock()
	old, err := rel.transition(status, actor)
	rel.mu.Unlock()
	if err != nil {
		return err
	}

	n.events.Emit(ctx, event.StatusUpdated{
		RelationID: relationID,
		OldStatus:  old.String(),
		NewStatus:  status.String(),
		Actor:      actor,
	})
	n.logger.InfoContext(ctx, "relation status updated",
		"relation_id", relationID.String(),
		"old_status", old.String(),
		"new_status", status.String())
	return nil
}

// AnswerEdge responds on behalf of this node's owner to a relation held
// by counterparty. It is shorthand for calling UpdateStatus on the
// counterparty node with this node's owner as the actor, which is how a
// target owner accepts or rejects an incoming edge.
func (n *Node) AnswerEdge(ctx context.Context, counterparty *Node, relationID identity.ID, status Status) error {
	if counterparty == nil {
		return sdk.NewValidationError("graph.AnswerEdge", fmt.Errorf("counterparty node is required"))
	}
	return counterparty.UpdateStatus(ctx, relationID, status, n.owner)
}

// Relation returns a read-only view of a relation the node references,
// in either direction.
func (n *Node) Relation(relationID identity.ID) (Relation, error) {
	rel, err := n.findRelation(relationID)
	if err != nil {
		return Relation{}, err
	}
	return rel.view(), nil
}

// Relations returns views of the node's outgoing relations in creation
// order.
func (n *Node) Relations() []Relation {
	n.mu.Lock()
	rels := make([]*relation, 0, len(n.outOrder))
	for _, id := range n.outOrder {
		rels = append(rels, n.outgoing[id])
	}
	n.mu.Unlock()

	out := make([]Relation, 0, len(rels))
	for _, rel := range rels {
		out = append(out, rel.view())
	}
	return out
}

// IncomingRelations returns views of the relations targeting this node in
// arrival order.
func (n *Node) IncomingRelations() []Relation {
	n.mu.Lock()
	rels := make([]*relation, 0, len(n.inOrder))
	for _, id := range n.inOrder {
		rels = append(rels, n.incoming[id])
	}
	n.mu.Unlock()

	out := make([]Relation, 0, len(rels))
	for _, rel := range rels {
		out = append(out, rel.view())
	}
	return out
}

// removeOutgoing undoes a source-side relation insert that could not be
// completed on the target side.
func (n *Node) removeOutgoing(relationID identity.ID) {
	n.mu.Lock()
	delete(n.outgoing, relationID)
	for i, id := range n.outOrder {
		if id == relationID {
			n.outOrder = append(n.outOrder[:i], n.outOrder[i+1:]...)
			break
		}
	}
	n.mu.Unlock()
}

func (n *Node) findRelation(relationID identity.ID) (*relation, error) {
	n.mu.Lock()
	rel, ok := n.outgoing[relationID]
	if !ok {
		rel, ok = n.incoming[relationID]
	}
	n.mu.Unlock()
	if !ok {
		return nil, ErrRelationNotFound
	}
	return rel, nil
}

// resolveEntity locates the record behind an entity id and locks it. The
// returned unlock releases whichever lock guards that record.
func (n *Node) resolveEntity(entityID identity.ID) (identity.ID, *entityRecord, func(), error) {
	if entityID == n.id {
		n.mu.Lock()
		return n.typeID, n.self, n.mu.Unlock, nil
	}
	rel, err := n.findRelation(entityID)
	if err != nil {
		return identity.ID{}, nil, nil, ErrEntityNotFound
	}
	rel.mu.Lock()
	return rel.edgeTypeID, rel.record, rel.mu.Unlock, nil
}

// resolveEntityOwned is resolveEntity plus the write authorization check:
// the node owner for the self record, the source owner for relations. It
// also returns the record's owning identity, which is what document ids
// derive from regardless of which node handle the call went through.
func (n *Node) resolveEntityOwned(entityID identity.ID, actor identity.Identity) (identity.ID, identity.Identity, *entityRecord, func(), error) {
	if entityID == n.id {
		if actor != n.owner {
			return identity.ID{}, "", nil, nil, ErrNotOwner
		}
		n.mu.Lock()
		return n.typeID, n.owner, n.self, n.mu.Unlock, nil
	}
	rel, err := n.findRelation(entityID)
	if err != nil {
		return identity.ID{}, "", nil, nil, ErrEntityNotFound
	}
	if actor != rel.sourceOwner {
		return identity.ID{}, "", nil, nil, ErrNotOwner
	}
	rel.mu.Lock()
	return rel.edgeTypeID, rel.sourceOwner, rel.record, rel.mu.Unlock, nil
}

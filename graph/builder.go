package graph

import (
	"context"
	"fmt"

	"github.com/context-protocol/sdk"
	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/property"
)

// NodeBuilder accumulates property values and document references for a
// node's own record and applies them in one Save call. Property values
// are given as plain Go values and coerced to the declared property type
// by name, so callers do not deal with property ids or wire encoding.
//
//	err := node.Build().
//		Property("name", "Ada").
//		Property("age", 36).
//		Document("https://example.com/cv.pdf").
//		Save(ctx)
//
// Name resolution, coercion, and encoding all happen in Save, so the
// chaining calls themselves cannot fail.
type NodeBuilder struct {
	node  *Node
	props []builderProp
	docs  []string
}

type builderProp struct {
	name  string
	value any
}

// Build starts a builder over the node's own record. Save acts with the
// node owner as the actor.
func (n *Node) Build() *NodeBuilder {
	return &NodeBuilder{node: n}
}

// Property schedules a property write. The value is coerced to the type
// declared for name on the node's type when Save runs.
func (b *NodeBuilder) Property(name string, value any) *NodeBuilder {
	b.props = append(b.props, builderProp{name: name, value: value})
	return b
}

// Document schedules a document attachment.
func (b *NodeBuilder) Document(url string) *NodeBuilder {
	b.docs = append(b.docs, url)
	return b
}

// Save resolves the accumulated property names against the schema,
// encodes the values, and applies all writes to the node's own record.
func (b *NodeBuilder) Save(ctx context.Context) error {
	inputs, err := encodeProps(b.node, b.node.typeID, b.props)
	if err != nil {
		return err
	}
	if len(inputs) > 0 {
		if err := b.node.SetProperties(ctx, b.node.id, inputs, b.node.owner); err != nil {
			return err
		}
	}
	for _, url := range b.docs {
		if _, err := b.node.AddDocument(ctx, b.node.id, url, b.node.owner); err != nil {
			return err
		}
	}
	return nil
}

// EdgeBuilder accumulates an outgoing edge with optional relation
// properties and documents, applied atomically enough for single-writer
// use: AddEdge first, then the relation record writes while the relation
// is still pending.
type EdgeBuilder struct {
	node       *Node
	edgeType   string
	descriptor string
	target     *Node
	source     *Node
	props      []builderProp
	docs       []string
}

// Edge starts an edge builder on the node for the named edge type and
// descriptor. Chain To and Save to create an outgoing relation, or From
// and Accept to answer an incoming one.
func (n *Node) Edge(edgeType, descriptor string) *EdgeBuilder {
	return &EdgeBuilder{node: n, edgeType: edgeType, descriptor: descriptor}
}

// To sets the target node for Save.
func (b *EdgeBuilder) To(target *Node) *EdgeBuilder {
	b.target = target
	return b
}

// From sets the source node for Accept and Reject.
func (b *EdgeBuilder) From(source *Node) *EdgeBuilder {
	b.source = source
	return b
}

// Property schedules a property write on the relation record.
func (b *EdgeBuilder) Property(name string, value any) *EdgeBuilder {
	b.props = append(b.props, builderProp{name: name, value: value})
	return b
}

// Document schedules a document attachment on the relation record.
func (b *EdgeBuilder) Document(url string) *EdgeBuilder {
	b.docs = append(b.docs, url)
	return b
}

func (b *EdgeBuilder) typeID() (identity.ID, error) {
	def, err := b.node.registry.TypeByName(b.edgeType)
	if err != nil {
		return identity.ID{}, err
	}
	return def.ID, nil
}

// Save creates the pending relation toward the target set with To and
// applies the scheduled relation writes. It returns the relation id.
func (b *EdgeBuilder) Save(ctx context.Context) (identity.ID, error) {
	if b.target == nil {
		return identity.ID{}, sdk.NewValidationError("graph.EdgeBuilder.Save", fmt.Errorf("target node is required, call To first"))
	}
	typeID, err := b.typeID()
	if err != nil {
		return identity.ID{}, err
	}
	relID, err := b.node.AddEdge(ctx, typeID, b.target, b.descriptor, b.node.owner)
	if err != nil {
		return identity.ID{}, err
	}
	inputs, err := encodeProps(b.node, typeID, b.props)
	if err != nil {
		return identity.ID{}, err
	}
	if len(inputs) > 0 {
		if err := b.node.SetProperties(ctx, relID, inputs, b.node.owner); err != nil {
			return identity.ID{}, err
		}
	}
	for _, url := range b.docs {
		if _, err := b.node.AddDocument(ctx, relID, url, b.node.owner); err != nil {
			return identity.ID{}, err
		}
	}
	return relID, nil
}

// Accept answers the incoming relation from the source set with From,
// moving it to accepted on behalf of this node's owner.
func (b *EdgeBuilder) Accept(ctx context.Context) error {
	return b.answer(ctx, StatusAccepted)
}

// Reject answers the incoming relation from the source set with From,
// moving it to rejected on behalf of this node's owner.
func (b *EdgeBuilder) Reject(ctx context.Context) error {
	return b.answer(ctx, StatusRejected)
}

func (b *EdgeBuilder) answer(ctx context.Context, status Status) error {
	if b.source == nil {
		return sdk.NewValidationError("graph.EdgeBuilder", fmt.Errorf("source node is required, call From first"))
	}
	typeID, err := b.typeID()
	if err != nil {
		return err
	}
	relID := identity.RelationID(typeID, b.node.addr, b.descriptor)
	return b.node.AnswerEdge(ctx, b.source, relID, status)
}

// Status returns the current lifecycle state of the relation the builder
// describes, resolving the relation id from the edge type, the target
// address, and the descriptor.
func (b *EdgeBuilder) Status() (Status, error) {
	typeID, err := b.typeID()
	if err != nil {
		return StatusInvalid, err
	}
	var holder *Node
	var targetAddr identity.Identity
	switch {
	case b.target != nil:
		holder, targetAddr = b.node, b.target.addr
	case b.source != nil:
		holder, targetAddr = b.source, b.node.addr
	default:
		return StatusInvalid, sdk.NewValidationError("graph.EdgeBuilder.Status", fmt.Errorf("call To or From first"))
	}
	rel, err := holder.Relation(identity.RelationID(typeID, targetAddr, b.descriptor))
	if err != nil {
		return StatusInvalid, err
	}
	return rel.Status, nil
}

// encodeProps resolves property names on the given entity type, coerces
// the Go values, and encodes them to raw inputs.
func encodeProps(n *Node, entityTypeID identity.ID, props []builderProp) ([]PropertyInput, error) {
	inputs := make([]PropertyInput, 0, len(props))
	for _, p := range props {
		def, err := n.registry.PropertyByName(entityTypeID, p.name)
		if err != nil {
			return nil, err
		}
		value, err := property.Coerce(def.Type, p.value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.name, err)
		}
		raw, err := property.Encode(value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.name, err)
		}
		inputs = append(inputs, PropertyInput{PropertyID: def.ID, Value: raw})
	}
	return inputs, nil
}

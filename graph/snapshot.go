package graph

import (
	"fmt"

	"github.com/context-protocol/sdk"
	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/schema"
	"github.com/context-protocol/sdk/store"
)

// Snapshot captures the node's durable state: its own record and its
// outgoing relations. Incoming relations are not part of a node's
// snapshot; they are persisted by their source node.
func (n *Node) Snapshot() *store.NodeSnapshot {
	n.mu.Lock()
	snap := &store.NodeSnapshot{
		Addr:   string(n.addr),
		Owner:  string(n.owner),
		TypeID: n.typeID.String(),
		Self:   encodeEntity(n.self),
	}
	rels := make([]*relation, 0, len(n.outOrder))
	for _, id := range n.outOrder {
		rels = append(rels, n.outgoing[id])
	}
	n.mu.Unlock()

	for _, rel := range rels {
		rel.mu.Lock()
		rec := store.RelationRecord{
			ID:          rel.id.String(),
			EdgeTypeID:  rel.edgeTypeID.String(),
			Descriptor:  rel.descriptor,
			TargetAddr:  string(rel.targetAddr),
			TargetOwner: string(rel.targetOwner),
			TargetID:    rel.targetID.String(),
			Status:      rel.status.String(),
			Entity:      encodeEntity(rel.record),
		}
		rel.mu.Unlock()
		snap.Relations = append(snap.Relations, rec)
	}
	return snap
}

// RestoreNode rebuilds a node from a snapshot. The node's type must still
// be registered in the given registry. Restored outgoing relations remain
// fully operational: lifecycle transitions authenticate against the
// recorded owner identities, so the target owner can answer through the
// restored node without holding its own handle.
func RestoreNode(registry *schema.Registry, snap *store.NodeSnapshot, opts ...Option) (*Node, error) {
	if snap == nil {
		return nil, sdk.NewValidationError("graph.RestoreNode", fmt.Errorf("snapshot is required"))
	}
	typeID, err := identity.ParseID(snap.TypeID)
	if err != nil {
		return nil, sdk.NewValidationError("graph.RestoreNode", err)
	}

	n, err := NewNode(registry, typeID, identity.Identity(snap.Addr), identity.Identity(snap.Owner), opts...)
	if err != nil {
		return nil, err
	}
	if n.self, err = decodeEntity(snap.Self); err != nil {
		return nil, sdk.NewValidationError("graph.RestoreNode", err)
	}

	for _, rec := range snap.Relations {
		rel, err := decodeRelation(n, rec)
		if err != nil {
			return nil, sdk.NewValidationError("graph.RestoreNode", err)
		}
		n.outgoing[rel.id] = rel
		n.outOrder = append(n.outOrder, rel.id)
	}
	return n, nil
}

func encodeEntity(rec *entityRecord) store.EntityRecord {
	out := store.EntityRecord{}
	if len(rec.props) > 0 {
		out.Properties = make(map[string][]byte, len(rec.props))
		for id, raw := range rec.props {
			out.Properties[id.String()] = append([]byte(nil), raw...)
		}
	}
	for _, id := range rec.docOrder {
		doc := rec.docs[id]
		out.Documents = append(out.Documents, store.DocumentRecord{
			ID:      doc.ID.String(),
			URL:     doc.URL,
			Indexed: doc.Indexed,
		})
	}
	return out
}

func decodeEntity(rec store.EntityRecord) (*entityRecord, error) {
	out := newEntityRecord()
	for idHex, raw := range rec.Properties {
		id, err := identity.ParseID(idHex)
		if err != nil {
			return nil, fmt.Errorf("property id: %w", err)
		}
		out.props[id] = append([]byte(nil), raw...)
	}
	for _, d := range rec.Documents {
		id, err := identity.ParseID(d.ID)
		if err != nil {
			return nil, fmt.Errorf("document id: %w", err)
		}
		out.docs[id] = &Document{ID: id, URL: d.URL, Indexed: d.Indexed}
		out.docOrder = append(out.docOrder, id)
	}
	return out, nil
}

func decodeRelation(n *Node, rec store.RelationRecord) (*relation, error) {
	id, err := identity.ParseID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("relation id: %w", err)
	}
	edgeTypeID, err := identity.ParseID(rec.EdgeTypeID)
	if err != nil {
		return nil, fmt.Errorf("edge type id: %w", err)
	}
	targetID, err := identity.ParseID(rec.TargetID)
	if err != nil {
		return nil, fmt.Errorf("target id: %w", err)
	}
	status, err := ParseStatus(rec.Status)
	if err != nil {
		return nil, err
	}
	record, err := decodeEntity(rec.Entity)
	if err != nil {
		return nil, err
	}
	return &relation{
		id:          id,
		edgeTypeID:  edgeTypeID,
		descriptor:  rec.Descriptor,
		sourceID:    n.id,
		sourceAddr:  n.addr,
		sourceOwner: n.owner,
		targetID:    targetID,
		targetAddr:  identity.Identity(rec.TargetAddr),
		targetOwner: identity.Identity(rec.TargetOwner),
		status:      status,
		record:      record,
	}, nil
}

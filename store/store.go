// Package store persists node snapshots. A snapshot is a self-contained,
// JSON-serializable copy of one node's durable state: its own record plus
// its outgoing relations, each with raw property values and document
// references in attachment order.
//
// Two backends are provided: an in-process MemoryStore and a Redis-backed
// RedisStore. Both implement Store.
package store

import (
	"context"

	"github.com/context-protocol/sdk/identity"
)

// DocumentRecord is one persisted document reference.
type DocumentRecord struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Indexed bool   `json:"indexed"`
}

// EntityRecord is the persisted per-entity state: raw property values
// keyed by hex property id, and documents in attachment order.
type EntityRecord struct {
	Properties map[string][]byte `json:"properties,omitempty"`
	Documents  []DocumentRecord  `json:"documents,omitempty"`
}

// RelationRecord is one persisted outgoing relation, including its own
// entity record.
type RelationRecord struct {
	ID          string       `json:"id"`
	EdgeTypeID  string       `json:"edge_type_id"`
	Descriptor  string       `json:"descriptor"`
	TargetAddr  string       `json:"target_addr"`
	TargetOwner string       `json:"target_owner"`
	TargetID    string       `json:"target_id"`
	Status      string       `json:"status"`
	Entity      EntityRecord `json:"entity"`
}

// NodeSnapshot is the full durable state of one node.
type NodeSnapshot struct {
	Addr      string           `json:"addr"`
	Owner     string           `json:"owner"`
	TypeID    string           `json:"type_id"`
	Self      EntityRecord     `json:"self"`
	Relations []RelationRecord `json:"relations,omitempty"`
}

// Store saves and loads node snapshots keyed by node address. SaveNode
// overwrites any previous snapshot for the same address.
type Store interface {
	SaveNode(ctx context.Context, snap *NodeSnapshot) error
	LoadNode(ctx context.Context, addr identity.Identity) (*NodeSnapshot, error)
	ListNodes(ctx context.Context) ([]identity.Identity, error)
	Close() error
}

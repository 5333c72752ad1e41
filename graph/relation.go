package graph

import (
	"sync"

	"github.com/context-protocol/sdk/identity"
)

// entityRecord holds the mutable per-entity state shared by node self
// records and relation records: raw property values keyed by property id
// and document references in attachment order.
type entityRecord struct {
	props    map[identity.ID][]byte
	docs     map[identity.ID]*Document
	docOrder []identity.ID
}

func newEntityRecord() *entityRecord {
	return &entityRecord{
		props: make(map[identity.ID][]byte),
		docs:  make(map[identity.ID]*Document),
	}
}

// Document is a URL reference attached to an entity. Forgetting a
// document clears Indexed but keeps the record and its position.
type Document struct {
	ID      identity.ID
	URL     string
	Indexed bool
}

// relation is the shared record behind an edge. Both endpoint nodes hold
// the same pointer, so a status transition performed through either node
// is immediately visible to the other. The record carries its own lock:
// relation state is independent of either node's lock, which keeps
// same-entity operations serialized without coupling the two nodes.
type relation struct {
	id         identity.ID
	edgeTypeID identity.ID
	descriptor string

	sourceID    identity.ID
	sourceAddr  identity.Identity
	sourceOwner identity.Identity
	targetID    identity.ID
	targetAddr  identity.Identity
	targetOwner identity.Identity

	mu     sync.Mutex
	status Status
	record *entityRecord
}

// transition applies the two-party lifecycle. Authorization is decided
// before legality: an actor that owns neither endpoint is rejected as
// unauthorized even when the requested move would otherwise be legal.
func (r *relation) transition(next Status, actor identity.Identity) (Status, error) {
	isSource := actor == r.sourceOwner
	isTarget := actor == r.targetOwner
	if !isSource && !isTarget {
		return StatusInvalid, ErrNotOwner
	}
	if !next.Valid() {
		return StatusInvalid, errInvalidTransition(r.status, next)
	}

	allowed := false
	switch r.status {
	case StatusPending:
		switch next {
		case StatusDeleted:
			allowed = isSource
		case StatusAccepted, StatusRejected:
			allowed = isTarget
		}
	case StatusAccepted:
		if next == StatusFinished {
			allowed = isSource || isTarget
		}
	}
	if !allowed {
		return StatusInvalid, errInvalidTransition(r.status, next)
	}

	old := r.status
	r.status = next
	return old, nil
}

// Relation is a read-only view of a relation record, returned by node
// accessors. Fields are copies; mutating a Relation has no effect on the
// underlying record.
type Relation struct {
	ID          identity.ID
	EdgeTypeID  identity.ID
	Descriptor  string
	SourceID    identity.ID
	SourceAddr  identity.Identity
	SourceOwner identity.Identity
	TargetID    identity.ID
	TargetAddr  identity.Identity
	TargetOwner identity.Identity
	Status      Status
}

func (r *relation) view() Relation {
	r.mu.Lock()
	status := r.status
	r.mu.Unlock()
	return Relation{
		ID:          r.id,
		EdgeTypeID:  r.edgeTypeID,
		Descriptor:  r.descriptor,
		SourceID:    r.sourceID,
		SourceAddr:  r.sourceAddr,
		SourceOwner: r.sourceOwner,
		TargetID:    r.targetID,
		TargetAddr:  r.targetAddr,
		TargetOwner: r.targetOwner,
		Status:      status,
	}
}

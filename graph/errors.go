package graph

import (
	"fmt"

	"github.com/context-protocol/sdk"
)

// Package sentinel errors. Each wraps one of the root taxonomy sentinels
// so callers can match either the specific condition or the broad class
// with errors.Is.
var (
	// ErrNotOwner indicates the acting identity does not own the record
	// it tried to mutate.
	ErrNotOwner = fmt.Errorf("actor is not the owner: %w", sdk.ErrUnauthorized)

	// ErrRelationFrozen indicates a write to relation properties after
	// the relation left the pending state.
	ErrRelationFrozen = fmt.Errorf("relation properties are frozen after negotiation: %w", sdk.ErrUnauthorized)

	// ErrEntityNotFound indicates the entity id is neither the node's
	// self id nor one of its relation ids.
	ErrEntityNotFound = fmt.Errorf("entity not found: %w", sdk.ErrNotFound)

	// ErrRelationNotFound indicates the relation id is not referenced by
	// the node, in either direction.
	ErrRelationNotFound = fmt.Errorf("relation not found: %w", sdk.ErrNotFound)

	// ErrDocumentNotFound indicates the document id was never attached
	// to the entity.
	ErrDocumentNotFound = fmt.Errorf("document not found: %w", sdk.ErrNotFound)

	// ErrInvalidURL indicates an empty document URL.
	ErrInvalidURL = fmt.Errorf("invalid document url: %w", sdk.ErrInvalidArgument)

	// ErrInvalidEdge indicates an edge that the schema does not permit:
	// an unregistered edge type, a self-edge, or a source/target type
	// pair with no active path.
	ErrInvalidEdge = fmt.Errorf("invalid edge: %w", sdk.ErrInvalidArgument)

	// ErrDuplicateRelation indicates the derived relation id already
	// exists on the source node.
	ErrDuplicateRelation = fmt.Errorf("relation already exists: %w", sdk.ErrAlreadyExists)

	// ErrDuplicateDocument indicates the derived document id already
	// exists on the entity.
	ErrDuplicateDocument = fmt.Errorf("document already exists: %w", sdk.ErrAlreadyExists)
)

func errInvalidTransition(from, to Status) error {
	return fmt.Errorf("cannot move relation from %s to %s: %w", from, to, sdk.ErrInvalidTransition)
}

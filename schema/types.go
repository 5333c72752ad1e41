package schema

import (
	"fmt"

	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/property"
)

// Kind distinguishes node type definitions from edge type definitions.
type Kind uint8

const (
	// KindInvalid is the zero value and never a valid kind.
	KindInvalid Kind = iota

	// KindNodeType marks a registered entity category for nodes.
	KindNodeType

	// KindEdgeType marks a registered relation category.
	KindEdgeType
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNodeType:
		return "node_type"
	case KindEdgeType:
		return "edge_type"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(k))
	}
}

// TypeDefinition describes a registered node type or edge type.
type TypeDefinition struct {
	// ID is derived from the registry identity and Name.
	ID identity.ID

	// Name is the registered type name, unique per registry.
	Name string

	// Kind is KindNodeType or KindEdgeType.
	Kind Kind
}

// EdgePath is one allowed (source type, target type) endpoint pair for an
// edge type. Paths accumulate per edge type and each carries its own
// active flag.
type EdgePath struct {
	SourceTypeID identity.ID
	TargetTypeID identity.ID
	Active       bool
}

// PropertyDefinition describes a property declared on an entity type.
type PropertyDefinition struct {
	// ID is derived from the registry identity, EntityTypeID, and Name.
	ID identity.ID

	// Name is the property name, unique within its entity type.
	Name string

	// Type is the property value type.
	Type property.Type

	// EntityTypeID is the owning node type or edge type.
	EntityTypeID identity.ID

	// Active reports whether the property is currently in use. Retired
	// properties keep their definition (and stored values) but may be
	// filtered by callers.
	Active bool
}

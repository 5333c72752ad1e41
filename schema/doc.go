// Package schema implements the schema registry: the catalogue of entity
// type definitions that governs what nodes and relations may exist and
// which properties they may carry.
//
// A Registry owns two kinds of type definitions. Node types declare a
// named category of entity with a property schema. Edge types declare a
// named category of relation, a property schema, and the set of allowed
// (edge type, source type, target type) paths; a path must reference
// previously registered types and is appended, never replaced, so one
// edge type name can connect several endpoint pairs, each with its own
// active flag.
//
// Identifiers are structural: a type id derives from the registry
// identity and the type name, and a property id from the registry
// identity, the owning type id, and the property name. Registering the
// same name twice therefore computes the same id and is rejected as a
// duplicate rather than silently shadowed.
//
// Every mutating operation requires the registry's administrator
// identity; calls from any other identity fail with
// sdk.ErrUnauthorized. Reads are open and preserve insertion order.
package schema

// Package graph implements entity instances: nodes that hold typed
// property values, attached document references, and directed relations
// to other nodes.
//
// A Node is bound at construction to a node type registered in a
// schema.Registry and to two identities: its own address (from which its
// self-record id derives) and its owner (the only identity allowed to
// mutate it). All operations address an entity id, which is either the
// node's self id or the id of one of its relations, so a relation carries
// its own property values and documents exactly like a node does.
//
// Relations are created by the source node's owner in status pending and
// then driven through a two-party lifecycle: the target owner accepts or
// rejects, the source owner may retract (delete), and either owner may
// finish an accepted relation. A relation is jointly referenced by its
// source and target nodes but there is no cross-node atomicity: the
// "answer" is a second, independently authorized call, not a transaction
// spanning both records.
//
// Nothing is ever physically removed. Forgetting a document clears its
// indexed flag and a terminal relation keeps its record, preserving an
// auditable history and the positional stability of prior reads.
package graph

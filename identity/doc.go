// Package identity provides deterministic identifier derivation for graph
// objects and opaque account identities for their owners.
//
// Every object in the system has a 32-byte id computed as a SHA-256 digest
// over the in-order concatenation of its stable inputs. Identical inputs
// always yield the identical id; concatenation order is part of the
// contract, so reordering the same inputs yields a different id. This
// determinism is load-bearing: it lets two independent parties agree on an
// id out-of-band without a lookup round-trip.
//
// Derivation rules:
//
//   - type id        = DeriveID(registry identity, type name)
//   - property id    = DeriveID(scope identity, owning type id, property name)
//   - node self id   = DeriveID(node address)
//   - document id    = DeriveID(owner identity, document URL)
//   - relation id    = DeriveID(edge type id, target address, descriptor)
//
// The helpers in this package encode those rules once, so callers never
// concatenate inputs by hand.
package identity

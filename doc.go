// Package sdk is the Context Protocol graph SDK: a schema-governed graph
// data store in which independent parties register verifiable knowledge
// objects and negotiate bidirectional relationships with explicit consent.
//
// The SDK is organized as a set of focused packages around a small core:
//
//   - identity: deterministic 32-byte content-hash identifiers. Every
//     object in the system (type, property, node, document, relation) has
//     an id derived from stable inputs, so two parties can agree on an id
//     out-of-band without a lookup round-trip.
//
//   - property: the typed property codec. Property values are a closed
//     tagged variant (string, number, date, time-of-day, boolean) with a
//     byte-exact wire encoding that must match across implementations.
//
//   - schema: the schema registry. Node types and edge types are
//     registered with declared property schemas; edge types additionally
//     record the allowed (edge type, source type, target type) paths.
//     All mutation is gated on the registry's administrator identity.
//
//   - graph: entity instances. A Node holds typed property values,
//     attached document references, and directed relations to other
//     nodes. Each relation carries its own lifecycle status driven by a
//     two-party state machine: the source owner proposes, the target
//     owner answers.
//
// Supporting packages provide the surfaces a deployment needs around the
// core: event (observable state-change notifications with slog and
// OpenTelemetry sinks), schemafile (YAML schema manifests), store
// (per-entity persistence with in-memory and Redis backends), directory
// (etcd-backed participant address exchange), and protoconv (protobuf
// Struct interchange for decoded property sets).
//
// # Getting started
//
//	admin := identity.New()
//	reg := schema.NewRegistry(identity.New(), admin)
//
//	orgType, _ := reg.RegisterNodeType(ctx, "Organization", admin)
//	personaType, _ := reg.RegisterNodeType(ctx, "Persona", admin)
//	worksAt, _ := reg.RegisterEdgeType(ctx, "WORKS_AT", orgType, personaType, admin)
//
//	org, _ := graph.NewNode(reg, orgType, identity.New(), identity.New())
//	persona, _ := graph.NewNode(reg, personaType, identity.New(), identity.New())
//
//	relID, _ := org.AddEdge(ctx, worksAt, persona, "ceo", org.Owner())
//	_ = persona.AnswerEdge(ctx, org, relID, graph.StatusAccepted)
//
// Errors across all packages are classified with the sentinel errors and
// structured Error type in this package; use errors.Is to test for
// ErrNotFound, ErrAlreadyExists, ErrInvalidArgument, ErrUnauthorized, and
// ErrInvalidTransition.
package sdk

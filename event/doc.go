// Package event defines the observable state-change notifications emitted
// by the schema registry and by graph nodes, one per successful mutating
// operation. Failed operations emit nothing: validation precedes mutation,
// so an operation either fully applies or leaves no trace.
//
// Events flow through the Sink interface. The package ships four sinks:
// Discard (the default), SlogSink for structured logging, Recorder for
// capturing events in tests, and OTelSink for OpenTelemetry span events
// and counters. Fanout combines several sinks.
package event

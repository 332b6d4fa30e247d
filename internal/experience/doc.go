// Package experience defines the authored data model a guided experience is
// built from: ordered steps, guest responses, and the outcome configuration
// describing what artifact the experience produces.
//
// The package also owns the step-type registry, which supplies per-type
// metadata (capture category, answered predicates, default configs) consumed
// by the runtime sequencer and by outcome validation. Everything here is
// plain data plus pure lookups; mutation and control flow live in the runtime
// and capture packages.
package experience

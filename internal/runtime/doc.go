// Package runtime drives a guest through an experience's step list.
//
// The sequencer owns the current index and the transition preconditions;
// the response store owns per-step payloads. Both are created fresh per
// session and hold no cross-session identity. Capture steps delegate to the
// capture engine; the sequencer only observes whether a usable response has
// been recorded for the active step.
package runtime

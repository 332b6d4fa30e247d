// Package logging assembles structured slog loggers and formatting helpers
// used across docent components.
//
// It centralizes level and output plumbing, exposes attr helper aliases so
// call sites do not import slog directly, and provides component loggers plus
// a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the system.
package logging

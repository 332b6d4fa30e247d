// Package outcome validates an experience's outcome configuration against
// its step list before publishing.
//
// Validation is a pure function: all applicable rules run, errors accumulate
// rather than short-circuit, and identical inputs always yield the same
// error list in the same order. Nothing here mutates the config or steps.
package outcome

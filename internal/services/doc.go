// Package services holds the shared error taxonomy used by docent's runtime
// and host components.
//
// Errors raised inside the capture engine, the session store, or the daemon
// are wrapped with one of the exported sentinel markers so callers can
// classify failures without inspecting message text. The markers also drive
// the session status a failure is persisted with.
package services

// Package sessions persists experiences, runtime sessions, per-step
// responses, and uploaded capture assets in SQLite.
//
// The store applies WAL mode and retries busy errors with backoff so the
// daemon, the IPC surface, and tests can share one database file. Runtime
// state machines never live here; rows record what the runtime decided.
package sessions

// Package daemon hosts the long-running docent process: it enforces
// single-instance execution, keeps the registry of live guest sessions,
// watches the camera for hotplug events, and reclaims sessions abandoned at
// the kiosk.
//
// The kiosk front end embeds the daemon in-process and drives sessions
// through StartSession and ResumeSession. Operator tooling reaches the same
// daemon over the IPC socket.
package daemon

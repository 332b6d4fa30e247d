// Package capture owns the photo-capture flow for capture steps: camera
// permission negotiation, live stream lifecycle, frame capture with
// aspect-ratio cropping, and upload coordination.
//
// Two orthogonal state machines compose the engine. The permission axis
// tracks the platform's authorization status (unknown, undetermined,
// granted, denied, unavailable); the capture axis tracks the flow phase
// (camera active, preview, uploading, resolved, error). Every event has a
// defined effect, including no-ops, for every reachable state.
//
// The engine holds no ambient globals: the camera, preview, and upload
// collaborators are injected, and session identity is passed at
// construction. Stream handles and preview resources are owned by exactly
// one engine and released on every exit path, including acquisitions that
// complete after teardown.
package capture

package capture

import (
	"context"
	"image"

	"docent/internal/experience"
)

// PermissionState is the platform-reported camera authorization status.
type PermissionState string

const (
	// PermissionUnknown is the initial state while the platform query is pending.
	PermissionUnknown PermissionState = "unknown"
	// PermissionUndetermined means the platform will prompt on request.
	PermissionUndetermined PermissionState = "undetermined"
	PermissionGranted      PermissionState = "granted"
	PermissionDenied       PermissionState = "denied"
	// PermissionUnavailable means no camera hardware is present. Terminal on
	// the permission axis; only the library fallback remains.
	PermissionUnavailable PermissionState = "unavailable"
)

// Facing selects which camera a stream is acquired from.
type Facing string

const (
	FacingFront Facing = "front"
	FacingBack  Facing = "back"
)

// Toggle returns the opposite facing.
func (f Facing) Toggle() Facing {
	if f == FacingBack {
		return FacingFront
	}
	return FacingBack
}

// Camera is the platform surface for permission queries and stream
// acquisition. Implementations must be safe for use from the engine's
// internal goroutines.
type Camera interface {
	QueryPermission(ctx context.Context) (PermissionState, error)
	RequestPermission(ctx context.Context) (PermissionState, error)
	AcquireStream(ctx context.Context, facing Facing) (Stream, error)
}

// Stream is a live camera feed. Stop releases the underlying hardware and
// must be tolerated more than once.
type Stream interface {
	// Frame grabs the current frame. The image decode round-trip is a
	// suspension point; the engine passes its context through.
	Frame(ctx context.Context) (image.Image, error)
	Stop()
}

// UploadMetadata accompanies every asset upload. OwnerID feeds server-side
// authorization; StepID keeps assets traceable to their source step.
type UploadMetadata struct {
	SessionID string
	StepID    string
	OwnerID   string
}

// Uploader is the storage collaborator receiving confirmed captures.
type Uploader interface {
	Upload(ctx context.Context, data []byte, meta UploadMetadata) (experience.MediaRef, error)
}

// Recorder receives the media reference once an upload resolves. The runtime
// session implements this to land the reference in its response store.
type Recorder interface {
	RecordCapture(stepID string, ref experience.MediaRef)
}

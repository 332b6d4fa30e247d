package capture

// Phase is the UI-facing stage of the capture flow.
type Phase string

const (
	// PhaseCameraActive means the engine is (or is becoming) live and
	// awaiting a capture. StreamLive distinguishes a feed that has actually
	// attached from one still being acquired.
	PhaseCameraActive Phase = "camera-active"
	// PhasePreview means a captured photo awaits confirm or retake.
	PhasePreview Phase = "photo-preview"
	// PhaseUploading means the confirmed photo is in flight to storage.
	PhaseUploading Phase = "uploading"
	// PhaseResolved means the upload landed and the step has its response.
	PhaseResolved Phase = "resolved"
	// PhaseError holds a human-readable message plus a recovery action.
	PhaseError Phase = "error"
)

// ErrorKind classifies capture-flow failures for recovery routing.
type ErrorKind string

const (
	ErrorNone          ErrorKind = ""
	ErrorCaptureFailed ErrorKind = "capture_failed"
	ErrorCameraInUse   ErrorKind = "camera_in_use"
	ErrorInvalidFile   ErrorKind = "invalid_file_type"
	ErrorUploadFailed  ErrorKind = "upload_failed"
	ErrorNoHardware    ErrorKind = "no_hardware"
)

// Method records how a photo was obtained.
type Method string

const (
	MethodCamera  Method = "camera"
	MethodLibrary Method = "library"
)

// CapturedPhoto is the engine's in-flight asset: raw bytes plus the revocable
// preview resource. Owned exclusively by the active capture session.
type CapturedPhoto struct {
	Preview Preview
	Data    []byte
	Method  Method
	Width   int
	Height  int
}

// State is an immutable snapshot of both state machine axes, published to
// subscribers after every transition.
type State struct {
	Permission PermissionState
	Phase      Phase
	StreamLive bool
	Facing     Facing
	Photo      *CapturedPhoto
	ErrorKind  ErrorKind
	// Message and Recovery pair a human-readable failure description with
	// the concrete action that clears it.
	Message  string
	Recovery string
}

// CanUseCamera reports whether camera capture is possible at all.
func (s State) CanUseCamera() bool {
	return s.Permission == PermissionGranted
}

// LibraryFallbackOffered reports whether the library picker should be shown.
// It is offered in every permission state; it is the only path out of
// denied and unavailable.
func (s State) LibraryFallbackOffered() bool { return true }

package capture

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/png"

	"docent/internal/experience"
	"docent/internal/logging"
	"docent/internal/services"
)

// SessionInfo carries the identity metadata attached to uploads.
type SessionInfo struct {
	SessionID string
	StepID    string
	OwnerID   string
}

// Options tunes the capture pipeline for one step.
type Options struct {
	// TargetWidth and TargetHeight define the crop aspect ratio.
	TargetWidth  int
	TargetHeight int
	// MirrorFront flips front-facing captures horizontally.
	MirrorFront bool
	// Facing selects the initial camera.
	Facing Facing
}

func (o Options) withDefaults() Options {
	if o.TargetWidth <= 0 || o.TargetHeight <= 0 {
		o.TargetWidth, o.TargetHeight = 3, 4
	}
	if o.Facing == "" {
		o.Facing = FacingFront
	}
	return o
}

// Engine composes the permission and capture state machines for a single
// capture step. All transitions happen under one mutex; asynchronous work
// (acquisition, upload) re-enters through token-checked completion handlers
// so completions for superseded attempts are discarded.
type Engine struct {
	camera   Camera
	previews Previews
	uploader Uploader
	recorder Recorder
	logger   *slog.Logger
	session  SessionInfo
	opts     Options

	mu         sync.Mutex
	perm       PermissionState
	phase      Phase
	stream     Stream
	streamLive bool
	facing     Facing
	photo      *CapturedPhoto
	errKind    ErrorKind
	message    string
	recovery   string
	// attempt is the generation token. Bumped whenever in-flight async work
	// is superseded (retake, switch, teardown) so stale completions are
	// ignored instead of overwriting newer state.
	attempt uint64
	closed  bool

	updates chan State
	wg      sync.WaitGroup
}

// NewEngine wires an engine to its platform collaborators. Call Start to
// begin permission negotiation.
func NewEngine(camera Camera, previews Previews, uploader Uploader, recorder Recorder, session SessionInfo, opts Options, logger *slog.Logger) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		camera:   camera,
		previews: previews,
		uploader: uploader,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "capture"),
		session:  session,
		opts:     opts,
		perm:     PermissionUnknown,
		phase:    PhaseCameraActive,
		facing:   opts.Facing,
		updates:  make(chan State, 16),
	}
}

// Updates delivers a state snapshot after every transition. Snapshots are
// dropped, never blocked on, when the subscriber lags.
func (e *Engine) Updates() <-chan State { return e.updates }

// State returns a snapshot of both axes.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() State {
	return State{
		Permission: e.perm,
		Phase:      e.phase,
		StreamLive: e.streamLive,
		Facing:     e.facing,
		Photo:      e.photo,
		ErrorKind:  e.errKind,
		Message:    e.message,
		Recovery:   e.recovery,
	}
}

func (e *Engine) publishLocked() {
	select {
	case e.updates <- e.snapshotLocked():
	default:
	}
}

// Start queries the platform permission state and, on a pre-existing grant,
// begins stream acquisition immediately (skipping the prompt).
func (e *Engine) Start(ctx context.Context) {
	perm, err := e.camera.QueryPermission(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err != nil {
		e.logger.Warn("permission query failed", logging.Error(err))
		perm = PermissionUnavailable
	}
	e.applyPermissionLocked(ctx, perm)
}

// RequestPermission runs the platform prompt. Meaningful from undetermined;
// from denied it re-prompts (platforms that hard-deny return denied again
// and the settings guidance stays up). A no-op in any other state.
func (e *Engine) RequestPermission(ctx context.Context) {
	e.mu.Lock()
	if e.closed || (e.perm != PermissionUndetermined && e.perm != PermissionDenied) {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	perm, err := e.camera.RequestPermission(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err != nil {
		e.logger.Warn("permission request failed", logging.Error(err))
		perm = PermissionDenied
	}
	e.applyPermissionLocked(ctx, perm)
}

func (e *Engine) applyPermissionLocked(ctx context.Context, perm PermissionState) {
	e.perm = perm
	switch perm {
	case PermissionGranted:
		e.clearErrorLocked()
		e.beginAcquireLocked(ctx, e.facing)
	case PermissionDenied:
		e.message = "Camera access was denied."
		e.recovery = "Allow camera access in system settings and reload, or upload a photo instead."
	case PermissionUnavailable:
		e.errKind = ErrorNoHardware
		e.message = "No camera was found on this device."
		e.recovery = "Upload a photo from your library instead."
	}
	e.publishLocked()
}

// beginAcquireLocked starts an asynchronous stream acquisition for the
// current attempt. The completion handler discards the stream if the engine
// was torn down or the attempt superseded while the request was in flight;
// an orphaned stream would keep the camera lit.
func (e *Engine) beginAcquireLocked(ctx context.Context, facing Facing) {
	token := e.attempt
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		stream, err := e.camera.AcquireStream(ctx, facing)
		e.attachStream(token, stream, err)
	}()
}

func (e *Engine) attachStream(token uint64, stream Stream, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || token != e.attempt {
		if stream != nil {
			stream.Stop()
		}
		return
	}
	if err != nil {
		kind := ErrorCaptureFailed
		if strings.Contains(strings.ToLower(err.Error()), "busy") || strings.Contains(strings.ToLower(err.Error()), "in use") {
			kind = ErrorCameraInUse
		}
		e.logger.Warn("stream acquisition failed", logging.Error(err))
		e.failLocked(kind, "The camera could not be started.", "Try again, or upload a photo instead.")
		return
	}
	if e.stream != nil {
		e.stream.Stop()
	}
	e.stream = stream
	e.streamLive = true
	e.publishLocked()
}

// Capture grabs a frame from the live stream, crops it to the target aspect
// ratio, and moves to preview. A no-op unless the camera is active and live.
// The frame grab runs outside the lock; a Suspend, SwitchCamera, or teardown
// arriving mid-grab supersedes the attempt and the frame is dropped instead
// of landing a preview from the old camera.
func (e *Engine) Capture(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.phase != PhaseCameraActive || !e.streamLive || e.stream == nil {
		e.mu.Unlock()
		return
	}
	token := e.attempt
	stream := e.stream
	facing := e.facing
	e.mu.Unlock()

	frame, err := stream.Frame(ctx)
	if err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || token != e.attempt {
			return
		}
		e.logger.Warn("frame capture failed", logging.Error(err))
		e.failLocked(ErrorCaptureFailed, "The photo could not be taken.", "Try again, or upload a photo instead.")
		return
	}

	mirror := e.opts.MirrorFront && facing == FacingFront
	data, width, height, err := RenderFrame(frame, e.opts.TargetWidth, e.opts.TargetHeight, mirror)
	if err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || token != e.attempt {
			return
		}
		e.logger.Warn("frame render failed", logging.Error(err))
		e.failLocked(ErrorCaptureFailed, "The photo could not be processed.", "Try again, or upload a photo instead.")
		return
	}

	e.installPhoto(token, data, width, height, MethodCamera)
}

// PickFromLibrary is the fallback path: it validates the selected bytes and
// jumps straight to preview, bypassing the camera entirely. Available in
// every permission state.
func (e *Engine) PickFromLibrary(data []byte) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			return
		}
		e.failLocked(ErrorInvalidFile, "That file is not a supported image.", "Choose a JPEG, PNG, or GIF file.")
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	token := e.attempt
	e.mu.Unlock()
	e.installPhoto(token, data, cfg.Width, cfg.Height, MethodLibrary)
}

// installPhoto moves a validated photo into preview. The token pins the
// attempt the photo belongs to; a stale token means the attempt was
// superseded while the photo was being produced, and the fresh preview is
// released rather than installed.
func (e *Engine) installPhoto(token uint64, data []byte, width, height int, method Method) {
	preview, err := e.previews.NewPreview(data)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || token != e.attempt {
		if preview != nil {
			_ = preview.Release()
		}
		return
	}
	if err != nil {
		e.logger.Warn("preview creation failed", logging.Error(err))
		e.failLocked(ErrorCaptureFailed, "The photo could not be processed.", "Try again, or upload a photo instead.")
		return
	}

	// A library pick can replace a photo already in preview; the old preview
	// must still be released exactly once.
	e.releasePhotoLocked()
	e.photo = &CapturedPhoto{Preview: preview, Data: data, Method: method, Width: width, Height: height}
	e.phase = PhasePreview
	e.clearErrorLocked()
	e.publishLocked()
}

// Retake discards the previewed photo and returns to the live camera. Any
// in-flight upload for the discarded photo is superseded; its completion
// will be ignored. A no-op outside preview and error states.
func (e *Engine) Retake(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || (e.phase != PhasePreview && e.phase != PhaseError && e.phase != PhaseUploading) {
		return
	}
	e.attempt++
	e.releasePhotoLocked()
	e.clearErrorLocked()
	e.phase = PhaseCameraActive
	if e.perm == PermissionGranted && !e.streamLive {
		e.beginAcquireLocked(ctx, e.facing)
	}
	e.publishLocked()
}

// Confirm hands the photo to the storage collaborator. Valid from preview,
// and from an upload error (retry re-attempts without re-capturing). On
// success the media reference is recorded and the preview released; on
// failure the photo is kept so retry needs no new capture.
func (e *Engine) Confirm(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.photo == nil {
		return
	}
	if e.phase != PhasePreview && !(e.phase == PhaseError && e.errKind == ErrorUploadFailed) {
		return
	}

	e.phase = PhaseUploading
	e.clearErrorLocked()
	e.publishLocked()

	token := e.attempt
	data := e.photo.Data
	width, height := e.photo.Width, e.photo.Height
	meta := UploadMetadata(e.session)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ref, err := e.uploader.Upload(ctx, data, meta)
		if err == nil {
			ref.Width, ref.Height = width, height
		}
		e.finishUpload(token, ref, err)
	}()
}

func (e *Engine) finishUpload(token uint64, ref experience.MediaRef, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || token != e.attempt || e.phase != PhaseUploading {
		// Superseded by a retake or teardown; the newer attempt owns state.
		return
	}
	if err != nil {
		e.logger.Warn("asset upload failed",
			logging.Error(err),
			logging.String(logging.FieldStepID, e.session.StepID),
		)
		e.failLocked(ErrorUploadFailed, "The photo could not be uploaded.", "Check your connection and try again.")
		return
	}

	if e.recorder != nil {
		e.recorder.RecordCapture(e.session.StepID, ref)
	}
	e.releasePhotoLocked()
	e.stopStreamLocked()
	e.phase = PhaseResolved
	e.clearErrorLocked()
	e.logger.Info("capture resolved",
		logging.String(logging.FieldStepID, e.session.StepID),
		logging.String("asset_id", ref.AssetID),
	)
	e.publishLocked()
}

// SwitchCamera flips between front and back. The previous stream is fully
// stopped before the new acquisition starts; two streams are never live at
// once. A no-op unless the camera is active.
func (e *Engine) SwitchCamera(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.perm != PermissionGranted || e.phase != PhaseCameraActive {
		return
	}
	e.attempt++
	e.stopStreamLocked()
	e.facing = e.facing.Toggle()
	e.beginAcquireLocked(ctx, e.facing)
	e.publishLocked()
}

// Suspend is the explicit external event for the host going invisible. The
// stream is stopped; phase and photo are kept.
func (e *Engine) Suspend() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.attempt++
	e.stopStreamLocked()
	e.publishLocked()
}

// Resume reacquires the stream after a Suspend when the camera phase is
// still active. A no-op otherwise.
func (e *Engine) Resume(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.perm != PermissionGranted || e.phase != PhaseCameraActive || e.streamLive {
		return
	}
	e.beginAcquireLocked(ctx, e.facing)
}

// SetHardwareAvailable feeds camera hotplug events into the permission axis.
// Removal forces unavailable and kills any live stream; arrival re-runs the
// platform query from scratch.
func (e *Engine) SetHardwareAvailable(ctx context.Context, present bool) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if !present {
		e.attempt++
		e.stopStreamLocked()
		e.applyPermissionLocked(ctx, PermissionUnavailable)
		e.mu.Unlock()
		return
	}
	if e.perm != PermissionUnavailable {
		e.mu.Unlock()
		return
	}
	e.perm = PermissionUnknown
	e.clearErrorLocked()
	e.publishLocked()
	e.mu.Unlock()
	e.Start(ctx)
}

// Close tears the engine down: supersedes in-flight work, stops the stream,
// and releases any unreleased preview. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.attempt++
	e.stopStreamLocked()
	e.releasePhotoLocked()
	e.mu.Unlock()
	e.wg.Wait()
}

// Err reports the current error as a tagged service error, or nil.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseError {
		return nil
	}
	marker := services.ErrTransient
	switch e.errKind {
	case ErrorUploadFailed:
		marker = services.ErrUpload
	case ErrorNoHardware:
		marker = services.ErrHardware
	case ErrorInvalidFile:
		marker = services.ErrValidation
	}
	return services.Wrap(marker, "capture", string(e.errKind), e.message, nil)
}

func (e *Engine) failLocked(kind ErrorKind, message, recovery string) {
	e.phase = PhaseError
	e.errKind = kind
	e.message = message
	e.recovery = recovery
	e.publishLocked()
}

func (e *Engine) clearErrorLocked() {
	e.errKind = ErrorNone
	if e.perm != PermissionDenied && e.perm != PermissionUnavailable {
		e.message = ""
		e.recovery = ""
	}
}

func (e *Engine) stopStreamLocked() {
	if e.stream != nil {
		e.stream.Stop()
		e.stream = nil
	}
	e.streamLive = false
}

// releasePhotoLocked releases the preview resource exactly once and drops
// the photo. Safe to call with no photo present.
func (e *Engine) releasePhotoLocked() {
	if e.photo == nil {
		return
	}
	if e.photo.Preview != nil {
		if err := e.photo.Preview.Release(); err != nil {
			e.logger.Warn("preview release failed", logging.Error(err))
		}
	}
	e.photo = nil
}

package runtime

import (
	"context"
	"log/slog"

	"docent/internal/capture"
	"docent/internal/experience"
	"docent/internal/logging"
	"docent/internal/sessions"
)

// Persister is the slice of the session store the runtime writes through.
type Persister interface {
	SaveResponse(ctx context.Context, sessionID, stepID string, data experience.Response) error
	UpdateSessionProgress(ctx context.Context, sessionID string, stepIndex int) error
	UpdateSessionStatus(ctx context.Context, sessionID string, status sessions.Status, reason string) error
}

// Collaborators are the platform surfaces a session hands to capture engines.
type Collaborators struct {
	Camera   capture.Camera
	Previews capture.Previews
	Uploader capture.Uploader
}

// Session hosts one guest walkthrough: it owns the sequencer, persists
// responses as they land, and defers to a capture engine while the active
// step is a capture step. Exactly one caller drives navigation at a time;
// RecordCapture arrives from the engine's upload goroutine, and the backing
// response store tolerates that write racing the driver's reads.
type Session struct {
	id           string
	experienceID string
	ownerID      string
	steps        []experience.Step
	seq          *Sequencer
	store        Persister
	collab       Collaborators
	logger       *slog.Logger

	engine     *capture.Engine
	engineStep string
}

// NewSession builds a runtime session over an experience. Previously
// persisted responses seed the store so an interrupted walkthrough resumes
// where it left off.
func NewSession(id, ownerID string, exp *experience.Experience, store Persister, collab Collaborators, prior map[string]experience.Response, logger *slog.Logger) *Session {
	responses := NewResponses()
	for stepID, resp := range prior {
		responses.Set(stepID, resp)
	}
	return &Session{
		id:           id,
		experienceID: exp.ID,
		ownerID:      ownerID,
		steps:        exp.Steps,
		seq:          NewSequencer(exp.Steps, responses),
		store:        store,
		collab:       collab,
		logger:       logging.WithSession(logging.NewComponentLogger(logger, "runtime"), id, exp.ID),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// ExperienceID returns the hosted experience's identifier.
func (s *Session) ExperienceID() string { return s.experienceID }

// Sequencer exposes navigation state to the rendering layer.
func (s *Session) Sequencer() *Sequencer { return s.seq }

// Engine returns the live capture engine, or nil when the active step is not
// a capture step.
func (s *Session) Engine() *capture.Engine { return s.engine }

// Start activates the session at its first step, spinning up a capture
// engine if the experience opens with a capture step.
func (s *Session) Start(ctx context.Context) {
	s.syncEngine(ctx)
	s.persistProgress(ctx)
}

// Next advances the sequencer and reconciles the capture engine with the new
// active step. ErrBlocked propagates when the active step is unanswered.
func (s *Session) Next(ctx context.Context) error {
	if err := s.seq.Next(); err != nil {
		return err
	}
	s.syncEngine(ctx)
	s.persistProgress(ctx)
	if s.seq.IsComplete() {
		s.finish(ctx)
	}
	return nil
}

// Back steps backward, reconciling the capture engine.
func (s *Session) Back(ctx context.Context) {
	s.seq.Back()
	s.syncEngine(ctx)
	s.persistProgress(ctx)
}

// GoTo jumps to an absolute index. Out-of-range jumps leave state untouched.
func (s *Session) GoTo(ctx context.Context, index int) error {
	if err := s.seq.GoTo(index); err != nil {
		return err
	}
	s.syncEngine(ctx)
	s.persistProgress(ctx)
	if s.seq.IsComplete() {
		s.finish(ctx)
	}
	return nil
}

// SetResponse records a response and writes it through to storage.
func (s *Session) SetResponse(ctx context.Context, stepID string, data experience.Response) {
	s.seq.SetResponse(stepID, data)
	if s.store != nil {
		if err := s.store.SaveResponse(ctx, s.id, stepID, data); err != nil {
			s.logger.Warn("response persistence failed",
				logging.Error(err),
				logging.String(logging.FieldStepID, stepID),
			)
		}
	}
}

// GetResponse returns the stored response or the unanswered sentinel.
func (s *Session) GetResponse(stepID string) experience.Response {
	return s.seq.GetResponse(stepID)
}

// RecordCapture lands an uploaded media reference as the capture step's
// response. Implements capture.Recorder; called by the engine on upload
// success so the sequencer's precondition is immediately satisfied.
func (s *Session) RecordCapture(stepID string, ref experience.MediaRef) {
	s.SetResponse(context.Background(), stepID, experience.MediaResponse(ref))
}

// SetHardwareAvailable forwards camera hotplug events to the live engine.
func (s *Session) SetHardwareAvailable(ctx context.Context, present bool) {
	if s.engine != nil {
		s.engine.SetHardwareAvailable(ctx, present)
	}
}

// Close tears down any live capture engine. The sequencer needs no teardown.
func (s *Session) Close() {
	s.teardownEngine()
}

// syncEngine reconciles the capture engine with the active step: engines are
// created when a capture step becomes active and torn down when it stops
// being active, so stream and preview resources never outlive their step.
func (s *Session) syncEngine(ctx context.Context) {
	step, ok := s.seq.Current()
	isCapture := false
	if ok {
		if def, found := experience.Lookup(step.Type); found {
			isCapture = def.Capture && !def.ComingSoon
		}
	}

	if !isCapture {
		s.teardownEngine()
		return
	}
	if s.engine != nil && s.engineStep == step.ID {
		return
	}
	s.teardownEngine()

	s.engine = capture.NewEngine(
		s.collab.Camera,
		s.collab.Previews,
		s.collab.Uploader,
		s,
		capture.SessionInfo{SessionID: s.id, StepID: step.ID, OwnerID: s.ownerID},
		captureOptions(step),
		s.logger,
	)
	s.engineStep = step.ID
	s.engine.Start(ctx)
}

func (s *Session) teardownEngine() {
	if s.engine == nil {
		return
	}
	s.engine.Close()
	s.engine = nil
	s.engineStep = ""
}

func (s *Session) persistProgress(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.UpdateSessionProgress(ctx, s.id, s.seq.Index()); err != nil {
		s.logger.Warn("progress persistence failed", logging.Error(err))
	}
}

func (s *Session) finish(ctx context.Context) {
	if s.store != nil {
		if err := s.store.UpdateSessionStatus(ctx, s.id, sessions.StatusCompleted, ""); err != nil {
			s.logger.Warn("completion persistence failed", logging.Error(err))
		}
	}
	s.logger.Info("session complete", logging.Int("steps", s.seq.Len()))
}

var _ capture.Recorder = (*Session)(nil)

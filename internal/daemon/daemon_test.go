package daemon_test

import (
	"context"
	"image"
	"testing"

	"docent/internal/capture"
	"docent/internal/daemon"
	"docent/internal/experience"
	"docent/internal/logging"
	"docent/internal/runtime"
	"docent/internal/sessions"
	"docent/internal/testsupport"
)

type stubStream struct{}

func (stubStream) Frame(context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 64, 48)), nil
}
func (stubStream) Stop() {}

type stubCamera struct{}

func (stubCamera) QueryPermission(context.Context) (capture.PermissionState, error) {
	return capture.PermissionGranted, nil
}
func (stubCamera) RequestPermission(context.Context) (capture.PermissionState, error) {
	return capture.PermissionGranted, nil
}
func (stubCamera) AcquireStream(context.Context, capture.Facing) (capture.Stream, error) {
	return stubStream{}, nil
}

type stubPreview struct{}

func (stubPreview) URL() string    { return "mem://p" }
func (stubPreview) Release() error { return nil }

type stubPreviews struct{}

func (stubPreviews) NewPreview([]byte) (capture.Preview, error) { return stubPreview{}, nil }

type stubUploader struct{}

func (stubUploader) Upload(context.Context, []byte, capture.UploadMetadata) (experience.MediaRef, error) {
	return experience.MediaRef{AssetID: "a1", URL: "file:///a1.jpg"}, nil
}

func newTestDaemon(t *testing.T) (*daemon.Daemon, *sessions.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	collab := runtime.Collaborators{Camera: stubCamera{}, Previews: stubPreviews{}, Uploader: stubUploader{}}
	d, err := daemon.New(cfg, store, collab, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d, store
}

func surveyExperience(id string) *experience.Experience {
	return &experience.Experience{
		ID:    id,
		Title: "Gallery Tour",
		Steps: []experience.Step{
			{ID: "welcome", Type: experience.StepInfo},
			{ID: "rating", Type: experience.StepScale},
		},
	}
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	d, _ := newTestDaemon(t)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("second Start must fail")
	}
	d.Stop()
	if d.Running() {
		t.Fatal("daemon still running after Stop")
	}
}

func TestStartSessionRequiresPublishedExperience(t *testing.T) {
	d, store := newTestDaemon(t)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	exp := surveyExperience("exp-1")
	testsupport.SaveExperience(t, store, exp)

	if _, err := d.StartSession(ctx, "exp-1", "owner-1"); err == nil {
		t.Fatal("unpublished experience must not host sessions")
	}

	if _, err := d.PublishExperience(ctx, "exp-1", true); err != nil {
		t.Fatalf("PublishExperience: %v", err)
	}
	sess, err := d.StartSession(ctx, "exp-1", "owner-1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if d.Session(sess.ID()) != sess {
		t.Fatal("session not registered as live")
	}
	if got := d.Status(ctx).LiveSessions; got != 1 {
		t.Fatalf("live sessions = %d", got)
	}
}

func TestPublishGateBlocksInvalidOutcome(t *testing.T) {
	d, store := newTestDaemon(t)
	ctx := context.Background()

	exp := surveyExperience("exp-2")
	exp.Outcome = experience.OutcomeConfig{
		Type:  experience.OutcomePhoto,
		Photo: &experience.PhotoOutcome{},
	}
	testsupport.SaveExperience(t, store, exp)

	result, err := d.PublishExperience(ctx, "exp-2", true)
	if err == nil {
		t.Fatal("publish must be refused while validation fails")
	}
	if result.Valid || len(result.Errors) == 0 {
		t.Fatalf("expected validation errors, got %+v", result)
	}

	stored, err := store.GetExperience(ctx, "exp-2")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Published {
		t.Fatal("experience must remain unpublished")
	}

	// Unpublishing never consults the validator outcome.
	if _, err := d.PublishExperience(ctx, "exp-2", false); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
}

func TestResumeSessionSeedsPriorResponses(t *testing.T) {
	d, store := newTestDaemon(t)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	exp := surveyExperience("exp-3")
	testsupport.SaveExperience(t, store, exp)
	if _, err := d.PublishExperience(ctx, "exp-3", true); err != nil {
		t.Fatal(err)
	}

	sess, err := d.StartSession(ctx, "exp-3", "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	sess.SetResponse(ctx, "rating", experience.ScalarResponse(4))
	sessionID := sess.ID()

	// Simulate a daemon restart by dropping the live host.
	if err := d.EndSession(ctx, sessionID, "kiosk reset"); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	row, err := store.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if row.Status != sessions.StatusAbandoned {
		t.Fatalf("status = %s", row.Status)
	}

	// Abandoned sessions stay ended.
	if _, err := d.ResumeSession(ctx, sessionID); err == nil {
		t.Fatal("terminal session must not resume")
	}
}

func TestResumeRebuildsLiveHost(t *testing.T) {
	d, store := newTestDaemon(t)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	exp := surveyExperience("exp-4")
	testsupport.SaveExperience(t, store, exp)
	if _, err := d.PublishExperience(ctx, "exp-4", true); err != nil {
		t.Fatal(err)
	}
	row := testsupport.NewSession(t, store, "exp-4", "owner-1")
	if err := store.SaveResponse(ctx, row.ID, "rating", experience.ScalarResponse(5)); err != nil {
		t.Fatal(err)
	}

	sess, err := d.ResumeSession(ctx, row.ID)
	if err != nil {
		t.Fatalf("ResumeSession: %v", err)
	}
	if got := sess.GetResponse("rating"); !got.Answered() || got.Scalar != 5 {
		t.Fatalf("seeded response = %+v", got)
	}
	// Resuming again returns the same live host.
	again, err := d.ResumeSession(ctx, row.ID)
	if err != nil || again != sess {
		t.Fatalf("second resume = %v %v", again, err)
	}
}

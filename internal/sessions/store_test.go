package sessions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"docent/internal/experience"
	"docent/internal/services"
	"docent/internal/sessions"
)

func openStore(t *testing.T) *sessions.Store {
	t.Helper()
	store, err := sessions.Open(t.TempDir())
	if err != nil {
		t.Fatalf("sessions.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedExperience(t *testing.T, store *sessions.Store) *experience.Experience {
	t.Helper()
	exp := &experience.Experience{
		ID:    "exp-1",
		Title: "Gallery Tour",
		Steps: []experience.Step{
			{ID: "intro", Type: experience.StepInfo, Title: "Welcome"},
			{ID: "selfie", Type: experience.StepPhoto},
		},
		Outcome: experience.OutcomeConfig{
			Type:  experience.OutcomePhoto,
			Photo: &experience.PhotoOutcome{CaptureStepID: "selfie"},
		},
	}
	if err := store.SaveExperience(context.Background(), exp); err != nil {
		t.Fatalf("SaveExperience: %v", err)
	}
	return exp
}

func TestExperienceRoundTrip(t *testing.T) {
	store := openStore(t)
	seedExperience(t, store)

	got, err := store.GetExperience(context.Background(), "exp-1")
	if err != nil {
		t.Fatalf("GetExperience: %v", err)
	}
	if got.Title != "Gallery Tour" || len(got.Steps) != 2 {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if got.Outcome.Type != experience.OutcomePhoto || got.Outcome.Photo == nil {
		t.Fatalf("outcome lost: %+v", got.Outcome)
	}
	if got.Outcome.Photo.CaptureStepID != "selfie" {
		t.Fatalf("capture step = %q", got.Outcome.Photo.CaptureStepID)
	}
}

func TestGetExperienceNotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.GetExperience(context.Background(), "nope")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := openStore(t)
	seedExperience(t, store)
	ctx := context.Background()

	session, err := store.NewSession(ctx, "exp-1", "owner-1")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if session.Status != sessions.StatusPending {
		t.Fatalf("status = %s", session.Status)
	}

	if err := store.UpdateSessionProgress(ctx, session.ID, 1); err != nil {
		t.Fatalf("UpdateSessionProgress: %v", err)
	}
	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != sessions.StatusActive || got.StepIndex != 1 {
		t.Fatalf("session = %+v", got)
	}

	if err := store.UpdateSessionStatus(ctx, session.ID, sessions.StatusCompleted, ""); err != nil {
		t.Fatalf("UpdateSessionStatus: %v", err)
	}
	got, err = store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Status.Terminal() {
		t.Fatalf("expected terminal status, got %s", got.Status)
	}
}

func TestNewSessionRequiresExperience(t *testing.T) {
	store := openStore(t)
	_, err := store.NewSession(context.Background(), "ghost", "owner-1")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResponsePersistenceOverwrites(t *testing.T) {
	store := openStore(t)
	seedExperience(t, store)
	ctx := context.Background()
	session, err := store.NewSession(ctx, "exp-1", "owner-1")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SaveResponse(ctx, session.ID, "intro", experience.TextResponse("first")); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}
	if err := store.SaveResponse(ctx, session.ID, "intro", experience.TextResponse("second")); err != nil {
		t.Fatalf("SaveResponse overwrite: %v", err)
	}

	responses, err := store.ResponsesFor(ctx, session.ID)
	if err != nil {
		t.Fatalf("ResponsesFor: %v", err)
	}
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses["intro"].Text != "second" {
		t.Fatalf("overwrite lost: %+v", responses["intro"])
	}
}

func TestReclaimStaleAbandonsIdleSessions(t *testing.T) {
	store := openStore(t)
	seedExperience(t, store)
	ctx := context.Background()

	stale, err := store.NewSession(ctx, "exp-1", "owner-1")
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(20 * time.Millisecond)

	fresh, err := store.NewSession(ctx, "exp-1", "owner-2")
	if err != nil {
		t.Fatal(err)
	}

	reclaimed, err := store.ReclaimStale(ctx, cutoff)
	if err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("reclaimed = %d, want 1", reclaimed)
	}

	got, err := store.GetSession(ctx, stale.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != sessions.StatusAbandoned {
		t.Fatalf("stale session status = %s", got.Status)
	}
	got, err = store.GetSession(ctx, fresh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != sessions.StatusPending {
		t.Fatalf("fresh session status = %s", got.Status)
	}
}

func TestAssetRoundTrip(t *testing.T) {
	store := openStore(t)
	seedExperience(t, store)
	ctx := context.Background()
	session, err := store.NewSession(ctx, "exp-1", "owner-1")
	if err != nil {
		t.Fatal(err)
	}

	asset := &sessions.AssetRow{
		ID:        "asset-1",
		SessionID: session.ID,
		StepID:    "selfie",
		OwnerID:   "owner-1",
		Path:      "/assets/asset-1.jpg",
		URL:       "file:///assets/asset-1.jpg",
		Width:     810,
		Height:    1080,
	}
	if err := store.SaveAsset(ctx, asset); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}

	assets, err := store.AssetsFor(ctx, session.ID)
	if err != nil {
		t.Fatalf("AssetsFor: %v", err)
	}
	if len(assets) != 1 || assets[0].Width != 810 {
		t.Fatalf("assets = %+v", assets)
	}
}

func TestHealthCounts(t *testing.T) {
	store := openStore(t)
	seedExperience(t, store)
	ctx := context.Background()

	first, _ := store.NewSession(ctx, "exp-1", "a")
	if _, err := store.NewSession(ctx, "exp-1", "b"); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateSessionStatus(ctx, first.ID, sessions.StatusCompleted, ""); err != nil {
		t.Fatal(err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Pending != 1 || health.Completed != 1 {
		t.Fatalf("health = %+v", health)
	}
}

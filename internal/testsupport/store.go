package testsupport

import (
	"context"
	"testing"

	"docent/internal/config"
	"docent/internal/experience"
	"docent/internal/sessions"
)

// MustOpenStore opens a sessions.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sessions.Store {
	t.Helper()

	store, err := sessions.Open(cfg.Paths.DataDir)
	if err != nil {
		t.Fatalf("sessions.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveExperience persists an experience for tests using the provided store.
func SaveExperience(t testing.TB, store *sessions.Store, exp *experience.Experience) {
	t.Helper()

	if err := store.SaveExperience(context.Background(), exp); err != nil {
		t.Fatalf("store.SaveExperience: %v", err)
	}
}

// NewSession creates a session for tests using the provided store.
func NewSession(t testing.TB, store *sessions.Store, experienceID, ownerID string) *sessions.Session {
	t.Helper()

	sess, err := store.NewSession(context.Background(), experienceID, ownerID)
	if err != nil {
		t.Fatalf("store.NewSession: %v", err)
	}
	return sess
}

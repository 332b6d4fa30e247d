package testsupport

import (
	"path/filepath"
	"testing"

	"docent/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.AssetsDir = filepath.Join(base, "assets")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "docent.sock")
	cfg.Capture.Device = ""
	cfg.Runtime.ReclaimInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithCaptureDevice sets the hotplug device on the test config.
func WithCaptureDevice(path string) ConfigOption {
	return func(c *config.Config) {
		c.Capture.Device = path
	}
}

// WithIdleTimeout overrides the session idle timeout in seconds.
func WithIdleTimeout(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Runtime.SessionIdleTimeout = seconds
	}
}

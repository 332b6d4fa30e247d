package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"docent/internal/config"
	"docent/internal/experience"
	"docent/internal/logging"
	"docent/internal/outcome"
	"docent/internal/runtime"
	"docent/internal/services"
	"docent/internal/sessions"
)

// Daemon coordinates session hosting and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *sessions.Store
	collab runtime.Collaborators

	lockPath string
	lock     *flock.Flock
	monitor  *cameraMonitor

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu   sync.Mutex
	live map[string]*runtime.Session
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	DBPath       string
	SocketPath   string
	LiveSessions int
	Sessions     sessions.HealthSummary
	CameraWatch  bool
}

// New constructs a daemon with initialized dependencies. Collaborators supply
// the platform surfaces handed to capture engines.
func New(cfg *config.Config, store *sessions.Store, collab runtime.Collaborators, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "docentd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		collab:   collab,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		live:     make(map[string]*runtime.Session),
	}, nil
}

// Start acquires the daemon lock and launches background housekeeping.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another docent daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	d.monitor = newCameraMonitor(d.cfg, d.logger, d.setHardwareAvailable)
	if err := d.monitor.Start(d.ctx); err != nil {
		d.logger.Warn("camera monitor unavailable", logging.Error(err))
	}

	d.wg.Add(1)
	go d.reclaimLoop(d.ctx)

	d.running.Store(true)
	d.logger.Info("docent daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

// Stop abandons live sessions, halts housekeeping, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	for id, sess := range d.live {
		sess.Close()
		delete(d.live, id)
	}
	d.mu.Unlock()

	if _, err := d.store.AbandonActive(context.Background(), sessions.DaemonStopReason); err != nil {
		d.logger.Warn("abandoning active sessions failed", logging.Error(err))
	}

	if d.monitor != nil {
		d.monitor.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("docent daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	if d.cfg.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(d.cfg.Paths.LogDir, "docent.log")
}

// Status summarizes daemon state for operator tooling.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		DBPath:       d.store.Path(),
		SocketPath:   d.cfg.Paths.SocketPath,
		CameraWatch:  d.monitor.Running(),
	}
	d.mu.Lock()
	status.LiveSessions = len(d.live)
	d.mu.Unlock()

	if health, err := d.store.Health(ctx); err == nil {
		status.Sessions = health
	} else {
		d.logger.Warn("session health query failed", logging.Error(err))
	}
	return status
}

// StartSession creates a session over a published experience and activates
// its runtime host.
func (d *Daemon) StartSession(ctx context.Context, experienceID, ownerID string) (*runtime.Session, error) {
	exp, err := d.store.GetExperience(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	if !exp.Published {
		return nil, services.Wrap(services.ErrValidation, "daemon", "start session", "experience is not published", nil)
	}

	row, err := d.store.NewSession(ctx, experienceID, ownerID)
	if err != nil {
		return nil, err
	}
	return d.hostSession(ctx, row, exp, nil)
}

// ResumeSession rebuilds the runtime host for a persisted session, seeding it
// with previously recorded responses.
func (d *Daemon) ResumeSession(ctx context.Context, sessionID string) (*runtime.Session, error) {
	d.mu.Lock()
	if sess, ok := d.live[sessionID]; ok {
		d.mu.Unlock()
		return sess, nil
	}
	d.mu.Unlock()

	row, err := d.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if row.Status.Terminal() {
		return nil, services.Wrap(services.ErrValidation, "daemon", "resume session", "session already ended", nil)
	}
	exp, err := d.store.GetExperience(ctx, row.ExperienceID)
	if err != nil {
		return nil, err
	}
	prior, err := d.store.ResponsesFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return d.hostSession(ctx, row, exp, prior)
}

func (d *Daemon) hostSession(ctx context.Context, row *sessions.Session, exp *experience.Experience, prior map[string]experience.Response) (*runtime.Session, error) {
	sess := runtime.NewSession(row.ID, row.OwnerID, exp, d.store, d.collab, prior, d.logger)

	d.mu.Lock()
	d.live[row.ID] = sess
	d.mu.Unlock()

	sess.Start(ctx)
	d.logger.Info("session hosted",
		logging.String(logging.FieldSessionID, row.ID),
		logging.String(logging.FieldExperienceID, row.ExperienceID),
		logging.String(logging.FieldEventType, "session_start"))
	return sess, nil
}

// EndSession abandons a live session and removes it from the registry.
func (d *Daemon) EndSession(ctx context.Context, sessionID, reason string) error {
	d.mu.Lock()
	sess, ok := d.live[sessionID]
	if ok {
		sess.Close()
		delete(d.live, sessionID)
	}
	d.mu.Unlock()

	row, err := d.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if row.Status.Terminal() {
		return nil
	}
	return d.store.UpdateSessionStatus(ctx, sessionID, sessions.StatusAbandoned, reason)
}

// Session returns a live session host, or nil when none is registered.
func (d *Daemon) Session(sessionID string) *runtime.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[sessionID]
}

// ListExperiences returns all stored experiences.
func (d *Daemon) ListExperiences(ctx context.Context) ([]*experience.Experience, error) {
	return d.store.ListExperiences(ctx)
}

// GetExperience fetches one experience by id.
func (d *Daemon) GetExperience(ctx context.Context, id string) (*experience.Experience, error) {
	return d.store.GetExperience(ctx, id)
}

// SaveExperience normalizes and persists an experience definition.
func (d *Daemon) SaveExperience(ctx context.Context, exp *experience.Experience) error {
	if err := exp.Normalize(); err != nil {
		return services.Wrap(services.ErrValidation, "daemon", "save experience", err.Error(), nil)
	}
	return d.store.SaveExperience(ctx, exp)
}

// ValidateExperience runs the outcome validator against a stored experience.
func (d *Daemon) ValidateExperience(ctx context.Context, id string) (outcome.Result, error) {
	exp, err := d.store.GetExperience(ctx, id)
	if err != nil {
		return outcome.Result{}, err
	}
	return outcome.Validate(exp.Outcome, exp.Steps), nil
}

// PublishExperience flips the published flag. Publishing is refused while the
// outcome validator reports errors; unpublishing always succeeds.
func (d *Daemon) PublishExperience(ctx context.Context, id string, published bool) (outcome.Result, error) {
	result, err := d.ValidateExperience(ctx, id)
	if err != nil {
		return outcome.Result{}, err
	}
	if published && !result.Valid {
		return result, services.Wrap(services.ErrValidation, "daemon", "publish experience", "outcome configuration has errors", nil)
	}
	return result, d.store.SetPublished(ctx, id, published)
}

// ListSessions returns persisted sessions filtered by status.
func (d *Daemon) ListSessions(ctx context.Context, statuses ...sessions.Status) ([]*sessions.Session, error) {
	return d.store.ListSessions(ctx, statuses...)
}

// setHardwareAvailable fans a camera hotplug event out to every live session.
func (d *Daemon) setHardwareAvailable(ctx context.Context, present bool) {
	d.mu.Lock()
	hosts := make([]*runtime.Session, 0, len(d.live))
	for _, sess := range d.live {
		hosts = append(hosts, sess)
	}
	d.mu.Unlock()

	for _, sess := range hosts {
		sess.SetHardwareAvailable(ctx, present)
	}
	d.logger.Info("camera availability changed",
		logging.Bool("present", present),
		logging.Int("live_sessions", len(hosts)),
		logging.String(logging.FieldEventType, "camera_hotplug"))
}

// reclaimLoop periodically abandons sessions idle past the configured
// timeout. Live sessions keep their rows fresh through progress writes, so
// only walkthroughs nobody is driving age out.
func (d *Daemon) reclaimLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Runtime.ReclaimInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.reclaimOnce(ctx)
		}
	}
}

func (d *Daemon) reclaimOnce(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(d.cfg.Runtime.SessionIdleTimeout) * time.Second)
	reclaimed, err := d.store.ReclaimStale(ctx, cutoff)
	if err != nil {
		d.logger.Warn("stale session reclaim failed", logging.Error(err))
		return
	}
	if reclaimed > 0 {
		d.logger.Info("stale sessions reclaimed",
			logging.Int64("reclaimed", reclaimed),
			logging.String(logging.FieldEventType, "session_reclaim"))
	}
}

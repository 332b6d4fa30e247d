package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"docent/internal/experience"
	"docent/internal/services"
)

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the session database under dataDir and
// applies the schema.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "docent.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SaveExperience upserts an experience definition.
func (s *Store) SaveExperience(ctx context.Context, exp *experience.Experience) error {
	if err := exp.Normalize(); err != nil {
		return services.Wrap(services.ErrValidation, "sessions", "save experience", err.Error(), nil)
	}
	stepsJSON, err := experience.EncodeSteps(exp.Steps)
	if err != nil {
		return err
	}
	outcomeJSON, err := experience.EncodeOutcome(exp.Outcome)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if exp.CreatedAt.IsZero() {
		exp.CreatedAt = now
	}
	exp.UpdatedAt = now
	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO experiences (id, title, steps_json, outcome_json, published, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             title = excluded.title,
             steps_json = excluded.steps_json,
             outcome_json = excluded.outcome_json,
             published = excluded.published,
             updated_at = excluded.updated_at`,
		exp.ID,
		exp.Title,
		stepsJSON,
		outcomeJSON,
		boolToInt(exp.Published),
		timestamp(exp.CreatedAt),
		timestamp(exp.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save experience: %w", err)
	}
	return nil
}

// GetExperience loads one experience by id.
func (s *Store) GetExperience(ctx context.Context, id string) (*experience.Experience, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT id, title, steps_json, outcome_json, published, created_at, updated_at
         FROM experiences WHERE id = ?`,
		id,
	)
	exp, err := scanExperience(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "sessions", "get experience", id, nil)
	}
	return exp, err
}

// ListExperiences returns all experiences ordered by creation time.
func (s *Store) ListExperiences(ctx context.Context) ([]*experience.Experience, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, title, steps_json, outcome_json, published, created_at, updated_at
         FROM experiences ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	defer rows.Close()

	var out []*experience.Experience
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

// SetPublished flips the publish flag. Publishing is gated on validation by
// the caller; the store only records the decision.
func (s *Store) SetPublished(ctx context.Context, id string, published bool) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE experiences SET published = ?, updated_at = ? WHERE id = ?`,
		boolToInt(published),
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "sessions", "set published", id, nil)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperience(row rowScanner) (*experience.Experience, error) {
	var (
		exp         experience.Experience
		stepsJSON   string
		outcomeJSON string
		published   int
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&exp.ID, &exp.Title, &stepsJSON, &outcomeJSON, &published, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	steps, err := experience.DecodeSteps(stepsJSON)
	if err != nil {
		return nil, err
	}
	outcome, err := experience.DecodeOutcome(outcomeJSON)
	if err != nil {
		return nil, err
	}
	exp.Steps = steps
	exp.Outcome = outcome
	exp.Published = published != 0
	exp.CreatedAt = parseTimestamp(createdAt)
	exp.UpdatedAt = parseTimestamp(updatedAt)
	return &exp, nil
}

// NewSession inserts a pending session for an experience.
func (s *Store) NewSession(ctx context.Context, experienceID, ownerID string) (*Session, error) {
	if _, err := s.GetExperience(ctx, experienceID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	session := &Session{
		ID:           uuid.NewString(),
		ExperienceID: experienceID,
		OwnerID:      ownerID,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (id, experience_id, owner_id, status, step_index, reason, created_at, updated_at)
         VALUES (?, ?, ?, ?, 0, NULL, ?, ?)`,
		session.ID,
		session.ExperienceID,
		session.OwnerID,
		session.Status,
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

// GetSession loads one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT id, experience_id, owner_id, status, step_index, COALESCE(reason, ''), created_at, updated_at
         FROM sessions WHERE id = ?`,
		id,
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "sessions", "get session", id, nil)
	}
	return session, err
}

// ListSessions returns sessions filtered by status; no statuses means all.
func (s *Store) ListSessions(ctx context.Context, statuses ...Status) ([]*Session, error) {
	query := `SELECT id, experience_id, owner_id, status, step_index, COALESCE(reason, ''), created_at, updated_at
              FROM sessions`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session   Session
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&session.ID, &session.ExperienceID, &session.OwnerID, &session.Status, &session.StepIndex, &session.Reason, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	session.CreatedAt = parseTimestamp(createdAt)
	session.UpdatedAt = parseTimestamp(updatedAt)
	return &session, nil
}

// UpdateSessionProgress records the sequencer's current index and refreshes
// the activity timestamp.
func (s *Store) UpdateSessionProgress(ctx context.Context, id string, stepIndex int) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET step_index = ?, status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		stepIndex,
		StatusActive,
		timestamp(time.Now()),
		id,
		StatusPending,
		StatusActive,
	)
	if err != nil {
		return fmt.Errorf("update session progress: %w", err)
	}
	return nil
}

// UpdateSessionStatus transitions a session to the given lifecycle state.
func (s *Store) UpdateSessionStatus(ctx context.Context, id string, status Status, reason string) error {
	if !status.Valid() {
		return services.Wrap(services.ErrValidation, "sessions", "update status", string(status), nil)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET status = ?, reason = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(reason),
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "sessions", "update status", id, nil)
	}
	return nil
}

// ReclaimStale abandons active sessions idle since before the cutoff and
// returns how many were reclaimed.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions
         SET status = ?, reason = 'Reclaimed after idle timeout', updated_at = ?
         WHERE status IN (?, ?) AND updated_at < ?`,
		StatusAbandoned,
		timestamp(time.Now()),
		StatusPending,
		StatusActive,
		timestamp(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale sessions: %w", err)
	}
	return res.RowsAffected()
}

// AbandonActive marks every non-terminal session abandoned, recording the
// reason. Used on daemon shutdown.
func (s *Store) AbandonActive(ctx context.Context, reason string) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET status = ?, reason = ?, updated_at = ?
         WHERE status IN (?, ?)`,
		StatusAbandoned,
		nullableString(reason),
		timestamp(time.Now()),
		StatusPending,
		StatusActive,
	)
	if err != nil {
		return 0, fmt.Errorf("abandon active sessions: %w", err)
	}
	return res.RowsAffected()
}

// SaveResponse upserts the payload for one step of a session.
func (s *Store) SaveResponse(ctx context.Context, sessionID, stepID string, data experience.Response) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO responses (session_id, step_id, payload_json, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(session_id, step_id) DO UPDATE SET
             payload_json = excluded.payload_json,
             updated_at = excluded.updated_at`,
		sessionID,
		stepID,
		string(payload),
		timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save response: %w", err)
	}
	return nil
}

// ResponsesFor loads every persisted response for a session keyed by step id.
func (s *Store) ResponsesFor(ctx context.Context, sessionID string) (map[string]experience.Response, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT step_id, payload_json FROM responses WHERE session_id = ?`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]experience.Response)
	for rows.Next() {
		var (
			stepID  string
			payload string
		)
		if err := rows.Scan(&stepID, &payload); err != nil {
			return nil, err
		}
		var resp experience.Response
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			return nil, fmt.Errorf("decode response for step %s: %w", stepID, err)
		}
		out[stepID] = resp
	}
	return out, rows.Err()
}

// SaveAsset records an uploaded capture asset.
func (s *Store) SaveAsset(ctx context.Context, asset *AssetRow) error {
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO assets (id, session_id, step_id, owner_id, path, url, width, height, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID,
		asset.SessionID,
		asset.StepID,
		asset.OwnerID,
		asset.Path,
		asset.URL,
		asset.Width,
		asset.Height,
		timestamp(asset.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save asset: %w", err)
	}
	return nil
}

// AssetsFor lists assets recorded for a session in upload order.
func (s *Store) AssetsFor(ctx context.Context, sessionID string) ([]*AssetRow, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, session_id, step_id, owner_id, path, url, width, height, created_at
         FROM assets WHERE session_id = ? ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []*AssetRow
	for rows.Next() {
		var (
			asset     AssetRow
			createdAt string
		)
		if err := rows.Scan(&asset.ID, &asset.SessionID, &asset.StepID, &asset.OwnerID, &asset.Path, &asset.URL, &asset.Width, &asset.Height, &createdAt); err != nil {
			return nil, err
		}
		asset.CreatedAt = parseTimestamp(createdAt)
		out = append(out, &asset)
	}
	return out, rows.Err()
}

// Health aggregates session counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT status, COUNT(*) FROM sessions GROUP BY status`,
	)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("session health: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, err
		}
		switch status {
		case StatusPending:
			summary.Pending = count
		case StatusActive:
			summary.Active = count
		case StatusCompleted:
			summary.Completed = count
		case StatusAbandoned:
			summary.Abandoned = count
		}
	}
	return summary, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

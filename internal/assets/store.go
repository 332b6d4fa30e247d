package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"docent/internal/capture"
	"docent/internal/experience"
	"docent/internal/logging"
	"docent/internal/services"
	"docent/internal/sessions"
)

// Store writes uploaded capture bytes to disk and records them in the
// session database. It implements capture.Uploader.
type Store struct {
	dir    string
	db     *sessions.Store
	logger *slog.Logger
}

// NewStore builds an asset store rooted at dir.
func NewStore(dir string, db *sessions.Store, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		db:     db,
		logger: logging.NewComponentLogger(logger, "assets"),
	}
}

// Upload persists the asset bytes and returns its reference. The owner
// identity is required so downstream consumers can authorize access.
func (s *Store) Upload(ctx context.Context, data []byte, meta capture.UploadMetadata) (experience.MediaRef, error) {
	if len(data) == 0 {
		return experience.MediaRef{}, services.Wrap(services.ErrValidation, "assets", "upload", "empty payload", nil)
	}
	if meta.OwnerID == "" {
		return experience.MediaRef{}, services.Wrap(services.ErrValidation, "assets", "upload", "owner identity required", nil)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return experience.MediaRef{}, services.Wrap(services.ErrValidation, "assets", "upload", "payload is not a decodable image", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return experience.MediaRef{}, services.Wrap(services.ErrUpload, "assets", "upload", "ensure assets directory", err)
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+".jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return experience.MediaRef{}, services.Wrap(services.ErrUpload, "assets", "upload", "write asset file", err)
	}

	url := "file://" + path
	row := &sessions.AssetRow{
		ID:        id,
		SessionID: meta.SessionID,
		StepID:    meta.StepID,
		OwnerID:   meta.OwnerID,
		Path:      path,
		URL:       url,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}
	if err := s.db.SaveAsset(ctx, row); err != nil {
		// The row is the source of truth; an orphaned file is just waste.
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			s.logger.Warn("orphaned asset file left behind", logging.Error(removeErr), logging.String("path", path))
		}
		return experience.MediaRef{}, services.Wrap(services.ErrUpload, "assets", "upload", "record asset", err)
	}

	s.logger.Info("asset stored",
		logging.String("asset_id", id),
		logging.String(logging.FieldSessionID, meta.SessionID),
		logging.String(logging.FieldStepID, meta.StepID),
		logging.Int("bytes", len(data)),
	)
	return experience.MediaRef{AssetID: id, URL: url, Width: cfg.Width, Height: cfg.Height}, nil
}

// Dir returns the assets directory.
func (s *Store) Dir() string { return s.dir }

var _ capture.Uploader = (*Store)(nil)

package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrPreviewReleased is returned when a preview is released more than once.
var ErrPreviewReleased = errors.New("preview already released")

// Preview is the revocable local resource backing the on-screen photo
// preview. It must be released exactly once: on retake, on successful
// upload, or on engine teardown.
type Preview interface {
	URL() string
	Release() error
}

// Previews creates preview resources from captured bytes.
type Previews interface {
	NewPreview(data []byte) (Preview, error)
}

// FilePreviews materializes previews as files under a scratch directory so a
// rendering layer can serve them by URL. Release deletes the backing file.
type FilePreviews struct {
	Dir string
}

// NewPreview writes the bytes to a uniquely named file.
func (p FilePreviews) NewPreview(data []byte) (Preview, error) {
	dir := p.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure preview dir: %w", err)
	}
	path := filepath.Join(dir, "preview-"+uuid.NewString()+".jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write preview %s: %w", path, err)
	}
	return &filePreview{path: path}, nil
}

type filePreview struct {
	mu       sync.Mutex
	path     string
	released bool
}

func (p *filePreview) URL() string { return "file://" + p.path }

func (p *filePreview) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrPreviewReleased
	}
	p.released = true
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove preview %s: %w", p.path, err)
	}
	return nil
}

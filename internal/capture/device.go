package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"sync"
)

// frameReadLimit bounds a single frame read from the device node.
const frameReadLimit = 8 << 20

// DeviceCamera acquires frames from a local video device node. Kiosks run a
// single fixed camera, so both facings map to the same device and permission
// reduces to filesystem access on the node.
type DeviceCamera struct {
	Path string
}

// NewDeviceCamera returns a camera bound to the given device node.
func NewDeviceCamera(path string) *DeviceCamera {
	return &DeviceCamera{Path: path}
}

// QueryPermission maps node access onto the permission states: a missing node
// is unavailable, an unreadable node is denied, anything else is granted.
func (c *DeviceCamera) QueryPermission(_ context.Context) (PermissionState, error) {
	if c.Path == "" {
		return PermissionUnavailable, nil
	}
	if _, err := os.Stat(c.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return PermissionUnavailable, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			return PermissionDenied, nil
		}
		return PermissionUnknown, fmt.Errorf("stat camera device: %w", err)
	}
	file, err := os.Open(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return PermissionDenied, nil
		}
		return PermissionUnknown, fmt.Errorf("probe camera device: %w", err)
	}
	file.Close()
	return PermissionGranted, nil
}

// RequestPermission re-probes the node. There is no interactive prompt on a
// kiosk; access either exists or it does not.
func (c *DeviceCamera) RequestPermission(ctx context.Context) (PermissionState, error) {
	return c.QueryPermission(ctx)
}

// AcquireStream opens the device node for frame reads.
func (c *DeviceCamera) AcquireStream(_ context.Context, _ Facing) (Stream, error) {
	file, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open camera device: %w", err)
	}
	return &deviceStream{file: file}, nil
}

type deviceStream struct {
	mu   sync.Mutex
	file *os.File
}

// Frame reads and decodes one frame. UVC cameras in MJPEG mode emit a JPEG
// stream the standard decoder handles directly.
func (s *deviceStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil, errors.New("camera stream stopped")
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		// Character devices reject seeks; keep reading forward.
		if !errors.Is(err, os.ErrInvalid) {
			var pathErr *fs.PathError
			if !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("rewind camera device: %w", err)
			}
		}
	}
	img, _, err := image.Decode(io.LimitReader(s.file, frameReadLimit))
	if err != nil {
		return nil, fmt.Errorf("decode camera frame: %w", err)
	}
	return img, nil
}

func (s *deviceStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}

var _ Camera = (*DeviceCamera)(nil)

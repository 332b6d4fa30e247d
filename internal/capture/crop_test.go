package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"
)

func TestCropRectCenteredAndRatioExact(t *testing.T) {
	cases := []struct {
		name           string
		frameW, frameH int
		tw, th         int
	}{
		{"wide frame portrait target", 1920, 1080, 3, 4},
		{"tall frame landscape target", 1080, 1920, 16, 9},
		{"square frame square target", 640, 640, 1, 1},
		{"already matching", 600, 800, 3, 4},
		{"odd dimensions", 1279, 721, 4, 3},
		{"tiny frame", 5, 3, 3, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rect := CropRect(tc.frameW, tc.frameH, tc.tw, tc.th)
			if rect.Empty() {
				t.Fatal("empty crop")
			}
			sw, sh := rect.Dx(), rect.Dy()
			if sw > tc.frameW || sh > tc.frameH {
				t.Fatalf("crop %dx%d exceeds frame %dx%d", sw, sh, tc.frameW, tc.frameH)
			}
			// Centered within integer division.
			if rect.Min.X != (tc.frameW-sw)/2 || rect.Min.Y != (tc.frameH-sh)/2 {
				t.Fatalf("crop not centered: %+v", rect)
			}
			// Aspect ratio within one pixel of rounding.
			want := float64(tc.tw) / float64(tc.th)
			got := float64(sw) / float64(sh)
			tolerance := math.Max(1.0/float64(sh), want/float64(sw))
			if math.Abs(got-want) > tolerance {
				t.Fatalf("ratio %f, want %f (±%f)", got, want, tolerance)
			}
		})
	}
}

func TestCropRectRejectsDegenerateInput(t *testing.T) {
	if rect := CropRect(0, 100, 3, 4); !rect.Empty() {
		t.Fatalf("expected empty rect, got %+v", rect)
	}
	if rect := CropRect(100, 100, 0, 4); !rect.Empty() {
		t.Fatalf("expected empty rect, got %+v", rect)
	}
}

// gradientFrame builds a frame whose left half is red and right half blue so
// mirroring is observable.
func gradientFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderFrameProducesTargetRatioJPEG(t *testing.T) {
	data, w, h, err := RenderFrame(gradientFrame(1920, 1080), 3, 4, false)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if h != 1080 {
		t.Fatalf("height = %d, want full frame height", h)
	}
	if w != 810 {
		t.Fatalf("width = %d, want 810 (1080*3/4)", w)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("format = %s, want jpeg", format)
	}
	if cfg.Width != w || cfg.Height != h {
		t.Fatalf("encoded %dx%d, want %dx%d", cfg.Width, cfg.Height, w, h)
	}
}

func TestRenderFrameMirrorsHorizontally(t *testing.T) {
	frame := gradientFrame(400, 400)
	plain, _, _, err := RenderFrame(frame, 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	mirrored, _, _, err := RenderFrame(frame, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}

	left := dominantChannel(t, plain, 10, 200)
	mirroredLeft := dominantChannel(t, mirrored, 10, 200)
	if left == mirroredLeft {
		t.Fatalf("mirroring had no effect: %s on both", left)
	}
}

func dominantChannel(t *testing.T, data []byte, x, y int) string {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, _, b, _ := img.At(x, y).RGBA()
	if r > b {
		return "red"
	}
	return "blue"
}

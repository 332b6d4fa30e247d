package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
)

// jpegQuality is the fixed compression factor for serialized captures.
const jpegQuality = 90

// CropRect computes the largest centered rectangle within a frameW x frameH
// frame that matches the targetW:targetH aspect ratio. The result's own
// ratio equals the target within one pixel of rounding.
func CropRect(frameW, frameH, targetW, targetH int) image.Rectangle {
	if frameW <= 0 || frameH <= 0 || targetW <= 0 || targetH <= 0 {
		return image.Rectangle{}
	}
	ratio := float64(targetW) / float64(targetH)
	cropW, cropH := frameW, frameH
	if float64(frameW)/float64(frameH) > ratio {
		// Frame wider than target: crop width, keep full height.
		cropW = int(float64(frameH)*ratio + 0.5)
	} else {
		cropH = int(float64(frameW)/ratio + 0.5)
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	x := (frameW - cropW) / 2
	y := (frameH - cropH) / 2
	return image.Rect(x, y, x+cropW, y+cropH)
}

// RenderFrame extracts the centered crop from the frame onto a canvas of the
// cropped dimensions, optionally mirroring horizontally for front-facing
// capture, and serializes it as JPEG at the fixed quality factor.
func RenderFrame(frame image.Image, targetW, targetH int, mirror bool) (data []byte, width, height int, err error) {
	bounds := frame.Bounds()
	crop := CropRect(bounds.Dx(), bounds.Dy(), targetW, targetH)
	if crop.Empty() {
		return nil, 0, 0, fmt.Errorf("empty crop for frame %dx%d target %d:%d", bounds.Dx(), bounds.Dy(), targetW, targetH)
	}

	src := crop.Add(bounds.Min)
	canvas := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	if mirror {
		for y := 0; y < crop.Dy(); y++ {
			for x := 0; x < crop.Dx(); x++ {
				canvas.Set(crop.Dx()-1-x, y, frame.At(src.Min.X+x, src.Min.Y+y))
			}
		}
	} else {
		draw.Draw(canvas, canvas.Bounds(), frame, src.Min, draw.Src)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode capture: %w", err)
	}
	return buf.Bytes(), crop.Dx(), crop.Dy(), nil
}

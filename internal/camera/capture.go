package camera

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"time"

	"golang.org/x/image/draw"
)

// Default still image dimensions.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// FrameSource provides the frame currently shown by a camera session.
type FrameSource interface {
	CurrentFrame() (image.Image, error)
}

// StillImage is an immutable snapshot of the video surface.
type StillImage struct {
	pixels     *image.RGBA
	encoded    []byte
	capturedAt time.Time
}

// Width returns the raster width in pixels.
func (s StillImage) Width() int {
	if s.pixels == nil {
		return 0
	}
	return s.pixels.Bounds().Dx()
}

// Height returns the raster height in pixels.
func (s StillImage) Height() int {
	if s.pixels == nil {
		return 0
	}
	return s.pixels.Bounds().Dy()
}

// CapturedAt returns the time the snapshot was taken.
func (s StillImage) CapturedAt() time.Time {
	return s.capturedAt
}

// IsZero reports whether s holds no image.
func (s StillImage) IsZero() bool {
	return s.pixels == nil
}

// PNG returns a copy of the PNG encoding.
func (s StillImage) PNG() []byte {
	out := make([]byte, len(s.encoded))
	copy(out, s.encoded)
	return out
}

// DataURL returns the image as a base64 data URL.
func (s StillImage) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(s.encoded)
}

// Image returns a copy of the raster.
func (s StillImage) Image() image.Image {
	if s.pixels == nil {
		return nil
	}
	clone := image.NewRGBA(s.pixels.Bounds())
	copy(clone.Pix, s.pixels.Pix)
	return clone
}

// Capturer rasterizes the current frame of a FrameSource into a fixed-size still.
type Capturer struct {
	width  int
	height int
	now    func() time.Time
}

// NewCapturer creates a capturer producing width x height stills.
func NewCapturer(width, height int) *Capturer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Capturer{width: width, height: height, now: time.Now}
}

// Capture draws the current frame of src into a new still image. It fails with
// ErrNoActiveSession or ErrSurfaceNotReady without producing an image.
func (c *Capturer) Capture(src FrameSource) (StillImage, error) {
	frame, err := src.CurrentFrame()
	if err != nil {
		return StillImage{}, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, frame.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return StillImage{}, fmt.Errorf("camera: encode still: %w", err)
	}

	return StillImage{
		pixels:     dst,
		encoded:    buf.Bytes(),
		capturedAt: c.now(),
	}, nil
}

// NewStillImage builds a still from an already encoded PNG. Used when importing
// images that did not come from a live session.
func NewStillImage(encoded []byte, capturedAt time.Time) (StillImage, error) {
	img, err := png.Decode(bytes.NewReader(encoded))
	if err != nil {
		return StillImage{}, fmt.Errorf("camera: decode still: %w", err)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	data := make([]byte, len(encoded))
	copy(data, encoded)
	return StillImage{pixels: rgba, encoded: data, capturedAt: capturedAt}, nil
}

package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
)

// ErrUnavailable means a drawing surface could not be created. Callers
// must branch on it and degrade to "signature feature disabled" instead
// of crashing the surrounding form.
var ErrUnavailable = errors.New("signature: drawing surface unavailable")

const dataURLPrefix = "data:image/png;base64,"

// Handlers is the pointer handler set of one capture area. A bound
// handler consumes the event: the source must suppress the platform's
// default action (scrolling/selection) while dispatching to it.
type Handlers struct {
	Down  func(PointerEvent)
	Move  func(PointerEvent)
	Up    func(PointerEvent)
	Leave func(PointerEvent)
}

// EventSource is anything that emits pointer events for a capture area,
// e.g. a browser canvas bridge or a simulated source in tests.
type EventSource interface {
	// SetHandlers installs h as the source's handler set. Sources are
	// expected to replace any prior set, but Attach does not rely on it.
	SetHandlers(h Handlers)
	// DisplayRect returns the capture area's current on-screen box.
	DisplayRect() Rect
}

// Surface owns one raster canvas and one stroke recorder, and exposes
// the capture/clear/export/is-blank operations of a signature pad.
// Each form or admin panel instantiates its own Surface per opening and
// discards it on close; no raster is ever shared between surfaces.
type Surface struct {
	size      Size
	raster    *image.RGBA
	recorder  *StrokeRecorder
	attachSeq int
}

// NewSurface creates a blank surface with the given fixed backing-store
// dimensions. Returns ErrUnavailable for unusable dimensions.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrUnavailable, width, height)
	}
	raster := image.NewRGBA(image.Rect(0, 0, width, height))
	return &Surface{
		size:     Size{Width: width, Height: height},
		raster:   raster,
		recorder: newStrokeRecorder(raster),
	}, nil
}

// LoadSurface re-hydrates a surface from a previously exported image,
// e.g. to re-render a stored signature in the admin panel.
func LoadSurface(dataURL string) (*Surface, error) {
	img, err := decodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	s, err := NewSurface(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	draw.Draw(s.raster, s.raster.Bounds(), img, b.Min, draw.Src)
	return s, nil
}

// Size returns the fixed backing raster dimensions.
func (s *Surface) Size() Size {
	return s.size
}

// Recorder exposes the surface's stroke recorder.
func (s *Surface) Recorder() *StrokeRecorder {
	return s.recorder
}

// Clear erases all rendered content back to a fully transparent raster.
// Idempotent.
func (s *Surface) Clear() {
	for i := range s.raster.Pix {
		s.raster.Pix[i] = 0
	}
	s.recorder.resetSegments()
}

// IsBlank reports whether no pixel has a non-zero alpha channel. Used to
// avoid persisting a staff signature that was never actually drawn.
func (s *Surface) IsBlank() bool {
	pix := s.raster.Pix
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			return false
		}
	}
	return true
}

// Export serializes the current raster content to a PNG data URL:
// lossless, self-contained, embeddable directly as a document attribute.
// Exporting a blank surface yields a valid but visually empty image.
func (s *Surface) Export() string {
	var buf bytes.Buffer
	// Encoding an in-memory RGBA image cannot fail.
	_ = png.Encode(&buf, s.raster)
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// Attach wires src's pointer events to this surface's stroke recorder.
// Re-attaching replaces the prior binding rather than stacking: bindings
// from earlier Attach calls become inert, so reopening the same physical
// surface never accumulates duplicate rendering.
func (s *Surface) Attach(src EventSource) {
	s.attachSeq++
	seq := s.attachSeq
	live := func() bool { return s.attachSeq == seq }
	src.SetHandlers(Handlers{
		Down: func(e PointerEvent) {
			if !live() {
				return
			}
			s.recorder.Down(MapToRaster(e, src.DisplayRect(), s.size))
		},
		Move: func(e PointerEvent) {
			if !live() {
				return
			}
			s.recorder.Move(MapToRaster(e, src.DisplayRect(), s.size))
		},
		Up: func(e PointerEvent) {
			if !live() {
				return
			}
			s.recorder.Up()
		},
		Leave: func(e PointerEvent) {
			if !live() {
				return
			}
			s.recorder.Up()
		},
	})
}

// IsBlankImage reports whether an exported signature image has no pixel
// with non-zero alpha. An empty string counts as blank. Lets the update
// flow reject a blank staff signature without instantiating a surface.
func IsBlankImage(dataURL string) (bool, error) {
	if dataURL == "" {
		return true, nil
	}
	img, err := decodeDataURL(dataURL)
	if err != nil {
		return false, err
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a != 0 {
				return false, nil
			}
		}
	}
	return true, nil
}

func decodeDataURL(dataURL string) (image.Image, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, fmt.Errorf("signature: not a PNG data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("signature: invalid base64 payload: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("signature: invalid PNG payload: %w", err)
	}
	return img, nil
}

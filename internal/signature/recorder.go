package signature

import (
	"image"
	"image/color"
	"math"
)

// Stroke rendering is fixed: solid black, 2 raster-pixel width, round
// cap/join. No pressure, no color, no undo.
const strokeWidth = 2.0

var strokeColor = color.RGBA{A: 0xff}

type recorderState int

const (
	stateIdle recorderState = iota
	stateDrawing
)

// StrokeRecorder renders connected line segments onto a raster surface
// from a stream of positioned pointer events. It is a two-state machine:
// Idle between strokes, Drawing between a pointer-down and its matching
// pointer-up/leave.
type StrokeRecorder struct {
	raster   *image.RGBA
	state    recorderState
	last     Point
	segments int
}

func newStrokeRecorder(raster *image.RGBA) *StrokeRecorder {
	return &StrokeRecorder{raster: raster}
}

// Down records the mapped start position and enters Drawing.
func (r *StrokeRecorder) Down(p Point) {
	r.state = stateDrawing
	r.last = p
}

// Move renders a segment from the current point to p and advances the
// current point. A move received while Idle is a no-op, not an error.
func (r *StrokeRecorder) Move(p Point) {
	if r.state != stateDrawing {
		return
	}
	drawSegment(r.raster, r.last, p)
	r.last = p
	r.segments++
}

// Up ends the stroke. The current point is discarded; no rendering occurs.
// Pointer-leave is handled identically.
func (r *StrokeRecorder) Up() {
	r.state = stateIdle
}

// Drawing reports whether the recorder is between a pointer-down and its
// matching pointer-up/leave.
func (r *StrokeRecorder) Drawing() bool {
	return r.state == stateDrawing
}

// Segments returns the number of segments rendered since creation or the
// last reset. Diagnostic counter.
func (r *StrokeRecorder) Segments() int {
	return r.segments
}

func (r *StrokeRecorder) resetSegments() {
	r.segments = 0
}

// drawSegment paints a round-capped line of strokeWidth from a to b by
// stamping disks along the segment. Round joins between consecutive
// segments fall out of the endpoint disks.
func drawSegment(img *image.RGBA, a, b Point) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	steps := int(math.Hypot(dx, dy)*2) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		stampDisk(img, a.X+dx*t, a.Y+dy*t, strokeWidth/2)
	}
}

// stampDisk fills the disk of radius rad centered at (cx, cy), skipping
// pixels outside the raster bounds so rendered segments always lie within
// [0,width) x [0,height).
func stampDisk(img *image.RGBA, cx, cy, rad float64) {
	bounds := img.Bounds()
	x0 := int(math.Floor(cx - rad))
	x1 := int(math.Ceil(cx + rad))
	y0 := int(math.Floor(cy - rad))
	y1 := int(math.Ceil(cy + rad))
	for y := y0; y <= y1; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := x0; x <= x1; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			px := float64(x) + 0.5 - cx
			py := float64(y) + 0.5 - cy
			if px*px+py*py <= rad*rad {
				img.SetRGBA(x, y, strokeColor)
			}
		}
	}
}

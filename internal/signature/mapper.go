package signature

// Point is a position in raster space (backing-store pixels).
type Point struct {
	X float64
	Y float64
}

// Size are the fixed pixel dimensions of a backing raster.
type Size struct {
	Width  int
	Height int
}

// Rect is the capture area's current on-screen box, in viewport pixels.
// It may change on layout/resize and never mutates the backing raster size.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Touch is one active touch point of a touch event.
type Touch struct {
	ClientX float64
	ClientY float64
}

// PointerEvent carries the viewport position of a mouse or touch event.
// For touch events the first entry of Touches is used; an empty Touches
// list falls back to the mouse-style ClientX/ClientY fields.
type PointerEvent struct {
	ClientX float64
	ClientY float64
	Touches []Touch
}

// MapToRaster converts a pointer event in viewport pixels into raster
// pixels. Horizontal and vertical scale factors are independent because
// the display box and the backing raster are not required to share an
// aspect-preserving size.
func MapToRaster(e PointerEvent, display Rect, canvas Size) Point {
	sx := float64(canvas.Width) / display.Width
	sy := float64(canvas.Height) / display.Height
	cx, cy := e.ClientX, e.ClientY
	if len(e.Touches) > 0 {
		cx, cy = e.Touches[0].ClientX, e.Touches[0].ClientY
	}
	return Point{
		X: (cx - display.Left) * sx,
		Y: (cy - display.Top) * sy,
	}
}

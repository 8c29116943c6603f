// Package editor implements pointer gestures over the placed elements of a
// template: selection, drag and eight-handle resize with grid snapping.
// It performs no I/O; geometry is written synchronously to an ElementStore.
package editor

import "math"

// Viewport maps screen pixels to document points.
type Viewport struct {
	Zoom    float64
	OffsetX float64
	OffsetY float64
}

// DefaultViewport shows the page at 100% with no scroll offset.
func DefaultViewport() Viewport { return Viewport{Zoom: 1} }

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToDocument converts a screen point to document coordinates.
func (v Viewport) ToDocument(sx, sy float64) (int, int) {
	z := v.zoom()
	return int(math.Round((sx - v.OffsetX) / z)), int(math.Round((sy - v.OffsetY) / z))
}

// ToScreen converts a document point to screen coordinates.
func (v Viewport) ToScreen(x, y int) (float64, float64) {
	z := v.zoom()
	return float64(x)*z + v.OffsetX, float64(y)*z + v.OffsetY
}

package layout

import "fmt"

// Handle is one of the eight compass resize handles.
type Handle int

const (
	HandleN Handle = iota
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
	HandleNW
)

// Handles lists all handles in clockwise order starting at north.
var Handles = []Handle{HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW, HandleNW}

var handleNames = [...]string{"n", "ne", "e", "se", "s", "sw", "w", "nw"}

func (h Handle) String() string {
	if h < 0 || int(h) >= len(handleNames) {
		return fmt.Sprintf("handle(%d)", int(h))
	}
	return handleNames[h]
}

// ParseHandle accepts the compass abbreviations used by String.
func ParseHandle(s string) (Handle, bool) {
	for i, n := range handleNames {
		if n == s {
			return Handle(i), true
		}
	}
	return 0, false
}

func (h Handle) north() bool { return h == HandleN || h == HandleNE || h == HandleNW }
func (h Handle) south() bool { return h == HandleS || h == HandleSE || h == HandleSW }
func (h Handle) west() bool  { return h == HandleW || h == HandleNW || h == HandleSW }
func (h Handle) east() bool  { return h == HandleE || h == HandleNE || h == HandleSE }

// Anchor returns the point of r the handle sits on.
func (h Handle) Anchor(r Rect) (int, int) {
	x, y := r.X+r.Width/2, r.Y+r.Height/2
	if h.west() {
		x = r.X
	}
	if h.east() {
		x = r.Right()
	}
	if h.north() {
		y = r.Y
	}
	if h.south() {
		y = r.Bottom()
	}
	return x, y
}

// Limits are the per-kind size constraints of a placeable element.
type Limits struct {
	MinWidth  int
	MinHeight int
	// FixedHeight elements (single-line text) never change height.
	FixedHeight bool
	// Square elements keep Width == Height.
	Square bool
}

// ApplyResize moves the edges of r touched by handle h by (dx, dy).
//
// Leading edges (north, west) shift the origin by the delta and shrink the
// extent by the same amount so the opposite edge stays put; they stop at the
// page origin. Trailing edges (south, east) only change the extent and stop
// at the far page edge. Minimum extents are enforced on both axes for every
// handle and the result is passed through ClampToPage.
func ApplyResize(r Rect, h Handle, dx, dy int, lim Limits, p Page) Rect {
	right, bottom := r.Right(), r.Bottom()

	if h.west() {
		x := r.X + dx
		if x < 0 {
			x = 0
		}
		if right-x < lim.MinWidth {
			x = right - lim.MinWidth
		}
		r.X, r.Width = x, right-x
	}
	if h.east() {
		w := r.Width + dx
		if r.X+w > p.Width {
			w = p.Width - r.X
		}
		r.Width = w
	}
	if !lim.FixedHeight {
		if h.north() {
			y := r.Y + dy
			if y < 0 {
				y = 0
			}
			if bottom-y < lim.MinHeight {
				y = bottom - lim.MinHeight
			}
			r.Y, r.Height = y, bottom-y
		}
		if h.south() {
			hgt := r.Height + dy
			if r.Y+hgt > p.Height {
				hgt = p.Height - r.Y
			}
			r.Height = hgt
		}
	}

	if r.Width < lim.MinWidth {
		r.Width = lim.MinWidth
	}
	if r.Height < lim.MinHeight {
		r.Height = lim.MinHeight
	}
	if lim.Square {
		side := r.Width
		if h == HandleN || h == HandleS {
			side = r.Height
		}
		if side < lim.MinWidth {
			side = lim.MinWidth
		}
		if h.west() {
			r.X = right - side
		}
		if h.north() {
			r.Y = bottom - side
		}
		r.Width, r.Height = side, side
	}
	return ClampToPage(r, p)
}

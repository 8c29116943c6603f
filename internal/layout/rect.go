package layout

// Page is the fixed logical canvas all coordinates refer to.
type Page struct {
	Width  int
	Height int
}

// A4 is the only page size letters are produced in.
var A4 = Page{Width: 595, Height: 842}

// Rect is an axis-aligned rectangle in document space. The origin is the
// top-left corner of the page, y grows downwards.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Bottom() int { return r.Y + r.Height }

// Contains reports whether the point lies inside r (edges inclusive).
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// Inside reports whether r satisfies the page invariant.
func (r Rect) Inside(p Page) bool {
	return r.X >= 0 && r.Y >= 0 && r.Width >= 0 && r.Height >= 0 &&
		r.Right() <= p.Width && r.Bottom() <= p.Height
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampToPage shifts and shrinks r so that it lies fully inside p.
// Extents are first forced into [0, page extent], then the origin is
// moved into [0, page extent - extent]. The function is idempotent.
func ClampToPage(r Rect, p Page) Rect {
	r.Width = clampInt(r.Width, 0, p.Width)
	r.Height = clampInt(r.Height, 0, p.Height)
	r.X = clampInt(r.X, 0, p.Width-r.Width)
	r.Y = clampInt(r.Y, 0, p.Height-r.Height)
	return r
}

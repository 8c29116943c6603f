package layout

// GridPresets are the cell sizes an operator can pick from.
var GridPresets = []int{5, 10, 20, 25, 50}

// DefaultCellSize is the grid cell used when nothing else was chosen.
const DefaultCellSize = 10

// GridConfig is interaction-only state; it is never persisted with a template.
type GridConfig struct {
	Enabled  bool
	CellSize int
}

// DefaultGrid returns a disabled grid with the default cell size.
func DefaultGrid() GridConfig {
	return GridConfig{CellSize: DefaultCellSize}
}

// IsPreset reports whether cell is one of GridPresets.
func IsPreset(cell int) bool {
	for _, p := range GridPresets {
		if p == cell {
			return true
		}
	}
	return false
}

// floorDiv is integer division rounding towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Snap rounds v to the nearest multiple of cell, ties rounding up.
// A non-positive cell leaves v untouched.
func Snap(v, cell int) int {
	if cell <= 0 {
		return v
	}
	return floorDiv(2*v+cell, 2*cell) * cell
}

// snapUp rounds v up to the next multiple of cell.
func snapUp(v, cell int) int {
	if cell <= 0 {
		return v
	}
	return -floorDiv(-v, cell) * cell
}

// Apply snaps v when the grid is enabled.
func (g GridConfig) Apply(v int) int {
	if !g.Enabled {
		return v
	}
	return Snap(v, g.CellSize)
}

// ApplyPoint snaps a position.
func (g GridConfig) ApplyPoint(r Rect) Rect {
	r.X = g.Apply(r.X)
	r.Y = g.Apply(r.Y)
	return r
}

// ApplyRect snaps all four numbers of r. Extents that fall below the
// limits are raised to the next grid multiple that satisfies them.
func (g GridConfig) ApplyRect(r Rect, lim Limits) Rect {
	if !g.Enabled {
		return r
	}
	r.X = Snap(r.X, g.CellSize)
	r.Y = Snap(r.Y, g.CellSize)
	r.Width = Snap(r.Width, g.CellSize)
	if r.Width < lim.MinWidth {
		r.Width = snapUp(lim.MinWidth, g.CellSize)
	}
	if !lim.FixedHeight {
		r.Height = Snap(r.Height, g.CellSize)
		if r.Height < lim.MinHeight {
			r.Height = snapUp(lim.MinHeight, g.CellSize)
		}
	}
	if lim.Square {
		r.Height = r.Width
	}
	return r
}

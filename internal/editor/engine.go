package editor

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
)

// HandleRadius is the hit radius of a resize handle in screen pixels.
const HandleRadius = 6.0

// ElementStore is the geometry the engine manipulates.
type ElementStore interface {
	Elements() []layout.Element
	Bounds(id layout.ElementID) (layout.Rect, layout.Limits, error)
	SetBounds(id layout.ElementID, r layout.Rect) error
	Commit(id layout.ElementID, r layout.Rect) error
}

// State is the gesture state.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateResizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// gesture carries the data of the active drag or resize. px/py is the
// pointer at gesture start and offX/offY its offset from the element
// origin, both in document space.
type gesture struct {
	id         layout.ElementID
	start      layout.Rect
	last       layout.Rect
	limits     layout.Limits
	handle     layout.Handle
	px, py     int
	offX, offY int
}

// Engine is the gesture state machine. It is not safe for concurrent use.
type Engine struct {
	store    ElementStore
	page     layout.Page
	viewport Viewport
	grid     layout.GridConfig

	state    State
	selected layout.ElementID
	g        gesture
}

func NewEngine(store ElementStore, page layout.Page) *Engine {
	return &Engine{
		store:    store,
		page:     page,
		viewport: DefaultViewport(),
		grid:     layout.DefaultGrid(),
	}
}

func (e *Engine) State() State               { return e.state }
func (e *Engine) Viewport() Viewport         { return e.viewport }
func (e *Engine) SetViewport(v Viewport)     { e.viewport = v }
func (e *Engine) Grid() layout.GridConfig    { return e.grid }
func (e *Engine) Selected() layout.ElementID { return e.selected }

// SetGrid changes snapping. Only preset cell sizes are accepted.
func (e *Engine) SetGrid(g layout.GridConfig) error {
	if !layout.IsPreset(g.CellSize) {
		return fmt.Errorf("%w: grid cell %d", common.ErrInvalidField, g.CellSize)
	}
	e.grid = g
	return nil
}

// Select makes id the selected element.
func (e *Engine) Select(id layout.ElementID) error {
	if _, _, err := e.store.Bounds(id); err != nil {
		return err
	}
	e.selected = id
	return nil
}

func (e *Engine) ClearSelection() { e.selected = "" }

// HandlePoint is a resize handle position in screen space.
type HandlePoint struct {
	Handle layout.Handle
	X, Y   float64
}

// Handles returns the screen positions of the handles of the selected
// element, or nil when nothing is selected.
func (e *Engine) Handles() []HandlePoint {
	if e.selected == "" {
		return nil
	}
	r, _, err := e.store.Bounds(e.selected)
	if err != nil {
		return nil
	}
	out := make([]HandlePoint, 0, len(layout.Handles))
	for _, h := range layout.Handles {
		x, y := h.Anchor(r)
		sx, sy := e.viewport.ToScreen(x, y)
		out = append(out, HandlePoint{Handle: h, X: sx, Y: sy})
	}
	return out
}

func (e *Engine) hitHandle(sx, sy float64) (layout.Handle, bool) {
	for _, hp := range e.Handles() {
		if math.Hypot(sx-hp.X, sy-hp.Y) <= HandleRadius {
			return hp.Handle, true
		}
	}
	return 0, false
}

// HitTest returns the topmost enabled element under the document point.
func (e *Engine) HitTest(x, y int) (layout.Element, bool) {
	els := e.store.Elements()
	for i := len(els) - 1; i >= 0; i-- {
		if els[i].Enabled && els[i].Rect.Contains(x, y) {
			return els[i], true
		}
	}
	return layout.Element{}, false
}

// PointerDown starts a gesture. Handles of the selected element win over
// element bodies; a miss clears the selection.
func (e *Engine) PointerDown(sx, sy float64) error {
	if e.state != StateIdle {
		return common.ErrGestureActive
	}
	x, y := e.viewport.ToDocument(sx, sy)

	if h, ok := e.hitHandle(sx, sy); ok {
		r, lim, err := e.store.Bounds(e.selected)
		if err != nil {
			return err
		}
		e.g = gesture{id: e.selected, start: r, last: r, limits: lim, handle: h, px: x, py: y}
		e.state = StateResizing
		return nil
	}

	el, ok := e.HitTest(x, y)
	if !ok {
		e.ClearSelection()
		return nil
	}
	e.selected = el.ID
	e.g = gesture{
		id: el.ID, start: el.Rect, last: el.Rect, limits: el.Limits,
		px: x, py: y, offX: x - el.Rect.X, offY: y - el.Rect.Y,
	}
	e.state = StateDragging
	return nil
}

// PointerMove updates the active gesture; it is a no-op when idle.
func (e *Engine) PointerMove(sx, sy float64) error {
	if e.state == StateIdle {
		return nil
	}
	x, y := e.viewport.ToDocument(sx, sy)

	var r layout.Rect
	switch e.state {
	case StateDragging:
		r = e.g.start
		r.X, r.Y = x-e.g.offX, y-e.g.offY
		r = e.grid.ApplyPoint(r)
	case StateResizing:
		r = layout.ApplyResize(e.g.start, e.g.handle, x-e.g.px, y-e.g.py, e.g.limits, e.page)
		r = e.grid.ApplyRect(r, e.g.limits)
	}
	r = layout.ClampToPage(r, e.page)

	if err := e.store.SetBounds(e.g.id, r); err != nil {
		return err
	}
	e.g.last = r
	return nil
}

// PointerUp commits the gesture and returns to idle.
func (e *Engine) PointerUp() error {
	if e.state == StateIdle {
		return nil
	}
	g := e.g
	e.state = StateIdle
	e.g = gesture{}
	return e.store.Commit(g.id, g.last)
}

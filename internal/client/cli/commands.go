package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/editor"
	"github.com/dmitrijs2005/letterdesk/internal/filex"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
)

var (
	errOffline      = errors.New("not available offline")
	errOnline       = errors.New("templates are created on the server")
	errUnsavedState = errors.New("unsaved changes; save first or use quit!")
)

func (a *App) Load(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("load <template>")
	}
	if a.store.Dirty() {
		fmt.Fprintln(a.out, "discarding unsaved changes")
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.store.Load(ctx, args[0]); err != nil {
		return err
	}
	a.engine.ClearSelection()
	snap, _ := a.store.Snapshot()
	fmt.Fprintf(a.out, "loaded %s %q: %d zones\n", snap.ID, snap.Name, len(snap.Zones))
	return nil
}

func (a *App) New(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("new <template> [name]")
	}
	if a.creator == nil {
		return errOnline
	}
	name := args[0]
	if len(args) > 1 {
		name = strings.Join(args[1:], " ")
	}
	cfg := layout.DefaultConfig()
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.creator.CreateTemplate(ctx, layout.Template{ID: args[0], Name: name, Config: &cfg}); err != nil {
		return err
	}
	return a.Load(ctx, args[:1])
}

func (a *App) List(ctx context.Context, args []string) error {
	els := a.store.Elements()
	if els == nil {
		return common.ErrNoTemplate
	}
	for _, el := range els {
		mark := " "
		switch {
		case el.ID == a.engine.Selected():
			mark = "*"
		case !el.Enabled:
			mark = "-"
		}
		r := el.Rect
		fmt.Fprintf(a.out, "%s %-38s %-16s x=%d y=%d w=%d h=%d\n", mark, el.ID, el.Label, r.X, r.Y, r.Width, r.Height)
	}
	return nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	z, err := a.store.AddZone(ctx)
	if z.ID != "" {
		_ = a.engine.Select(layout.ZoneID(z.ID))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "added zone", z.ID)
	return nil
}

func (a *App) Select(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("select <element|none>")
	}
	if args[0] == "none" {
		a.engine.ClearSelection()
		return nil
	}
	return a.engine.Select(parseElement(args[0]))
}

func (a *App) Down(ctx context.Context, args []string) error {
	x, y, err := parsePoint(args)
	if err != nil {
		return err
	}
	if err := a.engine.PointerDown(x, y); err != nil {
		return err
	}
	if a.engine.State() == editor.StateIdle {
		fmt.Fprintln(a.out, "nothing there")
	}
	return nil
}

func (a *App) Move(ctx context.Context, args []string) error {
	x, y, err := parsePoint(args)
	if err != nil {
		return err
	}
	return a.engine.PointerMove(x, y)
}

func (a *App) Up(ctx context.Context, args []string) error {
	return a.engine.PointerUp()
}

// gesture runs down, move and up from the screen position of (x, y) by a
// page offset of (dx, dy). want is the state the press must start.
func (a *App) gesture(x, y, dx, dy int, want editor.State) error {
	v := a.engine.Viewport()
	sx, sy := v.ToScreen(x, y)
	ex, ey := v.ToScreen(x+dx, y+dy)

	if err := a.engine.PointerDown(sx, sy); err != nil {
		return err
	}
	if a.engine.State() != want {
		_ = a.engine.PointerUp()
		return fmt.Errorf("%w: %s did not start at %d,%d", common.ErrUnknownElement, want, x, y)
	}
	if err := a.engine.PointerMove(ex, ey); err != nil {
		_ = a.engine.PointerUp()
		return err
	}
	return a.engine.PointerUp()
}

func (a *App) parseDelta(args []string) (int, int, error) {
	dx, err := parseInt(args[0])
	if err != nil {
		return 0, 0, err
	}
	dy, err := parseInt(args[1])
	if err != nil {
		return 0, 0, err
	}
	return dx, dy, nil
}

func (a *App) Drag(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usage("drag <element> <dx> <dy>")
	}
	id := parseElement(args[0])
	dx, dy, err := a.parseDelta(args[1:])
	if err != nil {
		return err
	}
	r, _, err := a.store.Bounds(id)
	if err != nil {
		return err
	}
	x, y := r.X+r.Width/2, r.Y+r.Height/2
	if el, ok := a.engine.HitTest(x, y); !ok || el.ID != id {
		return fmt.Errorf("%w: %s is covered at its centre", common.ErrUnknownElement, id)
	}
	if err := a.gesture(x, y, dx, dy, editor.StateDragging); err != nil {
		return err
	}
	return a.printBounds(id)
}

func (a *App) Resize(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return usage("resize <element> <n|ne|e|se|s|sw|w|nw> <dx> <dy>")
	}
	id := parseElement(args[0])
	h, ok := layout.ParseHandle(args[1])
	if !ok {
		return fmt.Errorf("%w: handle %q", common.ErrInvalidField, args[1])
	}
	dx, dy, err := a.parseDelta(args[2:])
	if err != nil {
		return err
	}
	if err := a.engine.Select(id); err != nil {
		return err
	}
	r, _, err := a.store.Bounds(id)
	if err != nil {
		return err
	}
	x, y := h.Anchor(r)
	if err := a.gesture(x, y, dx, dy, editor.StateResizing); err != nil {
		return err
	}
	return a.printBounds(id)
}

func (a *App) printBounds(id layout.ElementID) error {
	r, _, err := a.store.Bounds(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s x=%d y=%d w=%d h=%d\n", id, r.X, r.Y, r.Width, r.Height)
	return nil
}

func (a *App) Grid(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("grid off | grid <size>")
	}
	if on, err := parseOnOff(args[0]); err == nil && !on {
		return a.engine.SetGrid(layout.GridConfig{})
	}
	n, err := parseInt(args[0])
	if err != nil {
		return err
	}
	return a.engine.SetGrid(layout.GridConfig{Enabled: true, CellSize: n})
}

func (a *App) Zoom(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("zoom <factor>")
	}
	z, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	if z <= 0 {
		return fmt.Errorf("%w: zoom must be positive", common.ErrInvalidField)
	}
	v := a.engine.Viewport()
	v.Zoom = z
	a.engine.SetViewport(v)
	return nil
}

func (a *App) Set(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usage("set <zone> <field> <value>")
	}
	return a.store.UpdateZoneField(args[0], args[1], strings.Join(args[2:], " "))
}

func (a *App) Toggle(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("toggle <serial|date|signature|verification> <on|off>")
	}
	on, err := parseOnOff(args[1])
	if err != nil {
		return err
	}
	id := parseElement(args[0])
	if id == layout.VerificationID {
		return a.store.SetVerification(on)
	}
	k, ok := id.FixedKind()
	if !ok {
		return fmt.Errorf("%w: %s is not a fixed element", common.ErrUnknownElement, args[0])
	}
	if err := a.store.SetFixed(k, on); err != nil {
		return err
	}
	if !on && a.engine.Selected() == id {
		a.engine.ClearSelection()
	}
	return nil
}

func (a *App) Align(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("align <serial|date|signature|verification> <left|center|right>")
	}
	al, err := layout.ParseAlignment(args[1])
	if err != nil {
		return err
	}
	id := parseElement(args[0])
	if id == layout.VerificationID {
		return a.store.SetVerificationAlignment(al)
	}
	k, ok := id.FixedKind()
	if !ok {
		return fmt.Errorf("%w: %s is not a fixed element", common.ErrUnknownElement, args[0])
	}
	return a.store.SetFixedAlignment(k, al)
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <zone>")
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if a.engine.Selected() == layout.ZoneID(args[0]) {
		a.engine.ClearSelection()
	}
	return a.store.DeleteZone(ctx, args[0])
}

func (a *App) Save(ctx context.Context, args []string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.store.SaveAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "saved")
	return nil
}

func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("export <letter> [template]")
	}
	if a.remote == nil {
		return errOffline
	}
	templateID := ""
	if len(args) == 2 {
		templateID = args[1]
	} else if snap, err := a.store.Snapshot(); err == nil {
		templateID = snap.ID
	}
	if a.store.Dirty() {
		fmt.Fprintln(a.out, "note: unsaved changes are not part of the export")
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	res, err := a.remote.ExportLetter(ctx, args[0], templateID)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(a.out, "warning: %s: %s\n", w.Code, w.Message)
	}

	path, err := filex.WriteAtomic(a.config.OutputDir, filex.SafeName(args[0]+".pdf"), res.Document)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported %s (%d bytes), delivered to %s\n", path, len(res.Document), res.Location)
	return nil
}

// Preview writes a PNG of the template. Saved templates are rendered by the
// server over their background; unsaved or offline ones locally on a blank
// page.
func (a *App) Preview(ctx context.Context, args []string) error {
	snap, err := a.store.Snapshot()
	if err != nil {
		return err
	}
	selected := a.engine.Selected()

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	var png []byte
	if a.remote != nil && !a.store.Dirty() {
		png, err = a.remote.Preview(ctx, snap.ID, selected)
	} else {
		png, err = a.renderer.Render(ctx, nil, a.store.Elements(), selected)
	}
	if err != nil {
		return err
	}

	path, err := filex.WriteAtomic(a.config.OutputDir, filex.SafeName(snap.ID+"-preview.png"), png)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "preview written to", filepath.Clean(path))
	return nil
}

func (a *App) Status(ctx context.Context, args []string) error {
	snap, err := a.store.Snapshot()
	if err != nil {
		return err
	}
	g := a.engine.Grid()
	grid := "off"
	if g.Enabled {
		grid = fmt.Sprint(g.CellSize)
	}
	fmt.Fprintf(a.out, "template %s %q, zones %d, unsaved %t\n", snap.ID, snap.Name, len(snap.Zones), a.store.Dirty())
	fmt.Fprintf(a.out, "state %s, selected %q, grid %s, zoom %g\n", a.engine.State(), a.engine.Selected(), grid, a.engine.Viewport().Zoom)
	if d := a.store.Diverged(); len(d) > 0 {
		fmt.Fprintf(a.out, "zones not yet on the server: %s\n", strings.Join(d, ", "))
	}
	return nil
}

func (a *App) Quit(ctx context.Context, force bool) error {
	if a.store.Dirty() && !force {
		return errUnsavedState
	}
	return nil
}

package zonestore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/google/uuid"
)

// Font size bounds accepted by UpdateZoneField.
const (
	MinFontSize = 6
	MaxFontSize = 96
)

// Store holds the template being edited. Geometry writes coming from the
// interaction engine are synchronous and in-memory; only Load, AddZone,
// DeleteZone and SaveAll reach the backend.
type Store struct {
	backend Persistence
	page    layout.Page
	logger  logging.Logger

	mu       sync.RWMutex
	tpl      *layout.Template
	dirty    bool
	diverged map[string]struct{}
	hooks    []func(templateID string)

	saving atomic.Bool
}

func New(backend Persistence, page layout.Page, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Store{
		backend:  backend,
		page:     page,
		logger:   logger.With("module", "zonestore"),
		diverged: make(map[string]struct{}),
	}
}

// OnSaved registers a hook called after every successful SaveAll.
func (s *Store) OnSaved(fn func(templateID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Load fetches the template and replaces the in-memory state. A template
// that was never configured gets DefaultConfig and is marked dirty.
func (s *Store) Load(ctx context.Context, id string) error {
	t, err := s.backend.GetTemplate(ctx, id)
	if err != nil {
		return &common.PersistenceError{Op: "get template", Err: err}
	}
	c := t.Clone()

	dirty := false
	if c.Config == nil {
		cfg := layout.DefaultConfig()
		c.Config = &cfg
		dirty = true
		s.logger.Info(ctx, "default config synthesized", "template", id)
	}
	for i := range c.Zones {
		c.Zones[i].Rect = layout.ClampToPage(c.Zones[i].Rect, s.page)
	}
	clampConfig(c.Config, s.page)

	s.mu.Lock()
	s.tpl = &c
	s.dirty = dirty
	s.diverged = make(map[string]struct{})
	s.mu.Unlock()
	return nil
}

// clampConfig pulls stored fixed elements and the verification symbol back
// onto the page. The symbol stays square.
func clampConfig(cfg *layout.Config, p layout.Page) {
	for _, k := range layout.FixedKinds {
		f := cfg.Fixed.Get(k)
		f.SetRect(k, layout.ClampToPage(f.Rect(k), p))
	}
	r := layout.ClampToPage(cfg.Verification.Rect(), p)
	r.Width = min(r.Width, r.Height)
	cfg.Verification.SetRect(r)
}

// Loaded reports whether a template is held.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tpl != nil
}

// Snapshot returns a deep copy of the current template.
func (s *Store) Snapshot() (layout.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tpl == nil {
		return layout.Template{}, common.ErrNoTemplate
	}
	return s.tpl.Clone(), nil
}

// Dirty reports unsaved in-memory changes.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Diverged lists zones that exist locally but whose creation failed in the
// backend. A successful SaveAll reconciles them.
func (s *Store) Diverged() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tpl == nil {
		return nil
	}
	out := make([]string, 0, len(s.diverged))
	for _, z := range s.tpl.Zones {
		if _, ok := s.diverged[z.ID]; ok {
			out = append(out, z.ID)
		}
	}
	return out
}

// AddZone creates a zone with the default geometry. The zone is appended
// even when the backend call fails; in that case it carries a locally
// generated id and the PersistenceError is returned.
func (s *Store) AddZone(ctx context.Context) (layout.Zone, error) {
	s.mu.RLock()
	if s.tpl == nil {
		s.mu.RUnlock()
		return layout.Zone{}, common.ErrNoTemplate
	}
	templateID := s.tpl.ID
	s.mu.RUnlock()

	z := layout.NewZone(s.page)
	created, err := s.backend.CreateZone(ctx, templateID, z)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		z.ID = uuid.NewString()
		s.tpl.Zones = append(s.tpl.Zones, z)
		s.diverged[z.ID] = struct{}{}
		s.dirty = true
		s.logger.Warn(ctx, "zone kept locally after create failure", "zone", z.ID, "error", err)
		return z, &common.PersistenceError{Op: "create zone", Err: err}
	}
	s.tpl.Zones = append(s.tpl.Zones, created)
	return created, nil
}

func (s *Store) zoneIndex(id string) int {
	for i, z := range s.tpl.Zones {
		if z.ID == id {
			return i
		}
	}
	return -1
}

// UpdateZoneField edits one property of a zone in memory. Geometry fields
// are clamped to the page; extents below the zone minimum are rejected.
func (s *Store) UpdateZoneField(id, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tpl == nil {
		return common.ErrNoTemplate
	}
	i := s.zoneIndex(id)
	if i < 0 {
		return fmt.Errorf("zone %s: %w", id, common.ErrUnknownElement)
	}
	z := s.tpl.Zones[i]

	atoi := func() (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", common.ErrInvalidField, field, value)
		}
		return n, nil
	}

	switch field {
	case "name":
		z.Name = value
	case "font_family":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: empty font family", common.ErrInvalidField)
		}
		z.FontFamily = value
	case "alignment":
		a, err := layout.ParseAlignment(value)
		if err != nil {
			return err
		}
		z.Alignment = a
	case "font_size":
		n, err := atoi()
		if err != nil {
			return err
		}
		if n < MinFontSize || n > MaxFontSize {
			return fmt.Errorf("%w: font_size %d out of [%d, %d]", common.ErrInvalidField, n, MinFontSize, MaxFontSize)
		}
		z.FontSize = n
	case "x", "y", "width", "height":
		n, err := atoi()
		if err != nil {
			return err
		}
		r := z.Rect
		switch field {
		case "x":
			r.X = n
		case "y":
			r.Y = n
		case "width":
			if n < layout.ZoneLimits.MinWidth {
				return fmt.Errorf("%w: width %d below %d", common.ErrInvalidField, n, layout.ZoneLimits.MinWidth)
			}
			r.Width = n
		case "height":
			if n < layout.ZoneLimits.MinHeight {
				return fmt.Errorf("%w: height %d below %d", common.ErrInvalidField, n, layout.ZoneLimits.MinHeight)
			}
			r.Height = n
		}
		z.Rect = layout.ClampToPage(r, s.page)
	default:
		return fmt.Errorf("%w: unknown field %q", common.ErrInvalidField, field)
	}

	s.tpl.Zones[i] = z
	s.dirty = true
	return nil
}

// SetFixed toggles a fixed element.
func (s *Store) SetFixed(k layout.FixedKind, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tpl == nil {
		return common.ErrNoTemplate
	}
	f := s.tpl.Config.Fixed.Get(k)
	if f == nil {
		return fmt.Errorf("fixed element %s: %w", k, common.ErrUnknownElement)
	}
	f.Enabled = enabled
	s.dirty = true
	return nil
}

// SetFixedAlignment changes the text alignment of a fixed element.
func (s *Store) SetFixedAlignment(k layout.FixedKind, a layout.Alignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tpl == nil {
		return common.ErrNoTemplate
	}
	f := s.tpl.Config.Fixed.Get(k)
	if f == nil {
		return fmt.Errorf("fixed element %s: %w", k, common.ErrUnknownElement)
	}
	f.Alignment = a
	s.dirty = true
	return nil
}

// SetVerification toggles the verification symbol.
func (s *Store) SetVerification(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tpl == nil {
		return common.ErrNoTemplate
	}
	s.tpl.Config.Verification.Enabled = enabled
	s.dirty = true
	return nil
}

// SetVerificationAlignment changes where the symbol sits in its square.
func (s *Store) SetVerificationAlignment(a layout.Alignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tpl == nil {
		return common.ErrNoTemplate
	}
	s.tpl.Config.Verification.Alignment = a
	s.dirty = true
	return nil
}

// DeleteZone removes the zone locally, then in the backend. A zone that
// was never created remotely is only removed locally.
func (s *Store) DeleteZone(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.tpl == nil {
		s.mu.Unlock()
		return common.ErrNoTemplate
	}
	i := s.zoneIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("zone %s: %w", id, common.ErrUnknownElement)
	}
	s.tpl.Zones = append(s.tpl.Zones[:i], s.tpl.Zones[i+1:]...)
	_, localOnly := s.diverged[id]
	delete(s.diverged, id)
	s.mu.Unlock()

	if localOnly {
		return nil
	}
	if err := s.backend.DeleteZone(ctx, id); err != nil {
		return &common.PersistenceError{Op: "delete zone", Err: err}
	}
	return nil
}

// SaveAll pushes every zone and the config to the backend. Only one save
// runs at a time; a concurrent call gets ErrSaveInProgress. On failure the
// in-memory state is untouched and still dirty.
func (s *Store) SaveAll(ctx context.Context) error {
	if !s.saving.CompareAndSwap(false, true) {
		return common.ErrSaveInProgress
	}
	defer s.saving.Store(false)

	snap, err := s.Snapshot()
	if err != nil {
		return err
	}

	if err := s.backend.ReplaceZones(ctx, snap.ID, snap.Zones); err != nil {
		return &common.PersistenceError{Op: "replace zones", Err: err}
	}
	if err := s.backend.UpdateTemplateConfig(ctx, snap.ID, *snap.Config); err != nil {
		return &common.PersistenceError{Op: "update config", Err: err}
	}

	s.mu.Lock()
	s.dirty = false
	for _, z := range snap.Zones {
		delete(s.diverged, z.ID)
	}
	hooks := append([]func(string){}, s.hooks...)
	s.mu.Unlock()

	s.logger.Info(ctx, "template saved", "template", snap.ID, "zones", len(snap.Zones))
	for _, fn := range hooks {
		fn(snap.ID)
	}
	return nil
}

// Elements returns all placeable elements in paint order, bottom first:
// zones in list order, then serial number, issue date, signature and the
// verification symbol.
func (s *Store) Elements() []layout.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tpl == nil {
		return nil
	}
	return s.tpl.Elements()
}

// Bounds returns the rectangle of an element.
func (s *Store) Bounds(id layout.ElementID) (layout.Rect, layout.Limits, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tpl == nil {
		return layout.Rect{}, layout.Limits{}, common.ErrNoTemplate
	}
	switch {
	case id == layout.VerificationID:
		return s.tpl.Config.Verification.Rect(), layout.VerificationLimits, nil
	case id.IsFixed():
		k, ok := id.FixedKind()
		if !ok {
			return layout.Rect{}, layout.Limits{}, fmt.Errorf("%s: %w", id, common.ErrUnknownElement)
		}
		return s.tpl.Config.Fixed.Get(k).Rect(k), k.Limits(), nil
	}
	i := s.zoneIndex(string(id))
	if i < 0 {
		return layout.Rect{}, layout.Limits{}, fmt.Errorf("%s: %w", id, common.ErrUnknownElement)
	}
	return s.tpl.Zones[i].Rect, layout.ZoneLimits, nil
}

// SetBounds writes a rectangle produced by the interaction engine. The
// rectangle must already satisfy the page invariant.
func (s *Store) SetBounds(id layout.ElementID, r layout.Rect) error {
	if !r.Inside(s.page) {
		return fmt.Errorf("%w: %s at %+v", common.ErrGeometryViolation, id, r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tpl == nil {
		return common.ErrNoTemplate
	}
	switch {
	case id == layout.VerificationID:
		s.tpl.Config.Verification.SetRect(r)
	case id.IsFixed():
		k, ok := id.FixedKind()
		if !ok {
			return fmt.Errorf("%s: %w", id, common.ErrUnknownElement)
		}
		s.tpl.Config.Fixed.Get(k).SetRect(k, r)
	default:
		i := s.zoneIndex(string(id))
		if i < 0 {
			return fmt.Errorf("%s: %w", id, common.ErrUnknownElement)
		}
		s.tpl.Zones[i].Rect = r
	}
	s.dirty = true
	return nil
}

// Commit records the end of a gesture.
func (s *Store) Commit(id layout.ElementID, r layout.Rect) error {
	if err := s.SetBounds(id, r); err != nil {
		return err
	}
	s.logger.Debug(context.Background(), "gesture committed", "element", string(id), "rect", r)
	return nil
}

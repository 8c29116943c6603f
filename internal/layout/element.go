package layout

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/letterdesk/internal/common"
)

// Alignment of text (or an image) inside its rectangle.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ParseAlignment validates a user-supplied alignment.
func ParseAlignment(s string) (Alignment, error) {
	switch a := Alignment(strings.ToLower(strings.TrimSpace(s))); a {
	case AlignLeft, AlignCenter, AlignRight:
		return a, nil
	}
	return "", fmt.Errorf("%w: alignment %q", common.ErrInvalidField, s)
}

// LineHeight is the implied height of single-line fixed elements.
const LineHeight = 24

// Zone defaults.
const (
	DefaultZoneWidth    = 200
	DefaultZoneHeight   = 50
	DefaultZoneFontSize = 14
	DefaultZoneFamily   = "default"
	DefaultZoneName     = "New zone"
)

// ZoneLimits are the minimum zone extents.
var ZoneLimits = Limits{MinWidth: 50, MinHeight: 30}

// Zone is an operator-defined writable rectangle.
type Zone struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Rect       Rect      `json:"rect"`
	FontFamily string    `json:"font_family"`
	FontSize   int       `json:"font_size"`
	Alignment  Alignment `json:"alignment"`
}

// NewZone returns a zone with the default geometry, centred on p. The id is
// left empty; the persistence backend assigns it.
func NewZone(p Page) Zone {
	return Zone{
		Name: DefaultZoneName,
		Rect: Rect{
			X:      (p.Width - DefaultZoneWidth) / 2,
			Y:      (p.Height - DefaultZoneHeight) / 2,
			Width:  DefaultZoneWidth,
			Height: DefaultZoneHeight,
		},
		FontFamily: DefaultZoneFamily,
		FontSize:   DefaultZoneFontSize,
		Alignment:  AlignRight,
	}
}

// IsDefaultGeometry reports whether z still has the name and rectangle it
// was created with.
func (z Zone) IsDefaultGeometry(p Page) bool {
	d := NewZone(p)
	return z.Name == d.Name && z.Rect == d.Rect
}

// FixedKind names one of the three singleton fixed elements.
type FixedKind string

const (
	SerialNumber FixedKind = "serial_number"
	IssueDate    FixedKind = "issue_date"
	Signature    FixedKind = "signature"
)

// FixedKinds lists the fixed element kinds in paint order (bottom first).
var FixedKinds = []FixedKind{SerialNumber, IssueDate, Signature}

// Limits returns the size constraints for the kind.
func (k FixedKind) Limits() Limits {
	if k == Signature {
		return Limits{MinWidth: 80, MinHeight: 40}
	}
	return Limits{MinWidth: 60, MinHeight: LineHeight, FixedHeight: true}
}

// FixedElement is a repositionable, togglable singleton element.
type FixedElement struct {
	Enabled   bool      `json:"enabled"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height,omitempty"`
	Alignment Alignment `json:"alignment"`
}

// Rect returns the element rectangle; single-line kinds use LineHeight.
func (f FixedElement) Rect(k FixedKind) Rect {
	h := f.Height
	if k != Signature {
		h = LineHeight
	}
	return Rect{X: f.X, Y: f.Y, Width: f.Width, Height: h}
}

// SetRect stores r; height is only kept for the signature block.
func (f *FixedElement) SetRect(k FixedKind, r Rect) {
	f.X, f.Y, f.Width = r.X, r.Y, r.Width
	if k == Signature {
		f.Height = r.Height
	} else {
		f.Height = 0
	}
}

// FixedElements holds the three singletons of a template.
type FixedElements struct {
	SerialNumber FixedElement `json:"serial_number"`
	IssueDate    FixedElement `json:"issue_date"`
	Signature    FixedElement `json:"signature"`
}

// Get returns a pointer to the element of kind k.
func (f *FixedElements) Get(k FixedKind) *FixedElement {
	switch k {
	case SerialNumber:
		return &f.SerialNumber
	case IssueDate:
		return &f.IssueDate
	case Signature:
		return &f.Signature
	}
	return nil
}

// VerificationLimits keep the symbol square and scannable.
var VerificationLimits = Limits{MinWidth: 40, MinHeight: 40, Square: true}

// VerificationPlacement is the optional square verification symbol.
type VerificationPlacement struct {
	Enabled   bool      `json:"enabled"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Size      int       `json:"size"`
	Alignment Alignment `json:"alignment"`
}

func (v VerificationPlacement) Rect() Rect {
	return Rect{X: v.X, Y: v.Y, Width: v.Size, Height: v.Size}
}

func (v *VerificationPlacement) SetRect(r Rect) {
	v.X, v.Y, v.Size = r.X, r.Y, r.Width
}

// Config is the per-template fixed element configuration, persisted as one
// document next to the zone list.
type Config struct {
	Fixed        FixedElements         `json:"fixed_elements"`
	Verification VerificationPlacement `json:"verification_placement"`
}

// DefaultConfig is synthesized for templates that were never configured.
func DefaultConfig() Config {
	return Config{
		Fixed: FixedElements{
			SerialNumber: FixedElement{Enabled: true, X: 400, Y: 60, Width: 150, Alignment: AlignRight},
			IssueDate:    FixedElement{Enabled: true, X: 400, Y: 90, Width: 150, Alignment: AlignRight},
			Signature:    FixedElement{Enabled: true, X: 60, Y: 680, Width: 180, Height: 90, Alignment: AlignLeft},
		},
		Verification: VerificationPlacement{Enabled: false, X: 40, Y: 40, Size: 90, Alignment: AlignLeft},
	}
}

// Template is the aggregate root and the unit of persistence.
type Template struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	BackgroundRef string  `json:"background_ref"`
	Zones         []Zone  `json:"zones"`
	Config        *Config `json:"config,omitempty"`
}

// Clone returns a deep copy.
func (t Template) Clone() Template {
	c := t
	c.Zones = append([]Zone(nil), t.Zones...)
	if t.Config != nil {
		cfg := *t.Config
		c.Config = &cfg
	}
	return c
}

// Validate checks the page invariant for every placed element.
func (t Template) Validate(p Page) error {
	for _, z := range t.Zones {
		if !z.Rect.Inside(p) {
			return fmt.Errorf("%w: zone %s at %+v", common.ErrGeometryViolation, z.ID, z.Rect)
		}
	}
	if t.Config == nil {
		return nil
	}
	for _, k := range FixedKinds {
		if r := t.Config.Fixed.Get(k).Rect(k); !r.Inside(p) {
			return fmt.Errorf("%w: %s at %+v", common.ErrGeometryViolation, k, r)
		}
	}
	if r := t.Config.Verification.Rect(); !r.Inside(p) {
		return fmt.Errorf("%w: verification at %+v", common.ErrGeometryViolation, r)
	}
	return nil
}

// MustValid panics on a geometry violation. Interaction outputs are valid by
// construction, so a failure here is a programming error.
func MustValid(t Template, p Page) {
	if err := t.Validate(p); err != nil {
		panic(err)
	}
}

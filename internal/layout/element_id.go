package layout

import "strings"

// ElementID identifies anything an operator can place: a zone id, or one of
// the reserved ids of the fixed elements and the verification symbol.
type ElementID string

const fixedPrefix = "fixed:"

// VerificationID is the reserved id of the verification symbol.
const VerificationID ElementID = fixedPrefix + "verification"

// FixedID returns the reserved id of a fixed element.
func FixedID(k FixedKind) ElementID {
	return ElementID(fixedPrefix + string(k))
}

// ZoneID wraps a zone id.
func ZoneID(id string) ElementID { return ElementID(id) }

// IsFixed reports whether id names a fixed element or the verification symbol.
func (id ElementID) IsFixed() bool {
	return strings.HasPrefix(string(id), fixedPrefix)
}

// FixedKind returns the kind for a fixed element id.
func (id ElementID) FixedKind() (FixedKind, bool) {
	if !id.IsFixed() || id == VerificationID {
		return "", false
	}
	k := FixedKind(strings.TrimPrefix(string(id), fixedPrefix))
	for _, known := range FixedKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Element is the geometry view of a placed element used for hit-testing
// and painting. Disabled elements are listed but never hit.
type Element struct {
	ID      ElementID
	Label   string
	Rect    Rect
	Limits  Limits
	Enabled bool
}

// Elements returns all placeable elements of t in paint order, bottom
// first: zones in list order, then serial number, issue date, signature and
// the verification symbol. A nil Config reads as DefaultConfig.
func (t Template) Elements() []Element {
	cfg := DefaultConfig()
	if t.Config != nil {
		cfg = *t.Config
	}
	out := make([]Element, 0, len(t.Zones)+4)
	for _, z := range t.Zones {
		out = append(out, Element{
			ID: ZoneID(z.ID), Label: z.Name, Rect: z.Rect,
			Limits: ZoneLimits, Enabled: true,
		})
	}
	for _, k := range FixedKinds {
		f := cfg.Fixed.Get(k)
		out = append(out, Element{
			ID: FixedID(k), Label: string(k), Rect: f.Rect(k),
			Limits: k.Limits(), Enabled: f.Enabled,
		})
	}
	v := cfg.Verification
	out = append(out, Element{
		ID: VerificationID, Label: "verification", Rect: v.Rect(),
		Limits: VerificationLimits, Enabled: v.Enabled,
	})
	return out
}

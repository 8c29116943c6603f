package compose

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/letterdesk/internal/fonts"
	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
)

var allVariants = []fonts.Variant{
	{},
	{Bold: true},
	{Italic: true},
	{Bold: true, Italic: true},
}

type fontKey struct {
	family  string
	variant fonts.Variant
}

type faceKey struct {
	fontKey
	size float64
}

// face is one font at one size.
type face struct {
	font    *fonts.Font
	measure font.Face
	shaping *gtfont.Face
}

// covers reports whether the font has a glyph for r.
func (f *face) covers(r rune) bool {
	_, ok := f.measure.GlyphAdvance(r)
	return ok
}

// faceSet resolves fonts once per composition and owns the faces created
// from them; neither opentype nor shaping faces are safe for concurrent use.
type faceSet struct {
	reg      *fonts.Registry
	dpi      float64
	resolved map[fontKey]*fonts.Font
	faces    map[faceKey]*face
	shaping  map[*fonts.Font]*gtfont.Face
	failed   map[string]bool
	onFail   func(family string, err error)

	// runes a family lacked and took from a fallback font, and runes no
	// font could draw
	substituted map[string]map[rune]bool
	missing     map[rune]bool
}

func newFaceSet(reg *fonts.Registry, scale float64, onFail func(string, error)) *faceSet {
	return &faceSet{
		reg:         reg,
		dpi:         72 * scale,
		resolved:    make(map[fontKey]*fonts.Font),
		faces:       make(map[faceKey]*face),
		shaping:     make(map[*fonts.Font]*gtfont.Face),
		failed:      make(map[string]bool),
		onFail:      onFail,
		substituted: make(map[string]map[rune]bool),
		missing:     make(map[rune]bool),
	}
}

func normFamily(family string) string {
	f := strings.ToLower(strings.TrimSpace(family))
	if f == "" {
		return fonts.DefaultFamily
	}
	return f
}

// await loads a family (all variants when withVariants is set). Failures
// are reported once per family and replaced by the built-in font.
func (fs *faceSet) await(ctx context.Context, family string, withVariants bool) {
	family = normFamily(family)
	variants := allVariants[:1]
	if withVariants {
		variants = allVariants
	}
	for _, v := range variants {
		k := fontKey{family: family, variant: v}
		if _, ok := fs.resolved[k]; ok {
			continue
		}
		f, err := fs.reg.Load(ctx, family, v)
		if err != nil {
			if !fs.failed[family] {
				fs.failed[family] = true
				fs.onFail(family, err)
			}
			f = fs.reg.Builtin(v)
		}
		fs.resolved[k] = f
	}
}

// face returns a face of family at size points.
func (fs *faceSet) face(family string, v fonts.Variant, size float64) *face {
	family = normFamily(family)
	fk := fontKey{family: family, variant: v}
	f, ok := fs.resolved[fk]
	if !ok {
		f, ok = fs.resolved[fontKey{family: family}]
	}
	if !ok {
		f = fs.reg.Builtin(v)
	}
	return fs.faceOf(f, fk, size)
}

func (fs *faceSet) faceOf(f *fonts.Font, fk fontKey, size float64) *face {
	k := faceKey{fontKey: fk, size: size}
	if out, ok := fs.faces[k]; ok {
		return out
	}
	m, err := fonts.NewFace(f, size, fs.dpi)
	if err != nil {
		f = fs.reg.Builtin(fk.variant)
		m, _ = fonts.NewFace(f, size, fs.dpi)
	}
	sh, ok := fs.shaping[f]
	if !ok {
		sh = gtfont.NewFace(f.Shaping)
		fs.shaping[f] = sh
	}
	out := &face{font: f, measure: m, shaping: sh}
	fs.faces[k] = out
	return out
}

// fontmap returns the faces tried in turn for every rune of a family: the
// family itself, then the Go fonts, then the script fallback.
func (fs *faceSet) fontmap(family string, v fonts.Variant, size float64) *fontmap {
	family = normFamily(family)
	chain := []*face{fs.face(family, v, size)}
	if family != fonts.DefaultFamily {
		chain = append(chain, fs.faceOf(fs.reg.Builtin(v), fontKey{family: fonts.DefaultFamily, variant: v}, size))
	}
	chain = append(chain, fs.faceOf(fs.reg.Fallback(v), fontKey{family: "\x00fallback", variant: v}, size))
	return &fontmap{fs: fs, family: family, chain: chain}
}

// fontmap picks, per rune, the first face of its chain that has a glyph.
// It satisfies shaping.Fontmap.
type fontmap struct {
	fs     *faceSet
	family string
	chain  []*face
}

func (m *fontmap) ResolveFace(r rune) *gtfont.Face {
	if ignorable(r) {
		return m.chain[0].shaping
	}
	for i, f := range m.chain {
		if !f.covers(r) {
			continue
		}
		if i > 0 && m.family != fonts.DefaultFamily && !m.fs.failed[m.family] {
			m.fs.substitute(m.family, r)
		}
		return f.shaping
	}
	m.fs.missing[r] = true
	return m.chain[0].shaping
}

func (fs *faceSet) substitute(family string, r rune) {
	set, ok := fs.substituted[family]
	if !ok {
		set = make(map[rune]bool)
		fs.substituted[family] = set
	}
	set[r] = true
}

func ignorable(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}

// glyphGaps returns, in a stable order, the families that borrowed glyphs
// with the runes they borrowed, and the runes nothing could draw.
func (fs *faceSet) glyphGaps() (substituted []familyRunes, missing string) {
	for family, set := range fs.substituted {
		substituted = append(substituted, familyRunes{family: family, runes: sortedRunes(set)})
	}
	sort.Slice(substituted, func(i, j int) bool { return substituted[i].family < substituted[j].family })
	return substituted, sortedRunes(fs.missing)
}

type familyRunes struct {
	family string
	runes  string
}

func sortedRunes(set map[rune]bool) string {
	rs := make([]rune, 0, len(set))
	for r := range set {
		rs = append(rs, r)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })
	return string(rs)
}

func (fs *faceSet) close() {
	for _, f := range fs.faces {
		_ = f.measure.Close()
	}
}

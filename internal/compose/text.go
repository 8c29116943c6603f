package compose

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/letterdesk/internal/fonts"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/markup"
	"github.com/dmitrijs2005/letterdesk/internal/rtl"
	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

var (
	ink      = image.NewUniform(color.Black)
	textLang = language.NewLanguage("fa")
)

// styledText is a paragraph as one rune sequence with a style per rune.
// Whitespace is collapsed to single spaces and trimmed at both ends.
type styledText struct {
	runes  []rune
	styles []markup.Style
	// words are [start, end) rune ranges without spaces
	words [][2]int
}

func newStyledText(spans []markup.Span) *styledText {
	t := &styledText{}
	for _, sp := range spans {
		for _, r := range sp.Text {
			if unicode.IsSpace(r) {
				if n := len(t.runes); n == 0 || t.runes[n-1] == ' ' {
					continue
				}
				r = ' '
			}
			t.runes = append(t.runes, r)
			t.styles = append(t.styles, sp.Style)
		}
	}
	if n := len(t.runes); n > 0 && t.runes[n-1] == ' ' {
		t.runes, t.styles = t.runes[:n-1], t.styles[:n-1]
	}
	start := -1
	for i, r := range t.runes {
		switch {
		case r == ' ' && start >= 0:
			t.words = append(t.words, [2]int{start, i})
			start = -1
		case r != ' ' && start < 0:
			start = i
		}
	}
	if start >= 0 {
		t.words = append(t.words, [2]int{start, len(t.runes)})
	}
	return t
}

func plainText(s string) *styledText {
	return newStyledText([]markup.Span{{Text: s}})
}

// textStyle is how a block of text is set.
type textStyle struct {
	family string
	size   float64 // points
	base   rtl.Direction
	align  layout.Alignment
}

func (ts textStyle) direction() di.Direction {
	if ts.base == rtl.LTR {
		return di.DirectionLTR
	}
	return di.DirectionRTL
}

// shapedRun is one shaped piece of a line: a single direction, script,
// style and face.
type shapedRun struct {
	out   shaping.Output
	style markup.Style
	level int
}

// shape shapes t.runes[start:end] into runs in logical order. The whole
// paragraph is passed as context, so letters keep joining across style
// changes inside a word.
func (c *composition) shape(t *styledText, start, end int, ts textStyle) []shapedRun {
	if start >= end {
		return nil
	}
	in := shaping.Input{
		Text:      t.runes,
		RunStart:  start,
		RunEnd:    end,
		Direction: ts.direction(),
		Size:      fixed.Int26_6(math.Round(ts.size * float64(c.scale) * 64)),
		Language:  textLang,
	}
	regular := c.faces.fontmap(ts.family, fonts.Variant{}, ts.size)
	bidiRuns := append([]shaping.Input(nil), c.seg.Split(in, firstFace{regular.chain[0].shaping})...)

	var out []shapedRun
	for _, br := range bidiRuns {
		dir := rtl.LTR
		if br.Direction.Progression() == di.TowardTopLeft {
			dir = rtl.RTL
		}
		level := rtl.Level(dir, ts.base)
		for s := br.RunStart; s < br.RunEnd; {
			st := t.styles[s]
			e := s + 1
			for e < br.RunEnd && t.styles[e] == st {
				e++
			}
			piece := br
			piece.RunStart, piece.RunEnd = s, e
			fm := c.faces.fontmap(ts.family, fonts.Variant{Bold: st.Bold, Italic: st.Italic}, ts.size)
			for _, p := range shaping.SplitByFace(piece, fm) {
				out = append(out, shapedRun{out: c.hb.Shape(p), style: st, level: level})
			}
			s = e
		}
	}
	return out
}

// firstFace resolves every rune to one face; bidi and script splitting do
// not depend on it.
type firstFace struct{ f *gtfont.Face }

func (ff firstFace) ResolveFace(rune) *gtfont.Face { return ff.f }

func advance(runs []shapedRun) fixed.Int26_6 {
	var w fixed.Int26_6
	for _, r := range runs {
		w += r.out.Advance
	}
	return w
}

// wrapLines greedily fills lines up to maxW and returns their rune ranges.
// A word wider than a line gets a line of its own.
func wrapLines(words [][2]int, maxW fixed.Int26_6, width func(start, end int) fixed.Int26_6) [][2]int {
	var lines [][2]int
	for i := 0; i < len(words); {
		j := i + 1
		for j < len(words) && width(words[i][0], words[j][1]) <= maxW {
			j++
		}
		lines = append(lines, [2]int{words[i][0], words[j-1][1]})
		i = j
	}
	return lines
}

func (c *composition) wrap(t *styledText, maxW fixed.Int26_6, ts textStyle) [][2]int {
	return wrapLines(t.words, maxW, func(start, end int) fixed.Int26_6 {
		return advance(c.shape(t, start, end, ts))
	})
}

// drawLine draws t.runes[start:end] between left and right (pixels) with
// the baseline at y.
func (c *composition) drawLine(dst draw.Image, t *styledText, start, end, left, right, y int, ts textStyle) {
	runs := c.shape(t, start, end, ts)
	levels := make([]int, len(runs))
	for i, r := range runs {
		levels[i] = r.level
	}
	total := advance(runs)

	l, rt := fixed.I(left), fixed.I(right)
	x := l
	switch ts.align {
	case layout.AlignRight:
		x = rt - total
	case layout.AlignCenter:
		x = l + (rt-l-total)/2
	}

	for _, i := range rtl.Reorder(levels) {
		r := runs[i]
		c.drawGlyphs(dst, r.out, x, y)
		if r.style.Underline {
			underline(dst, r.out, x, x+r.out.Advance, y)
		}
		x += r.out.Advance
	}
}

// drawGlyphs fills the outlines of a shaped run, left to right from x.
func (c *composition) drawGlyphs(dst draw.Image, out shaping.Output, x fixed.Int26_6, y int) {
	scale := float32(out.Size) / 64 / float32(out.Face.Upem())
	dot := x
	for _, g := range out.Glyphs {
		if o, ok := out.Face.GlyphData(g.GlyphID).(gtfont.GlyphOutline); ok {
			ox := float32(dot+g.XOffset) / 64
			oy := float32(fixed.I(y)-g.YOffset) / 64
			c.fill(dst, o, ox, oy, scale)
		}
		dot += g.Advance
	}
}

// fill rasterizes one glyph outline with its origin at (ox, oy). Outline
// coordinates are font units with the y axis pointing up.
func (c *composition) fill(dst draw.Image, o gtfont.GlyphOutline, ox, oy, scale float32) {
	if len(o.Segments) == 0 {
		return
	}
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := -minX, -minY
	for _, s := range o.Segments {
		for _, p := range s.Args[:segmentArgs(s.Op)] {
			px, py := ox+p.X*scale, oy-p.Y*scale
			minX, maxX = min(minX, px), max(maxX, px)
			minY, maxY = min(minY, py), max(maxY, py)
		}
	}
	box := image.Rect(int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))), int(math.Ceil(float64(maxY))))
	clipped := box.Intersect(dst.Bounds())
	if clipped.Empty() {
		return
	}

	dx, dy := ox-float32(box.Min.X), oy-float32(box.Min.Y)
	c.rast.Reset(box.Dx(), box.Dy())
	open := false
	for _, s := range o.Segments {
		a := s.Args
		switch s.Op {
		case ot.SegmentOpMoveTo:
			if open {
				c.rast.ClosePath()
			}
			c.rast.MoveTo(dx+a[0].X*scale, dy-a[0].Y*scale)
			open = true
		case ot.SegmentOpLineTo:
			c.rast.LineTo(dx+a[0].X*scale, dy-a[0].Y*scale)
		case ot.SegmentOpQuadTo:
			c.rast.QuadTo(dx+a[0].X*scale, dy-a[0].Y*scale, dx+a[1].X*scale, dy-a[1].Y*scale)
		case ot.SegmentOpCubeTo:
			c.rast.CubeTo(dx+a[0].X*scale, dy-a[0].Y*scale, dx+a[1].X*scale, dy-a[1].Y*scale,
				dx+a[2].X*scale, dy-a[2].Y*scale)
		}
	}
	if open {
		c.rast.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	c.rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(dst, clipped, ink, image.Point{}, mask, clipped.Min.Sub(box.Min), draw.Over)
}

func segmentArgs(op ot.SegmentOp) int {
	switch op {
	case ot.SegmentOpQuadTo:
		return 2
	case ot.SegmentOpCubeTo:
		return 3
	}
	return 1
}

func underline(dst draw.Image, out shaping.Output, x0, x1 fixed.Int26_6, y int) {
	b := out.LineBounds
	th := max(1, int(float64((b.Ascent-b.Descent).Ceil())*underlineSize))
	off := max(1, (-b.Descent).Ceil()/3)
	r := image.Rect(x0.Floor(), y+off, x1.Ceil(), y+off+th)
	draw.Draw(dst, r.Intersect(dst.Bounds()), ink, image.Point{}, draw.Over)
}

// clip returns the part of the page inside r; drawing outside it is dropped.
func (c *composition) clip(r layout.Rect) draw.Image {
	return c.dst.SubImage(c.rect(r)).(*image.RGBA)
}

// drawHeader draws a single right-to-left line vertically centred in r.
func (c *composition) drawHeader(r layout.Rect, align layout.Alignment, text string) {
	ts := textStyle{family: c.e.opts.BodyFamily, size: HeaderSize, base: rtl.RTL, align: align}
	t := plainText(text)
	if len(t.runes) == 0 {
		return
	}
	m := c.faces.face(ts.family, fonts.Variant{}, ts.size).measure.Metrics()
	box := c.rect(r)
	y := box.Min.Y + (box.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	c.drawLine(c.clip(r), t, 0, len(t.runes), box.Min.X, box.Max.X, y, ts)
}

// drawBody lays out the paragraphs right-to-left inside region, stopping
// at the region bottom.
func (c *composition) drawBody(ctx context.Context, region layout.Rect, paragraphs []markup.Paragraph) {
	if len(paragraphs) == 0 {
		return
	}
	box := c.rect(region)
	dst := c.clip(region)
	y := box.Min.Y

	for pi, p := range paragraphs {
		size := BodySize * p.Scale
		if p.Scale <= 0 {
			size = BodySize
		}
		ts := textStyle{family: c.e.opts.BodyFamily, size: size, base: rtl.RTL, align: p.Align}
		if ts.align == "" {
			ts.align = layout.AlignRight
		}
		lineH := int(size * lineSpacing * float64(c.scale))
		ascent := c.faces.face(ts.family, fonts.Variant{}, size).measure.Metrics().Ascent.Ceil()

		t := newStyledText(p.Spans)
		for _, ln := range c.wrap(t, fixed.I(box.Dx()), ts) {
			if y+lineH > box.Max.Y {
				c.warn(ctx, WarnBodyTruncated, "body does not fit, %d of %d paragraphs drawn", pi, len(paragraphs))
				return
			}
			c.drawLine(dst, t, ln[0], ln[1], box.Min.X, box.Max.X, y+ascent, ts)
			y += lineH
		}
		y += int(size * paragraphGap * float64(c.scale))
	}
}

// drawZone fills a named zone with its field text, wrapped to the zone
// width and clipped to its height.
func (c *composition) drawZone(ctx context.Context, z layout.Zone, text string) {
	size := float64(z.FontSize)
	if size <= 0 {
		size = layout.DefaultZoneFontSize
	}
	ts := textStyle{family: z.FontFamily, size: size, base: rtl.RTL, align: z.Alignment}
	if rtl.Classify(text) == rtl.LTR {
		ts.base = rtl.LTR
	}
	box := c.rect(z.Rect)
	dst := c.clip(z.Rect)
	lineH := int(size * lineSpacing * float64(c.scale))
	ascent := c.faces.face(z.FontFamily, fonts.Variant{}, size).measure.Metrics().Ascent.Ceil()

	y := box.Min.Y
	for _, para := range strings.Split(text, "\n") {
		t := plainText(para)
		for _, ln := range c.wrap(t, fixed.I(box.Dx()), ts) {
			if y+lineH > box.Max.Y && y != box.Min.Y {
				c.e.logger.Debug(ctx, "zone text clipped", "zone", z.ID)
				return
			}
			c.drawLine(dst, t, ln[0], ln[1], box.Min.X, box.Max.X, y+ascent, ts)
			y += lineH
		}
	}
}

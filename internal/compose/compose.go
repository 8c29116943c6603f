// Package compose rasterizes a template page: background, header fields,
// the letter body, zone field text, the verification symbol and the
// signature, at a fixed multiple of the logical page size.
package compose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/fonts"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/dmitrijs2005/letterdesk/internal/markup"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/vector"
)

// MinScale is the lowest accepted output scale.
const MinScale = 3

// Layout constants in document points.
const (
	PageMargin    = 40
	RegionGap     = 12
	HeaderSize    = 12.0
	BodySize      = 12.0
	lineSpacing   = 1.5
	paragraphGap  = 0.6
	underlineSize = 0.06
)

// Warning codes.
const (
	WarnFontSubstituted     = "font_substituted"
	WarnGlyphMissing        = "glyph_missing"
	WarnSymbolMissing       = "symbol_missing"
	WarnSymbolUnreadable    = "symbol_unreadable"
	WarnSignatureUnreadable = "signature_unreadable"
	WarnBodyTruncated       = "body_truncated"
)

// Warning is a non-fatal degradation of the output.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Content is the live letter data drawn onto the page.
type Content struct {
	SerialNumber    string
	IssueDate       string
	BodyMarkup      string
	VerificationURL string
	Signature       []byte
	// Fields fill zones by zone name.
	Fields map[string]string
}

// Request is everything needed to compose one page.
type Request struct {
	Background []byte
	Template   layout.Template
	Content    Content
	// Symbol is the verification symbol image, if one was generated.
	Symbol []byte
}

// Result is the composed raster page.
type Result struct {
	Image    *image.RGBA
	Scale    int
	Warnings []Warning
}

// Options configure an Engine. BodyFamily sets the body and the header
// lines; zones name their own family.
type Options struct {
	Page        layout.Page
	Scale       int
	FontTimeout time.Duration
	BodyFamily  string
}

func (o Options) withDefaults() Options {
	if o.Page == (layout.Page{}) {
		o.Page = layout.A4
	}
	if o.Scale < MinScale {
		o.Scale = MinScale
	}
	if o.FontTimeout <= 0 {
		o.FontTimeout = 3 * time.Second
	}
	if o.BodyFamily == "" {
		o.BodyFamily = fonts.DefaultFamily
	}
	return o
}

// Engine composes pages. It is safe for concurrent use.
type Engine struct {
	fonts  *fonts.Registry
	opts   Options
	logger logging.Logger
}

func New(reg *fonts.Registry, opts Options, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Engine{fonts: reg, opts: opts.withDefaults(), logger: logger.With("module", "compose")}
}

// Scale returns the output scale.
func (e *Engine) Scale() int { return e.opts.Scale }

// composition is the state of one Compose call.
type composition struct {
	e        *Engine
	dst      *image.RGBA
	scale    int
	faces    *faceSet
	hb       shaping.HarfbuzzShaper
	seg      shaping.Segmenter
	rast     *vector.Rasterizer
	warnings []Warning
}

func (c *composition) warn(ctx context.Context, code, msg string, args ...any) {
	w := Warning{Code: code, Message: fmt.Sprintf(msg, args...)}
	c.warnings = append(c.warnings, w)
	c.e.logger.Warn(ctx, w.Message, "code", code)
}

// px converts document points to output pixels.
func (c *composition) px(v int) int { return v * c.scale }

func (c *composition) rect(r layout.Rect) image.Rectangle {
	return image.Rect(c.px(r.X), c.px(r.Y), c.px(r.Right()), c.px(r.Bottom()))
}

// Compose renders req. The same request always yields the same pixels.
func (e *Engine) Compose(ctx context.Context, req Request) (*Result, error) {
	tpl := req.Template.Clone()
	if tpl.Config == nil {
		cfg := layout.DefaultConfig()
		tpl.Config = &cfg
	}
	if err := tpl.Validate(e.opts.Page); err != nil {
		return nil, err
	}
	if len(req.Background) == 0 {
		return nil, common.ErrMissingBackground
	}
	paragraphs, err := markup.Parse(req.Content.BodyMarkup)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrAssetLoad, err)
	}

	c := &composition{e: e, scale: e.opts.Scale, rast: vector.NewRasterizer(0, 0)}
	c.faces = newFaceSet(e.fonts, float64(c.scale), func(family string, err error) {
		c.warn(ctx, WarnFontSubstituted, "font %q unavailable, using fallback: %v", family, err)
	})
	defer c.faces.close()

	// fonts first, everything else draws with what is resolved here
	fctx, cancel := context.WithTimeout(ctx, e.opts.FontTimeout)
	c.faces.await(fctx, e.opts.BodyFamily, true)
	c.faces.await(fctx, fonts.DefaultFamily, false)
	for _, z := range tpl.Zones {
		if _, ok := req.Content.Fields[z.Name]; ok {
			c.faces.await(fctx, z.FontFamily, false)
		}
	}
	cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := e.opts.Page
	c.dst = image.NewRGBA(image.Rect(0, 0, c.px(p.Width), c.px(p.Height)))
	draw.Draw(c.dst, c.dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if err := c.drawBackground(req.Background); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := tpl.Config
	for _, h := range []struct {
		kind layout.FixedKind
		text string
	}{
		{layout.SerialNumber, req.Content.SerialNumber},
		{layout.IssueDate, req.Content.IssueDate},
	} {
		f := cfg.Fixed.Get(h.kind)
		if !f.Enabled || h.text == "" {
			continue
		}
		c.drawHeader(f.Rect(h.kind), f.Alignment, h.text)
	}

	c.drawBody(ctx, bodyRegion(*cfg, p), paragraphs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, z := range tpl.Zones {
		if text, ok := req.Content.Fields[z.Name]; ok && text != "" {
			c.drawZone(ctx, z, text)
		}
	}

	if v := cfg.Verification; v.Enabled {
		c.drawSymbol(ctx, v.Rect(), req.Symbol)
	}
	if s := cfg.Fixed.Signature; s.Enabled && len(req.Content.Signature) > 0 {
		c.drawSignature(ctx, s.Rect(layout.Signature), s.Alignment, req.Content.Signature)
	}

	c.glyphWarnings(ctx)
	return &Result{Image: c.dst, Scale: c.scale, Warnings: c.warnings}, nil
}

func (c *composition) glyphWarnings(ctx context.Context) {
	substituted, missing := c.faces.glyphGaps()
	for _, s := range substituted {
		c.warn(ctx, WarnFontSubstituted, "font %q has no glyphs for %q, using fallback", s.family, s.runes)
	}
	if missing != "" {
		c.warn(ctx, WarnGlyphMissing, "no font has glyphs for %q", missing)
	}
}

// bodyRegion spans from below the enabled header elements to above the
// signature block, inside the horizontal page margins.
func bodyRegion(cfg layout.Config, p layout.Page) layout.Rect {
	top := PageMargin
	for _, k := range []layout.FixedKind{layout.SerialNumber, layout.IssueDate} {
		f := cfg.Fixed.Get(k)
		if f.Enabled {
			top = max(top, f.Rect(k).Bottom()+RegionGap)
		}
	}
	bottom := p.Height - PageMargin
	if s := cfg.Fixed.Signature; s.Enabled {
		bottom = s.Y - RegionGap
	}
	if bottom < top {
		bottom = top
	}
	return layout.Rect{X: PageMargin, Y: top, Width: p.Width - 2*PageMargin, Height: bottom - top}
}

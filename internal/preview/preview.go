// Package preview draws the editing overlay of a template: the background,
// every placed element as an outline with its label, and the resize handles
// of the selected element.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	labelSize  = 9.0
	handleSize = 6.0
)

var (
	zoneColor     = color.RGBA{R: 0x1e, G: 0x6f, B: 0xd9, A: 0xff}
	fixedColor    = color.RGBA{R: 0x2e, G: 0x8b, B: 0x57, A: 0xff}
	disabledColor = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
	selectColor   = color.RGBA{R: 0xe6, G: 0x51, B: 0x00, A: 0xff}
)

// Renderer draws previews at a fixed zoom. It is safe for concurrent use.
type Renderer struct {
	font *truetype.Font
	page layout.Page
	zoom float64
}

func New(page layout.Page, zoom float64) (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	if zoom <= 0 {
		zoom = 1
	}
	return &Renderer{font: f, page: page, zoom: zoom}, nil
}

// Render returns the overlay as PNG bytes.
func (r *Renderer) Render(ctx context.Context, background []byte, els []layout.Element, selected layout.ElementID) ([]byte, error) {
	w := int(float64(r.page.Width) * r.zoom)
	h := int(float64(r.page.Height) * r.zoom)
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))

	dc := gg.NewContextForRGBA(canvas)
	dc.SetColor(color.White)
	dc.Clear()

	if len(background) > 0 {
		bg, _, err := image.Decode(bytes.NewReader(background))
		if err != nil {
			return nil, fmt.Errorf("%w: background: %v", common.ErrAssetLoad, err)
		}
		xdraw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), bg, bg.Bounds(), xdraw.Over, nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{Size: labelSize * r.zoom}))
	dc.Scale(r.zoom, r.zoom)

	for _, el := range els {
		r.drawElement(dc, el, el.ID == selected)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawElement(dc *gg.Context, el layout.Element, selected bool) {
	c := zoneColor
	if el.ID.IsFixed() {
		c = fixedColor
	}
	if !el.Enabled {
		c = disabledColor
		dc.SetDash(4, 3)
	}
	if selected {
		c = selectColor
	}
	x, y := float64(el.Rect.X), float64(el.Rect.Y)
	w, h := float64(el.Rect.Width), float64(el.Rect.Height)

	dc.SetColor(color.RGBA{R: c.R, G: c.G, B: c.B, A: 0x22})
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()

	dc.SetColor(c)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()
	dc.SetDash()

	dc.DrawStringAnchored(el.Label, x+3, y+3, 0, 1)

	if !selected {
		return
	}
	for _, hd := range layout.Handles {
		hx, hy := hd.Anchor(el.Rect)
		dc.DrawRectangle(float64(hx)-handleSize/2, float64(hy)-handleSize/2, handleSize, handleSize)
		dc.SetColor(color.White)
		dc.FillPreserve()
		dc.SetColor(selectColor)
		dc.Stroke()
	}
}

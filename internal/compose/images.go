package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var errEmptyImage = errors.New("empty image")

func decode(b []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, errEmptyImage
	}
	return img, nil
}

// drawBackground stretches the background over the whole page. The aspect
// ratio is not preserved.
func (c *composition) drawBackground(b []byte) error {
	img, err := decode(b)
	if err != nil {
		return fmt.Errorf("%w: background: %v", common.ErrAssetLoad, err)
	}
	xdraw.CatmullRom.Scale(c.dst, c.dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return nil
}

// drawSymbol fills the square with the symbol. Nearest-neighbour keeps the
// modules sharp for scanning.
func (c *composition) drawSymbol(ctx context.Context, r layout.Rect, b []byte) {
	if len(b) == 0 {
		c.warn(ctx, WarnSymbolMissing, "verification symbol enabled but not supplied")
		return
	}
	img, err := decode(b)
	if err != nil {
		c.warn(ctx, WarnSymbolUnreadable, "verification symbol: %v", err)
		return
	}
	xdraw.NearestNeighbor.Scale(c.dst, c.rect(r), img, img.Bounds(), xdraw.Over, nil)
}

// drawSignature fits the signature into its block keeping the aspect
// ratio, aligned horizontally and centred vertically.
func (c *composition) drawSignature(ctx context.Context, r layout.Rect, align layout.Alignment, b []byte) {
	img, err := decode(b)
	if err != nil {
		c.warn(ctx, WarnSignatureUnreadable, "signature: %v", err)
		return
	}
	box := c.rect(r)
	sb := img.Bounds()
	w, h := box.Dx(), box.Dx()*sb.Dy()/sb.Dx()
	if h > box.Dy() {
		w, h = box.Dy()*sb.Dx()/sb.Dy(), box.Dy()
	}
	x := box.Min.X
	switch align {
	case layout.AlignCenter:
		x += (box.Dx() - w) / 2
	case layout.AlignRight:
		x += box.Dx() - w
	}
	y := box.Min.Y + (box.Dy()-h)/2
	xdraw.CatmullRom.Scale(c.dst, image.Rect(x, y, x+w, y+h), img, sb, xdraw.Over, nil)
}

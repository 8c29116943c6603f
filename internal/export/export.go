// Package export wraps a composed raster page into a single-page PDF.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/logging"
	"github.com/go-pdf/fpdf"
)

var errEmptyImage = errors.New("empty image")

// Format is the compression of the embedded raster.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts "png", "jpeg" or "jpg".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png", "":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("%w: image format %q", common.ErrInvalidField, s)
}

// Meta is the document information dictionary.
type Meta struct {
	Title   string
	Subject string
	Author  string
	Creator string
	Created time.Time
}

// Options configure an Exporter.
type Options struct {
	Page        layout.Page
	Format      Format
	JPEGQuality int
}

// Exporter produces PDF bytes. It keeps no state between calls.
type Exporter struct {
	opts   Options
	logger logging.Logger
}

func New(opts Options, logger logging.Logger) *Exporter {
	if opts.Page == (layout.Page{}) {
		opts.Page = layout.A4
	}
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 92
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Exporter{opts: opts, logger: logger.With("module", "export")}
}

// encodeRaster is replaced in tests.
var encodeRaster = func(w io.Writer, img image.Image, f Format, quality int) error {
	if f == FormatJPEG {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, img)
}

// writeDocument is replaced in tests.
var writeDocument = func(pdf *fpdf.Fpdf, w io.Writer) error {
	return pdf.Output(w)
}

// Export places img over the whole page, whatever its aspect ratio.
func (x *Exporter) Export(ctx context.Context, img image.Image, meta Meta) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &common.EncodingError{Stage: "raster", Err: errEmptyImage}
	}

	var raster bytes.Buffer
	if err := encodeRaster(&raster, img, x.opts.Format, x.opts.JPEGQuality); err != nil {
		return nil, &common.EncodingError{Stage: "raster", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := float64(x.opts.Page.Width), float64(x.opts.Page.Height)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetCompression(true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetAuthor(meta.Author, true)
	creator := meta.Creator
	if creator == "" {
		creator = common.AppName
	}
	pdf.SetCreator(creator, true)
	if !meta.Created.IsZero() {
		pdf.SetCreationDate(meta.Created)
		pdf.SetModificationDate(meta.Created)
	}

	pdf.AddPage()
	imgType := "PNG"
	if x.opts.Format == FormatJPEG {
		imgType = "JPG"
	}
	opt := fpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader("page", opt, &raster)
	pdf.ImageOptions("page", 0, 0, w, h, false, opt, 0, "")

	var out bytes.Buffer
	if err := writeDocument(pdf, &out); err != nil {
		return nil, &common.EncodingError{Stage: "document", Err: err}
	}
	if out.Len() == 0 {
		return nil, common.ErrEmptyDocument
	}
	x.logger.Debug(ctx, "document exported", "bytes", out.Len(), "format", string(x.opts.Format))
	return out.Bytes(), nil
}

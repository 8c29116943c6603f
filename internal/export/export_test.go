package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raster(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	return img
}

func TestExport_PageExact(t *testing.T) {
	for _, f := range []Format{FormatPNG, FormatJPEG} {
		t.Run(string(f), func(t *testing.T) {
			x := New(Options{Format: f}, nil)
			// aspect ratio differs from the page on purpose
			out, err := x.Export(context.Background(), raster(300, 120), Meta{
				Title:   "Letter 42",
				Created: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
			assert.Contains(t, string(out), "/MediaBox [0 0 595.00 842.00]")
			assert.Equal(t, 1, bytes.Count(out, []byte("/Type /Page\n")))
		})
	}
}

func TestExport_Deterministic(t *testing.T) {
	x := New(Options{}, nil)
	meta := Meta{Title: "t", Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	a, err := x.Export(context.Background(), raster(60, 85), meta)
	require.NoError(t, err)
	b, err := x.Export(context.Background(), raster(60, 85), meta)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExport_EncodingFailure(t *testing.T) {
	x := New(Options{}, nil)

	_, err := x.Export(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0)), Meta{})
	var ee *common.EncodingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "raster", ee.Stage)

	orig := encodeRaster
	t.Cleanup(func() { encodeRaster = orig })
	boom := errors.New("boom")
	encodeRaster = func(io.Writer, image.Image, Format, int) error { return boom }
	_, err = x.Export(context.Background(), raster(10, 10), Meta{})
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, boom)
}

func TestExport_DocumentFailures(t *testing.T) {
	x := New(Options{}, nil)
	orig := writeDocument
	t.Cleanup(func() { writeDocument = orig })

	writeDocument = func(*fpdf.Fpdf, io.Writer) error { return errors.New("disk full") }
	_, err := x.Export(context.Background(), raster(10, 10), Meta{})
	var ee *common.EncodingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "document", ee.Stage)

	writeDocument = func(*fpdf.Fpdf, io.Writer) error { return nil }
	_, err = x.Export(context.Background(), raster(10, 10), Meta{})
	assert.ErrorIs(t, err, common.ErrEmptyDocument)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("jpg")
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	_, err = ParseFormat("tiff")
	assert.ErrorIs(t, err, common.ErrInvalidField)
}
